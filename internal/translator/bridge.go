// internal/translator/bridge.go
package translator

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/hellohand/backend/internal/signal"
)

// Bridge runs translation requests on a bounded worker pool so inference
// never blocks the connection-handling layer. Results come back through
// the per-request callback, typically a room broadcast; a request started
// by a participant who has since disconnected still completes.
type Bridge struct {
	service *Service
	logger  *logrus.Logger

	jobs chan job
	wg   sync.WaitGroup

	closeOnce sync.Once
}

type job struct {
	frames        []signal.Frame
	minConfidence float64
	done          func(Result)
}

// NewBridge starts workers goroutines draining a queue of queueSize.
func NewBridge(service *Service, workers, queueSize int, logger *logrus.Logger) *Bridge {
	if workers < 1 {
		workers = 1
	}
	b := &Bridge{
		service: service,
		logger:  logger,
		jobs:    make(chan job, queueSize),
	}
	for i := 0; i < workers; i++ {
		b.wg.Add(1)
		go b.worker()
	}
	return b
}

// Submit enqueues a translation request without blocking. When the queue
// is saturated the request is rejected immediately with a failed Result so
// the requester still hears back.
func (b *Bridge) Submit(frames []signal.Frame, minConfidence float64, done func(Result)) {
	j := job{frames: frames, minConfidence: minConfidence, done: done}
	select {
	case b.jobs <- j:
	default:
		b.logger.Warn("translation queue full, rejecting request")
		done(Result{Message: "translation service busy"})
	}
}

// Close stops accepting work and waits for in-flight jobs to finish.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		close(b.jobs)
	})
	b.wg.Wait()
}

func (b *Bridge) worker() {
	defer b.wg.Done()
	for j := range b.jobs {
		res := b.service.PredictFromLandmarks(j.frames, j.minConfidence)
		j.done(res)
	}
}
