// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list that room events are journaled to.
var DefaultQueueName = "hellohand_room_events"

// RoomEventRecord is one audit entry: room lifecycle and presence changes
// pushed for out-of-band consumers (analytics, session history).
type RoomEventRecord struct {
	RoomID        string `json:"room_id"`
	EventType     string `json:"event_type"`
	ParticipantID string `json:"participant_id,omitempty"`
	Detail        string `json:"detail,omitempty"`
	Timestamp     int64  `json:"timestamp"`
}

// Journal publishes room events to Redis. A nil Journal (or one whose
// connect failed) is safe to call and does nothing: the audit trail is
// best-effort and never blocks room state changes.
type Journal struct {
	rdb    *redis.Client
	queue  string
	logger *logrus.Logger
}

// ConnectJournal initializes a Journal from environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
//   - ROOM_EVENT_QUEUE (optional, defaults to DefaultQueueName)
func ConnectJournal(logger *logrus.Logger) (*Journal, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &Journal{
		rdb:    rdb,
		queue:  getEnv("ROOM_EVENT_QUEUE", DefaultQueueName),
		logger: logger,
	}, nil
}

// Publish serializes the record and pushes it onto the journal queue.
// Failures are logged and swallowed; journaling never fails a caller.
func (j *Journal) Publish(ctx context.Context, record RoomEventRecord) {
	if j == nil || j.rdb == nil {
		return
	}
	if record.Timestamp == 0 {
		record.Timestamp = time.Now().Unix()
	}
	data, err := json.Marshal(record)
	if err != nil {
		j.logger.Warnf("failed to marshal room event record: %v", err)
		return
	}
	if err := j.rdb.RPush(ctx, j.queue, data).Err(); err != nil {
		j.logger.Warnf("failed to journal room event to %q: %v", j.queue, err)
	}
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
