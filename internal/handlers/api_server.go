// internal/handlers/api_server.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/hellohand/backend/internal/cache"
	"github.com/hellohand/backend/internal/hub"
	"github.com/hellohand/backend/internal/room"
	"github.com/hellohand/backend/internal/store"
	"github.com/hellohand/backend/internal/translator"
)

// Server bundles the collaborators the handlers need: the durable store,
// the room lifecycle manager, the broadcast hub, the translation bridge
// and the best-effort event journal. Everything is constructed in main and
// injected here; no handler reaches for global state.
type Server struct {
	Store      store.Store
	Rooms      *room.Manager
	Hub        *hub.Hub
	Bridge     *translator.Bridge
	Translator *translator.Service
	Journal    *cache.Journal
	Logger     *logrus.Logger
}

func NewServer(st store.Store, rooms *room.Manager, h *hub.Hub, bridge *translator.Bridge, svc *translator.Service, journal *cache.Journal, logger *logrus.Logger) *Server {
	return &Server{
		Store:      st,
		Rooms:      rooms,
		Hub:        h,
		Bridge:     bridge,
		Translator: svc,
		Journal:    journal,
		Logger:     logger,
	}
}

// writeJSON writes v with the given status code.
func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the standard {"error": ...} payload.
func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
