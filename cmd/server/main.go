// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/hellohand/backend/internal/cache"
	"github.com/hellohand/backend/internal/handlers"
	"github.com/hellohand/backend/internal/hub"
	"github.com/hellohand/backend/internal/middleware"
	"github.com/hellohand/backend/internal/room"
	"github.com/hellohand/backend/internal/store"
	"github.com/hellohand/backend/internal/translator"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	ctx := context.Background()

	// Durable store: Postgres when configured, otherwise in-memory for
	// local development.
	var st store.Store
	if os.Getenv("PG_HOST") != "" {
		connStr := fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			os.Getenv("POSTGRES_USER"),
			os.Getenv("POSTGRES_PASSWORD"),
			os.Getenv("PG_HOST"),
			os.Getenv("PG_PORT"),
			os.Getenv("PG_DATABASE"),
		)
		pg, err := store.NewPostgres(ctx, connStr)
		if err != nil {
			logger.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pg.Close()
		st = pg
		logger.Infof("connected to postgres at %s", os.Getenv("PG_HOST"))
	} else {
		logger.Warn("PG_HOST not set, using in-memory store")
		st = store.NewMemoryStore()
	}

	// Room event journal is best effort: without Redis the server runs,
	// it just stops journaling.
	journal, err := cache.ConnectJournal(logger)
	if err != nil {
		logger.Warnf("room event journal disabled: %v", err)
		journal = nil
	}

	rooms := room.NewManager(st, logger)
	h := hub.New(logger)

	// The inference model is an external collaborator; until one is
	// attached the bridge answers every request gracefully as unloaded.
	svc := translator.NewService(nil, logger)
	bridge := translator.NewBridge(svc, 4, 64, logger)
	defer bridge.Close()

	srv := handlers.NewServer(st, rooms, h, bridge, svc, journal, logger)

	logMW := middleware.LogMiddleware(logger)
	mux := http.NewServeMux()

	// room management endpoints
	mux.Handle("POST /api/rooms/create", logMW(handlers.CreateRoomHandler(srv)))
	mux.Handle("POST /api/rooms/{room_id}/join", logMW(handlers.JoinRoomHandler(srv)))
	mux.Handle("GET /api/rooms/{room_id}/status", logMW(handlers.RoomStatusHandler(srv)))
	mux.Handle("POST /api/rooms/{room_id}/leave", logMW(handlers.LeaveRoomHandler(srv)))
	mux.Handle("GET /api/rooms/list", logMW(handlers.ListRoomsHandler(srv)))

	// translator status
	mux.Handle("GET /api/translator/info", logMW(handlers.TranslatorInfoHandler(srv)))

	// room live channel
	mux.Handle("GET /ws/rooms/{room_id}", logMW(handlers.RoomWSHandler(logger, srv)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}
