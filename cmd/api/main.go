package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elliewren/caption-gallery/backend/internal/config"
	"github.com/elliewren/caption-gallery/backend/internal/database"
	"github.com/elliewren/caption-gallery/backend/internal/handlers"
	"github.com/elliewren/caption-gallery/backend/internal/server"
	"github.com/elliewren/caption-gallery/backend/internal/session"
	"github.com/elliewren/caption-gallery/backend/internal/store"
	"github.com/elliewren/caption-gallery/backend/internal/votes"
)

func main() {
	cfg := config.Load()

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Single store client, owned here and passed by reference.
	st := store.New(db.GetDB())

	sessions := session.NewManager(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.PublicOrigin,
		st,
		[]byte(cfg.JWTSecret),
		cfg.SessionTTL,
	)

	workflow := votes.NewWorkflow(st, st, sessions)
	defer workflow.Close()

	handler := handlers.NewHandler(cfg, sessions, st, workflow)
	srv := server.New(cfg, db, handler, sessions)

	go func() {
		log.Printf("🚀 Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
