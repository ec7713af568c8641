package handlers

import (
	"github.com/elliewren/caption-gallery/backend/internal/config"
	"github.com/elliewren/caption-gallery/backend/internal/session"
	"github.com/elliewren/caption-gallery/backend/internal/store"
	"github.com/elliewren/caption-gallery/backend/internal/votes"
)

// Handler aggregates all route handlers.
type Handler struct {
	Auth    *AuthHandler
	Caption *CaptionHandler
}

func NewHandler(cfg config.Config, sessions *session.Manager, users store.UserStore, workflow *votes.Workflow) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(cfg, sessions, users),
		Caption: NewCaptionHandler(workflow),
	}
}
