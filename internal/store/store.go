// Package store defines the typed boundary to the relational store. Rows are
// translated into the canonical record shapes in internal/models here; nothing
// above this package sees column-level detail.
package store

import (
	"context"
	"errors"

	"github.com/elliewren/caption-gallery/backend/internal/models"
)

// ErrNotFound reports that no row matched the lookup.
var ErrNotFound = errors.New("store: record not found")

type CaptionStore interface {
	// ListAll returns every caption, newest first. An empty table yields an
	// empty slice, not an error.
	ListAll(ctx context.Context) ([]models.Caption, error)

	// CaptionByID returns the caption, or ErrNotFound when no row exists.
	CaptionByID(ctx context.Context, id string) (*models.Caption, error)
}

type VoteStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.Vote, error)

	// Upsert inserts the vote or, when a row for (user, caption) already
	// exists, overwrites its direction. Conflict target is the composite
	// unique index on (user_id, caption_id).
	Upsert(ctx context.Context, vote *models.Vote) error

	// Delete removes the user's vote on the caption, if any.
	Delete(ctx context.Context, userID, captionID string) error
}

type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindOrCreateFromGoogle resolves the Google principal to a local user,
	// creating one on first sign-in and backfilling the Google subject id on
	// accounts matched by email.
	FindOrCreateFromGoogle(ctx context.Context, googleID, email, name, avatarURL string) (*models.User, error)
}
