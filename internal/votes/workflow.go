// Package votes synchronizes a user's rating choices with the store and keeps
// the server-side mirror of the committed vote mapping consistent.
package votes

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/elliewren/caption-gallery/backend/internal/models"
	"github.com/elliewren/caption-gallery/backend/internal/session"
	"github.com/elliewren/caption-gallery/backend/internal/store"
)

// Workflow applies the tri-state vote cycle for each signed-in identity:
//
//	no vote --cast(d)--> d        (insert)
//	d       --cast(d)--> no vote  (undo: delete the row)
//	d       --cast(-d)--> -d      (single upsert, not delete-then-insert)
//
// The mapping for an identity is mutated only after the store confirms the
// write; a failed write leaves it untouched.
type Workflow struct {
	captions store.CaptionStore
	votes    store.VoteStore

	mu       sync.Mutex
	byUser   map[string]models.VoteMap
	inFlight map[string]struct{}

	unsubscribe func()
}

// NewWorkflow builds the workflow and, when a session manager is given,
// subscribes to its transitions: votes are loaded on sign-in and the
// identity's mapping is cleared on sign-out. Close releases the subscription.
func NewWorkflow(captions store.CaptionStore, votes store.VoteStore, sessions *session.Manager) *Workflow {
	w := &Workflow{
		captions: captions,
		votes:    votes,
		byUser:   make(map[string]models.VoteMap),
		inFlight: make(map[string]struct{}),
	}
	if sessions != nil {
		w.unsubscribe = sessions.Subscribe(w.onSessionChange)
	}
	return w
}

// Close releases the session subscription so no handler fires after the
// workflow is torn down. Safe to call more than once.
func (w *Workflow) Close() {
	w.mu.Lock()
	unsubscribe := w.unsubscribe
	w.unsubscribe = nil
	w.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (w *Workflow) onSessionChange(ev session.Event) {
	switch ev.Type {
	case session.SignedIn:
		w.LoadUserVotes(context.Background(), &ev.Identity)
	case session.SignedOut:
		// Clear strictly on the confirmed transition, never speculatively.
		w.mu.Lock()
		delete(w.byUser, ev.Identity.UserID)
		w.mu.Unlock()
	}
}

// LoadContent fetches all captions, unfiltered and unpaginated. Failures are
// surfaced to the caller; an empty table is an empty list, not an error.
func (w *Workflow) LoadContent(ctx context.Context) ([]models.Caption, error) {
	return w.captions.ListAll(ctx)
}

// LoadUserVotes fetches the identity's vote rows and folds them into the
// mapping. Errors are logged, not surfaced: when nothing is cached the caller
// gets an empty mapping and falls back to "no vote shown", and a mapping that
// is already cached survives the transient failure untouched.
func (w *Workflow) LoadUserVotes(ctx context.Context, ident *session.Identity) models.VoteMap {
	if ident == nil {
		return models.VoteMap{}
	}

	rows, err := w.votes.ListByUser(ctx, ident.UserID)
	if err != nil {
		log.Printf("failed to load votes for user %s: %v", ident.UserID, err)
		w.mu.Lock()
		defer w.mu.Unlock()
		if existing, ok := w.byUser[ident.UserID]; ok {
			return cloneMap(existing)
		}
		return models.VoteMap{}
	}

	mapping := models.VoteMap{}
	for _, v := range rows {
		mapping[v.CaptionID] = v.Direction
	}

	w.mu.Lock()
	w.byUser[ident.UserID] = mapping
	w.mu.Unlock()

	return cloneMap(mapping)
}

// VotesFor returns the cached mapping for the identity without touching the
// store, or nil when nothing is cached.
func (w *Workflow) VotesFor(ident *session.Identity) models.VoteMap {
	if ident == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	m, ok := w.byUser[ident.UserID]
	if !ok {
		return nil
	}
	return cloneMap(m)
}

// CastVote runs one step of the state machine for (identity, caption). It
// issues exactly one store write per invocation and returns the committed
// direction, 0 meaning the vote was removed.
//
// A nil identity is the sole authorization gate on mutation: no store call is
// made. While a cast for the same (identity, caption) is in flight, further
// casts for that pair are refused; casts for other captions proceed.
func (w *Workflow) CastVote(ctx context.Context, ident *session.Identity, captionID string, direction int) (int, error) {
	if ident == nil {
		return 0, ErrNotSignedIn
	}
	if !models.ValidDirection(direction) {
		return 0, ErrBadDirection
	}
	if _, err := w.captions.CaptionByID(ctx, captionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, ErrCaptionNotFound
		}
		return 0, fmt.Errorf("look up caption: %w", err)
	}

	// Identity is captured here; a sign-out that lands while the write is in
	// flight cannot redirect it.
	userID := ident.UserID
	key := userID + "/" + captionID

	w.mu.Lock()
	if _, busy := w.inFlight[key]; busy {
		w.mu.Unlock()
		return 0, ErrVoteInFlight
	}
	w.inFlight[key] = struct{}{}
	current, cached := 0, false
	if m, ok := w.byUser[userID]; ok {
		current = m[captionID]
		cached = true
	}
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		delete(w.inFlight, key)
		w.mu.Unlock()
	}()

	if !cached {
		// First touch since sign-in (or a restart): the committed state is
		// whatever a fresh fetch reports.
		current = w.storedDirection(ctx, userID, captionID)
	}

	if current == direction {
		// Undo: re-clicking the active direction removes the vote.
		if err := w.votes.Delete(ctx, userID, captionID); err != nil {
			return current, fmt.Errorf("remove vote: %w", err)
		}
		w.applyConfirmed(userID, captionID, 0)
		return 0, nil
	}

	vote := &models.Vote{
		UserID:    userID,
		CaptionID: captionID,
		Direction: direction,
	}
	if err := w.votes.Upsert(ctx, vote); err != nil {
		return current, fmt.Errorf("record vote: %w", err)
	}
	w.applyConfirmed(userID, captionID, direction)
	return direction, nil
}

// storedDirection reads the committed direction for one caption straight from
// the store. It never installs a mapping; only LoadUserVotes and the sign-in
// handler do that, so a cast racing a sign-out cannot re-create an entry the
// sign-out handler already cleared. Fetch errors fold to "no vote", same as
// LoadUserVotes.
func (w *Workflow) storedDirection(ctx context.Context, userID, captionID string) int {
	rows, err := w.votes.ListByUser(ctx, userID)
	if err != nil {
		log.Printf("failed to load votes for user %s: %v", userID, err)
		return 0
	}
	for _, v := range rows {
		if v.CaptionID == captionID {
			return v.Direction
		}
	}
	return 0
}

// applyConfirmed reflects a committed write into the mapping. If the identity
// signed out while the write was in flight its mapping is gone, and a stale
// result must not resurrect it.
func (w *Workflow) applyConfirmed(userID, captionID string, direction int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	m, ok := w.byUser[userID]
	if !ok {
		return
	}
	if direction == 0 {
		delete(m, captionID)
	} else {
		m[captionID] = direction
	}
}

func cloneMap(m models.VoteMap) models.VoteMap {
	out := make(models.VoteMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
