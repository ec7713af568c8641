package votes

import "errors"

var (
	// ErrNotSignedIn is returned when a mutation is attempted without an
	// identity; nothing is written.
	ErrNotSignedIn = errors.New("votes: not signed in")

	// ErrVoteInFlight refuses a second cast for the same (identity, caption)
	// while one is still settling.
	ErrVoteInFlight = errors.New("votes: vote already in flight for this caption")

	ErrBadDirection = errors.New("votes: direction must be +1 or -1")

	// ErrCaptionNotFound refuses a cast for a caption id with no row behind
	// it; nothing is written.
	ErrCaptionNotFound = errors.New("votes: caption not found")
)
