package domain

import "context"

// SessionStore is the Session Memory component (spec §4.L): a bounded
// per-conversation FIFO of turns, keyed by an opaque session id the server
// mints on first use.
type SessionStore interface {
	// NewSession mints a fresh session id with no turns.
	NewSession(ctx context.Context) (string, error)

	// Append records one turn, evicting the oldest turn(s) if the bound on
	// turn count is exceeded. Appending to an unknown session id creates it.
	Append(ctx context.Context, sessionID, role, content string) error

	// History returns up to maxTurns of the most recent turns still within
	// the session's age bound, oldest first.
	History(ctx context.Context, sessionID string, maxTurns int) ([]Turn, error)
}
