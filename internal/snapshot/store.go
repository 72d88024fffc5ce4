// Package snapshot persists room state durably: the replicated document
// blob, hidden-state metadata and size-bounded card chunks, written with a
// pending-then-commit two-phase protocol so a crash mid-write can never
// corrupt or half-apply a snapshot.
package snapshot

import "context"

// RoomSnapshot is one durable copy of a room's state. Chunks are the
// serialized hidden-card map split under the backend's per-key ceiling.
type RoomSnapshot struct {
	RoomID     string
	Doc        []byte
	HiddenMeta []byte
	Chunks     [][]byte
}

// Tokens are the room's access tokens, generated on first need.
type Tokens struct {
	PlayerTokens   map[string]string `json:"playerTokens"`
	SpectatorToken string            `json:"spectatorToken"`
}

// Store persists room snapshots and tokens.
//
// SaveRoom must be two-phase: stage a pending snapshot, write every chunk,
// and only then promote it to committed. Callers must not run two SaveRoom
// calls for the same room concurrently; the room's persistence worker is the
// single writer. LoadRoom must discard any orphaned pending artifacts and
// return the last committed snapshot, or nil when the room has never been
// persisted.
type Store interface {
	SaveRoom(ctx context.Context, snap RoomSnapshot) error
	LoadRoom(ctx context.Context, roomID string) (*RoomSnapshot, error)
	SaveTokens(ctx context.Context, roomID string, tokens Tokens) error
	LoadTokens(ctx context.Context, roomID string) (*Tokens, error)
	Close()
}
