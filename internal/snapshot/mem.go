package snapshot

import (
	"context"
	"errors"
	"sync"
)

// ErrInjectedFailure is returned by a MemStore configured to fail chunk
// writes, simulating a crash between the pending write and the commit.
var ErrInjectedFailure = errors.New("injected chunk write failure")

type memRecord struct {
	doc        []byte
	hiddenMeta []byte
	chunks     [][]byte
}

// MemStore is the in-memory Store used in tests and DB-less deployments.
// It runs the same pending-then-commit protocol as the durable store.
type MemStore struct {
	mu        sync.Mutex
	committed map[string]*memRecord
	pending   map[string]*memRecord
	tokens    map[string]Tokens

	// FailChunkWriteAt makes the Nth chunk write of the next SaveRoom fail
	// (1-based), leaving pending artifacts behind. Zero disables.
	FailChunkWriteAt int
}

// NewMemStore builds an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		committed: make(map[string]*memRecord),
		pending:   make(map[string]*memRecord),
		tokens:    make(map[string]Tokens),
	}
}

// SaveRoom stages a pending record, writes chunks one by one, then promotes.
func (m *MemStore) SaveRoom(ctx context.Context, snap RoomSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Staging: pending meta first.
	rec := &memRecord{
		doc:        append([]byte(nil), snap.Doc...),
		hiddenMeta: append([]byte(nil), snap.HiddenMeta...),
	}
	m.pending[snap.RoomID] = rec

	// Committing: chunk writes.
	for i, chunk := range snap.Chunks {
		if m.FailChunkWriteAt > 0 && i+1 == m.FailChunkWriteAt {
			m.FailChunkWriteAt = 0
			return ErrInjectedFailure
		}
		rec.chunks = append(rec.chunks, append([]byte(nil), chunk...))
	}

	// Committed: promote and clear pending.
	m.committed[snap.RoomID] = rec
	delete(m.pending, snap.RoomID)
	return nil
}

// LoadRoom discards orphaned pending artifacts and returns the committed
// snapshot, or nil when none exists.
func (m *MemStore) LoadRoom(ctx context.Context, roomID string) (*RoomSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.pending, roomID)

	rec, ok := m.committed[roomID]
	if !ok {
		return nil, nil
	}
	snap := &RoomSnapshot{
		RoomID:     roomID,
		Doc:        append([]byte(nil), rec.doc...),
		HiddenMeta: append([]byte(nil), rec.hiddenMeta...),
	}
	for _, chunk := range rec.chunks {
		snap.Chunks = append(snap.Chunks, append([]byte(nil), chunk...))
	}
	return snap, nil
}

// SaveTokens stores the room's tokens.
func (m *MemStore) SaveTokens(ctx context.Context, roomID string, tokens Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[roomID] = tokens
	return nil
}

// LoadTokens returns the room's tokens, or nil when none were saved.
func (m *MemStore) LoadTokens(ctx context.Context, roomID string) (*Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[roomID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// HasPending reports whether orphaned pending artifacts exist for a room.
func (m *MemStore) HasPending(roomID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[roomID]
	return ok
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() {}
