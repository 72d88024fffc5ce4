package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	statePending   = "pending"
	stateCommitted = "committed"
)

// PGStore is the Postgres-backed Store.
type PGStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPGStore ensures the schema exists and returns the store.
func NewPGStore(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) (*PGStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PGStore{pool: pool, logger: logger}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure snapshot schema: %w", err)
	}
	return s, nil
}

func (s *PGStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS room_snapshots (
			room_id     TEXT NOT NULL,
			state       TEXT NOT NULL,
			doc         BYTEA NOT NULL,
			hidden_meta BYTEA NOT NULL,
			chunk_count INT NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (room_id, state)
		)`,
		`CREATE TABLE IF NOT EXISTS room_chunks (
			room_id TEXT NOT NULL,
			state   TEXT NOT NULL,
			idx     INT NOT NULL,
			data    BYTEA NOT NULL,
			PRIMARY KEY (room_id, state, idx)
		)`,
		`CREATE TABLE IF NOT EXISTS room_tokens (
			room_id TEXT PRIMARY KEY,
			data    BYTEA NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveRoom writes the pending meta, then every chunk, then promotes pending
// to committed in one transaction. A crash at any point leaves either the
// previous committed snapshot intact or pending rows that LoadRoom discards.
func (s *PGStore) SaveRoom(ctx context.Context, snap RoomSnapshot) error {
	// Clear any stale pending artifacts from an earlier failed save.
	if err := s.deleteState(ctx, snap.RoomID, statePending); err != nil {
		return fmt.Errorf("clear stale pending: %w", err)
	}

	// Staging: pending meta first.
	_, err := s.pool.Exec(ctx,
		`INSERT INTO room_snapshots (room_id, state, doc, hidden_meta, chunk_count)
		 VALUES ($1, $2, $3, $4, $5)`,
		snap.RoomID, statePending, snap.Doc, snap.HiddenMeta, len(snap.Chunks))
	if err != nil {
		return fmt.Errorf("write pending meta: %w", err)
	}

	// Committing: each chunk stays below the per-key ceiling by contract.
	for i, chunk := range snap.Chunks {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO room_chunks (room_id, state, idx, data) VALUES ($1, $2, $3, $4)`,
			snap.RoomID, statePending, i, chunk)
		if err != nil {
			return fmt.Errorf("write chunk %d: %w", i, err)
		}
	}

	// Committed: promote atomically.
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin promote: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM room_snapshots WHERE room_id = $1 AND state = $2`,
		snap.RoomID, stateCommitted); err != nil {
		return fmt.Errorf("drop old committed meta: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM room_chunks WHERE room_id = $1 AND state = $2`,
		snap.RoomID, stateCommitted); err != nil {
		return fmt.Errorf("drop old committed chunks: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE room_snapshots SET state = $1, updated_at = now() WHERE room_id = $2 AND state = $3`,
		stateCommitted, snap.RoomID, statePending); err != nil {
		return fmt.Errorf("promote meta: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE room_chunks SET state = $1 WHERE room_id = $2 AND state = $3`,
		stateCommitted, snap.RoomID, statePending); err != nil {
		return fmt.Errorf("promote chunks: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit promote: %w", err)
	}
	return nil
}

// LoadRoom cleans up orphaned pending rows and returns the last committed
// snapshot, or nil when the room was never persisted.
func (s *PGStore) LoadRoom(ctx context.Context, roomID string) (*RoomSnapshot, error) {
	if err := s.deleteState(ctx, roomID, statePending); err != nil {
		s.logger.Warn("failed to clean pending snapshot artifacts",
			zap.String("room_id", roomID),
			zap.Error(err),
		)
	}

	snap := &RoomSnapshot{RoomID: roomID}
	var chunkCount int
	err := s.pool.QueryRow(ctx,
		`SELECT doc, hidden_meta, chunk_count FROM room_snapshots WHERE room_id = $1 AND state = $2`,
		roomID, stateCommitted).Scan(&snap.Doc, &snap.HiddenMeta, &chunkCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load committed meta: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT data FROM room_chunks WHERE room_id = $1 AND state = $2 ORDER BY idx`,
		roomID, stateCommitted)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		snap.Chunks = append(snap.Chunks, data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	if len(snap.Chunks) != chunkCount {
		return nil, fmt.Errorf("snapshot for room %s has %d chunks, expected %d",
			roomID, len(snap.Chunks), chunkCount)
	}
	return snap, nil
}

func (s *PGStore) deleteState(ctx context.Context, roomID, state string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM room_chunks WHERE room_id = $1 AND state = $2`, roomID, state); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM room_snapshots WHERE room_id = $1 AND state = $2`, roomID, state)
	return err
}

// SaveTokens upserts the room's tokens.
func (s *PGStore) SaveTokens(ctx context.Context, roomID string, tokens Tokens) error {
	data, err := encodeTokens(tokens)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO room_tokens (room_id, data) VALUES ($1, $2)
		 ON CONFLICT (room_id) DO UPDATE SET data = EXCLUDED.data`,
		roomID, data)
	if err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}
	return nil
}

// LoadTokens returns the room's tokens, or nil when none were saved.
func (s *PGStore) LoadTokens(ctx context.Context, roomID string) (*Tokens, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM room_tokens WHERE room_id = $1`, roomID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load tokens: %w", err)
	}
	return decodeTokens(data)
}

// Close releases the connection pool.
func (s *PGStore) Close() {
	s.pool.Close()
}
