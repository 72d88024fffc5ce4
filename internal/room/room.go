// Package room hosts the per-room actor: one goroutine owns the replicated
// document and hidden state, serializes every intent, and drives the overlay
// broadcast and persistence follow-ups.
package room

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hansy/snapstack-sub000/internal/config"
	"github.com/hansy/snapstack-sub000/internal/document"
	"github.com/hansy/snapstack-sub000/internal/hidden"
	"github.com/hansy/snapstack-sub000/internal/intent"
	"github.com/hansy/snapstack-sub000/internal/intentlog"
	"github.com/hansy/snapstack-sub000/internal/overlay"
	"github.com/hansy/snapstack-sub000/internal/snapshot"
)

// Sender delivers frames to one connection. Implementations queue writes on
// their own pump; Send never blocks the room actor for long.
type Sender interface {
	Send(messageType string, payload interface{}) error
}

// Conn is one registered connection's room-side state.
type Conn struct {
	ID         string
	ViewerID   string
	Role       overlay.Role
	LibraryTop int

	tracker *overlay.Tracker
	sender  Sender
}

// Ack is the single reply every submitted intent receives.
type Ack struct {
	IntentID string `json:"intentId"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

// Room is the authoritative actor for one game room.
type Room struct {
	ID string

	logger   *zap.Logger
	store    snapshot.Store
	pipeline *intent.Pipeline
	cfg      config.PersistenceConfig

	doc    *document.Doc
	hid    *hidden.State
	tokens snapshot.Tokens

	conns   map[string]*Conn
	mailbox chan func()
	done    chan struct{}

	// mu guards closed and the mailbox send so a connection racing Close
	// gets a refusal instead of a send on a closed channel.
	mu     sync.Mutex
	closed bool

	// persistCh feeds the single persistence worker. One writer per room
	// keeps the store's multi-statement save protocol free of interleaving;
	// a queued snapshot that has been superseded is dropped, never reordered.
	persistCh   chan snapshot.RoomSnapshot
	persistDone chan struct{}
}

// Load restores a room from the store, or creates it fresh, and starts its
// actor goroutine.
func Load(ctx context.Context, roomID string, roomCfg config.RoomConfig, store snapshot.Store, cfg config.PersistenceConfig, logger *zap.Logger) (*Room, error) {
	mailboxSize := roomCfg.MailboxSize
	if mailboxSize <= 0 {
		mailboxSize = 256
	}
	r := &Room{
		ID:          roomID,
		logger:      logger.With(zap.String("room_id", roomID)),
		store:       store,
		pipeline:    intent.NewPipeline(logger),
		cfg:         cfg,
		conns:       make(map[string]*Conn),
		mailbox:     make(chan func(), mailboxSize),
		done:        make(chan struct{}),
		persistCh:   make(chan snapshot.RoomSnapshot, 1),
		persistDone: make(chan struct{}),
		tokens:      snapshot.Tokens{PlayerTokens: make(map[string]string)},
	}

	snap, err := store.LoadRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", roomID, err)
	}
	if snap == nil {
		r.doc = document.NewDoc(roomID, roomCfg.MaxPlayers)
		r.hid = hidden.NewState()
	} else {
		doc := document.NewDoc(roomID, roomCfg.MaxPlayers)
		if err := json.Unmarshal(snap.Doc, doc); err != nil {
			return nil, fmt.Errorf("decode document for room %s: %w", roomID, err)
		}
		hid, err := hidden.UnmarshalState(snap.HiddenMeta, snap.Chunks)
		if err != nil {
			return nil, fmt.Errorf("decode hidden state for room %s: %w", roomID, err)
		}
		r.doc = doc
		r.hid = hid
		// Legacy rooms persisted everything publicly; split them once.
		r.hid.MigrateFromPublic(r.doc)
	}

	if tokens, err := store.LoadTokens(ctx, roomID); err != nil {
		r.logger.Warn("failed to load room tokens", zap.Error(err))
	} else if tokens != nil {
		r.tokens = *tokens
	}

	go r.run()
	go r.persistWorker()
	return r, nil
}

func (r *Room) run() {
	for fn := range r.mailbox {
		fn()
	}
	close(r.done)
}

// do runs fn on the actor goroutine and waits for it. It reports false,
// without running fn, when the room has been closed; late callers from
// still-draining websocket read loops must not reach the mailbox.
func (r *Room) do(fn func()) bool {
	doneCh := make(chan struct{})
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false
	}
	r.mailbox <- func() {
		fn()
		close(doneCh)
	}
	r.mu.Unlock()
	<-doneCh
	return true
}

// Close flushes a final snapshot through the persistence worker, then stops
// the actor and the worker. Safe to call more than once.
func (r *Room) Close() {
	r.do(func() {
		r.persistAsync()
	})

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	close(r.mailbox)
	<-r.done
	close(r.persistCh)
	<-r.persistDone
}

// Submit applies one intent and returns its ack. Intents from all
// connections funnel through the actor mailbox, so application is serialized
// and acks per connection stay in submission order.
func (r *Room) Submit(connID string, in intent.Intent) Ack {
	ack := Ack{IntentID: in.ID, OK: false, Error: "room is closed"}
	r.do(func() {
		ack = r.applyLocked(connID, in)
	})
	return ack
}

func (r *Room) applyLocked(connID string, in intent.Intent) Ack {
	out := r.pipeline.Apply(r.doc, r.hid, in)
	ack := Ack{IntentID: in.ID, OK: out.OK, Error: out.Error}
	if !out.OK {
		return ack
	}

	r.broadcastEvents(out.Events)

	rebuildAll := out.HiddenChanged
	if in.Type == intent.TypeLibraryView {
		r.applyLibraryView(connID, in)
	}
	if rebuildAll {
		r.broadcastOverlays()
		r.persistAsync()
	}
	return ack
}

// applyLibraryView records the requesting connection's top-N window and
// refreshes just that connection's overlay.
func (r *Room) applyLibraryView(connID string, in intent.Intent) {
	var pl struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(in.Payload, &pl); err != nil {
		return
	}
	conn, ok := r.conns[connID]
	if !ok {
		return
	}
	conn.LibraryTop = pl.Count
	r.sendOverlay(conn)
}

func (r *Room) broadcastEvents(events []intentlog.Event) {
	for _, ev := range events {
		for _, conn := range r.conns {
			if err := conn.sender.Send("logEvent", ev); err != nil {
				r.logger.Debug("log event send failed",
					zap.String("conn_id", conn.ID),
					zap.Error(err),
				)
			}
		}
	}
}

func (r *Room) broadcastOverlays() {
	for _, conn := range r.conns {
		r.sendOverlay(conn)
	}
}

// sendOverlay rebuilds one connection's overlay and ships either a diff or a
// full snapshot. Errors are swallowed: one broken connection must never
// stall the room.
func (r *Room) sendOverlay(conn *Conn) {
	snap := overlay.Build(r.doc, r.hid, overlay.Viewer{
		ID:         conn.ViewerID,
		Role:       conn.Role,
		LibraryTop: conn.LibraryTop,
	})
	msg, err := conn.tracker.Advance(snap)
	if err != nil {
		r.logger.Warn("overlay build failed",
			zap.String("conn_id", conn.ID),
			zap.Error(err),
		)
		return
	}
	var sendErr error
	if msg.Snapshot != nil {
		sendErr = conn.sender.Send(overlay.MessageTypeSnapshot, msg.Snapshot)
	} else {
		sendErr = conn.sender.Send(overlay.MessageTypeDiff, msg.Diff)
	}
	if sendErr != nil {
		r.logger.Debug("overlay send failed",
			zap.String("conn_id", conn.ID),
			zap.Error(sendErr),
		)
	}
}

// persistAsync serializes the room under the actor and hands the snapshot to
// the persistence worker. The actor is the only producer, so when the queue
// slot is taken the queued snapshot is older and can be dropped in favor of
// this one; the worker then never runs two saves concurrently and never
// writes snapshots out of order.
func (r *Room) persistAsync() {
	snap, err := r.buildSnapshotLocked()
	if err != nil {
		r.logger.Error("failed to serialize room snapshot", zap.Error(err))
		return
	}
	select {
	case r.persistCh <- snap:
	default:
		select {
		case <-r.persistCh:
		default:
		}
		r.persistCh <- snap
	}
}

// persistWorker is the room's single storage writer. Write failures are
// logged and swallowed; in-memory state stays authoritative until the next
// successful persist.
func (r *Room) persistWorker() {
	for snap := range r.persistCh {
		if err := r.store.SaveRoom(context.Background(), snap); err != nil {
			r.logger.Error("failed to persist room snapshot", zap.Error(err))
		}
	}
	close(r.persistDone)
}

func (r *Room) buildSnapshotLocked() (snapshot.RoomSnapshot, error) {
	docBytes, err := json.Marshal(r.doc)
	if err != nil {
		return snapshot.RoomSnapshot{}, fmt.Errorf("marshal document: %w", err)
	}
	metaBytes, err := r.hid.MarshalMeta()
	if err != nil {
		return snapshot.RoomSnapshot{}, fmt.Errorf("marshal hidden meta: %w", err)
	}
	limit := r.cfg.ChunkLimitBytes
	if limit <= 0 {
		limit = 120000
	}
	chunks, err := r.hid.ChunkCards(limit)
	if err != nil {
		return snapshot.RoomSnapshot{}, fmt.Errorf("chunk hidden cards: %w", err)
	}
	snap := snapshot.RoomSnapshot{
		RoomID:     r.ID,
		Doc:        docBytes,
		HiddenMeta: metaBytes,
	}
	for _, chunk := range chunks {
		data, err := hidden.MarshalChunk(chunk)
		if err != nil {
			return snapshot.RoomSnapshot{}, fmt.Errorf("marshal chunk %d: %w", chunk.Index, err)
		}
		snap.Chunks = append(snap.Chunks, data)
	}
	return snap, nil
}

// Register adds a connection and sends its initial overlay snapshot.
func (r *Room) Register(connID, viewerID string, role overlay.Role, sender Sender) {
	r.do(func() {
		conn := &Conn{
			ID:       connID,
			ViewerID: viewerID,
			Role:     role,
			tracker: overlay.NewTracker(r.ID, viewerID,
				r.cfg.DiffMaxBytes, r.cfg.DiffMaxFraction),
			sender: sender,
		}
		r.conns[connID] = conn
		r.sendOverlay(conn)
	})
}

// Unregister drops a connection. Safe to call for unknown ids.
func (r *Room) Unregister(connID string) {
	r.do(func() {
		delete(r.conns, connID)
	})
}
