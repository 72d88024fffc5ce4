package room

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/hansy/snapstack-sub000/internal/config"
	"github.com/hansy/snapstack-sub000/internal/snapshot"
)

// Manager owns the set of live rooms and lazily loads them from the store.
type Manager struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	store  snapshot.Store
	cfg    *config.Config
	logger *zap.Logger
}

func NewManager(cfg *config.Config, store snapshot.Store, logger *zap.Logger) *Manager {
	return &Manager{
		rooms:  make(map[string]*Room),
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// GetOrCreate returns the live room, loading it from the store on first
// access. Concurrent callers for the same id share one load.
func (m *Manager) GetOrCreate(ctx context.Context, roomID string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.rooms[roomID]; ok {
		return r, nil
	}
	r, err := Load(ctx, roomID, m.cfg.Room, m.store, m.cfg.Persistence, m.logger)
	if err != nil {
		return nil, err
	}
	m.rooms[roomID] = r
	m.logger.Info("room loaded", zap.String("room_id", roomID))
	return r, nil
}

// Get returns a live room without loading.
func (m *Manager) Get(roomID string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	return r, ok
}

// CloseAll flushes and stops every live room. Used during shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.rooms = make(map[string]*Room)
	m.mu.Unlock()

	for _, r := range rooms {
		r.Close()
	}
	m.logger.Info("all rooms closed", zap.Int("count", len(rooms)))
}
