// Package server exposes the websocket surface: token issuance over HTTP and
// one socket per viewer carrying intents in and acks, log events, and private
// overlays out.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hansy/snapstack-sub000/internal/config"
	"github.com/hansy/snapstack-sub000/internal/room"
)

// Server serves websocket sessions for rooms.
type Server struct {
	cfg    *config.Config
	rooms  *room.Manager
	logger *zap.Logger

	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

func New(cfg *config.Config, rooms *room.Manager, logger *zap.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		rooms:  rooms,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Token possession is the access check; origin allowlisting is
			// left to the deployment's proxy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/tokens/player", s.handlePlayerToken)
	mux.HandleFunc("/tokens/spectator", s.handleSpectatorToken)
	mux.HandleFunc("/ws", s.handleWS)

	s.httpSrv = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // websocket writes manage their own deadlines
	}
	return s
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("websocket server listening", zap.String("address", s.cfg.Server.Address))
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handlePlayerToken mints (or returns) the reconnect token for one player in
// one room.
func (s *Server) handlePlayerToken(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	playerID := r.URL.Query().Get("player")
	if roomID == "" || playerID == "" {
		http.Error(w, "room and player are required", http.StatusBadRequest)
		return
	}

	rm, err := s.rooms.GetOrCreate(r.Context(), roomID)
	if err != nil {
		s.logger.Error("failed to load room for token issuance",
			zap.String("room_id", roomID),
			zap.Error(err),
		)
		http.Error(w, "failed to load room", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{
		"roomId":   roomID,
		"playerId": playerID,
		"token":    rm.PlayerToken(r.Context(), playerID),
	})
}

func (s *Server) handleSpectatorToken(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		http.Error(w, "room is required", http.StatusBadRequest)
		return
	}

	rm, err := s.rooms.GetOrCreate(r.Context(), roomID)
	if err != nil {
		s.logger.Error("failed to load room for token issuance",
			zap.String("room_id", roomID),
			zap.Error(err),
		)
		http.Error(w, "failed to load room", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{
		"roomId": roomID,
		"token":  rm.SpectatorToken(r.Context()),
	})
}

// handleWS authenticates the token, upgrades, and registers the connection.
// A socket that dies before registration leaves no trace in the room.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	token := r.URL.Query().Get("token")
	if roomID == "" || token == "" {
		http.Error(w, "room and token are required", http.StatusBadRequest)
		return
	}

	rm, err := s.rooms.GetOrCreate(r.Context(), roomID)
	if err != nil {
		s.logger.Error("failed to load room",
			zap.String("room_id", roomID),
			zap.Error(err),
		)
		http.Error(w, "failed to load room", http.StatusInternalServerError)
		return
	}

	viewerID, role, ok := rm.ResolveToken(token)
	if !ok {
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	connID := uuid.New().String()
	c := newConn(connID, ws, rm, s.cfg.Server.WriteTimeout, s.logger)

	s.logger.Info("viewer connected",
		zap.String("room_id", roomID),
		zap.String("conn_id", connID),
		zap.String("viewer_id", viewerID),
		zap.String("role", string(role)),
	)

	go c.writePump()
	rm.Register(connID, viewerID, role, c)

	c.readLoop(s.cfg.Server.MaxMessageBytes)

	rm.Unregister(connID)
	s.logger.Info("viewer disconnected",
		zap.String("room_id", roomID),
		zap.String("conn_id", connID),
	)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
