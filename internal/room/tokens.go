package room

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hansy/snapstack-sub000/internal/overlay"
)

// PlayerToken returns the reconnect token for a player, minting and
// persisting one on first use.
func (r *Room) PlayerToken(ctx context.Context, playerID string) string {
	var token string
	r.do(func() {
		token = r.tokens.PlayerTokens[playerID]
		if token == "" {
			token = uuid.New().String()
			r.tokens.PlayerTokens[playerID] = token
			r.saveTokensLocked(ctx)
		}
	})
	return token
}

// SpectatorToken returns the room's shared spectator token, minting and
// persisting one on first use.
func (r *Room) SpectatorToken(ctx context.Context) string {
	var token string
	r.do(func() {
		token = r.tokens.SpectatorToken
		if token == "" {
			token = uuid.New().String()
			r.tokens.SpectatorToken = token
			r.saveTokensLocked(ctx)
		}
	})
	return token
}

// ResolveToken maps a presented token to a viewer identity. The zero return
// means the token is unknown and the connection must be refused before any
// room state is touched.
func (r *Room) ResolveToken(token string) (viewerID string, role overlay.Role, ok bool) {
	if token == "" {
		return "", "", false
	}
	r.do(func() {
		if token == r.tokens.SpectatorToken {
			viewerID, role, ok = "", overlay.RoleSpectator, true
			return
		}
		for playerID, t := range r.tokens.PlayerTokens {
			if t == token {
				viewerID, role, ok = playerID, overlay.RolePlayer, true
				return
			}
		}
	})
	return viewerID, role, ok
}

func (r *Room) saveTokensLocked(ctx context.Context) {
	if err := r.store.SaveTokens(ctx, r.ID, r.tokens); err != nil {
		r.logger.Error("failed to persist room tokens", zap.Error(err))
	}
}
