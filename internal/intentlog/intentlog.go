// Package intentlog defines the log events derived from applied intents and
// fanned out to every intent connection in a room.
package intentlog

import "github.com/google/uuid"

// Event types emitted by the pipeline and the movement machine.
const (
	EventPlayerJoin  = "player.join"
	EventPlayerLeave = "player.leave"
	EventCardMove    = "card.move"
	EventCardAdd     = "card.add"
	EventCardRemove  = "card.remove"
	EventCardDraw    = "card.draw"
	EventCardDiscard = "card.discard"
	EventCardTap     = "card.tap"
	EventCardReveal  = "card.reveal"
	EventShuffle     = "library.shuffle"
	EventDeckReset   = "deck.reset"
	EventDeckLoad    = "deck.load"
	EventMulligan    = "deck.mulligan"
	EventRoomLock    = "room.lock"
	EventRollCoin    = "roll.coin"
	EventRollDice    = "roll.dice"
)

// Event is one room-visible log line.
type Event struct {
	ID      string                 `json:"eventId"`
	Type    string                 `json:"type"`
	ActorID string                 `json:"actorId,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// New builds an event with a fresh id.
func New(eventType, actorID string, payload map[string]interface{}) Event {
	return Event{
		ID:      uuid.New().String(),
		Type:    eventType,
		ActorID: actorID,
		Payload: payload,
	}
}
