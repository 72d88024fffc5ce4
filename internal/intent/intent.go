// Package intent implements the command pipeline: every externally submitted
// action is validated, permission-checked and applied here, atomically, by
// the room actor that owns the document and hidden state.
package intent

import (
	"encoding/json"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/hansy/snapstack-sub000/internal/document"
	"github.com/hansy/snapstack-sub000/internal/hidden"
	"github.com/hansy/snapstack-sub000/internal/intentlog"
)

// Intent kinds. Dispatch is a sealed switch over these; an unknown kind is
// rejected before any mutation.
const (
	TypePlayerJoin   = "player.join"
	TypePlayerUpdate = "player.update"
	TypePlayerLeave  = "player.leave"

	TypeZoneAdd     = "zone.add"
	TypeZoneReorder = "zone.reorder"

	TypeCardAdd       = "card.add"
	TypeCardRemove    = "card.remove"
	TypeCardUpdate    = "card.update"
	TypeCardTap       = "card.tap"
	TypeCardDuplicate = "card.duplicate"
	TypeCardTransform = "card.transform"
	TypeCardMove      = "card.move"
	TypeCardReveal    = "card.reveal"

	TypeCounterAdjust = "counter.adjust"

	TypeLibraryDraw    = "library.draw"
	TypeLibraryDiscard = "library.discard"
	TypeLibraryShuffle = "library.shuffle"
	TypeLibraryView    = "library.view"

	TypeDeckLoad     = "deck.load"
	TypeDeckReset    = "deck.reset"
	TypeDeckUnload   = "deck.unload"
	TypeDeckMulligan = "deck.mulligan"

	TypeRoomLock       = "room.lock"
	TypeRoomScale      = "room.scale"
	TypeRoomCounterAdd = "room.counter.add"

	TypeRollCoin = "roll.coin"
	TypeRollDice = "roll.dice"
)

// Intent is one client-submitted command.
type Intent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	ActorID string          `json:"actorId"`
	Payload json.RawMessage `json:"payload"`
}

// Outcome is the result of applying one intent. A rejected intent has OK
// false and a client-facing Error; nothing was mutated.
type Outcome struct {
	OK            bool
	Error         string
	Events        []intentlog.Event
	HiddenChanged bool
}

// Pipeline applies intents. One pipeline per room, used only by the room's
// owning goroutine.
type Pipeline struct {
	logger *zap.Logger
	rng    *rand.Rand
}

// NewPipeline builds a pipeline for one room.
func NewPipeline(logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SeedRand makes shuffle and roll results reproducible, for tests.
func (p *Pipeline) SeedRand(seed int64) {
	p.rng = rand.New(rand.NewSource(seed))
}

// Ctx carries one intent's staged state through its handler. Handlers mutate
// Doc and Hidden freely; the pipeline commits both only on success.
type Ctx struct {
	Doc    *document.Doc
	Hidden *hidden.State
	Intent Intent

	rng           *rand.Rand
	events        []intentlog.Event
	hiddenChanged bool
}

// Emit appends a log event to broadcast after the intent commits.
func (c *Ctx) Emit(e intentlog.Event) {
	c.events = append(c.events, e)
}

// MarkHiddenChanged flags that the hidden state was touched, telling the
// room to rebuild overlays and re-persist.
func (c *Ctx) MarkHiddenChanged() {
	c.hiddenChanged = true
}

func (c *Ctx) decode(v interface{}) error {
	if len(c.Intent.Payload) == 0 {
		return reject("malformed payload")
	}
	if err := json.Unmarshal(c.Intent.Payload, v); err != nil {
		return reject("malformed payload")
	}
	return nil
}

// rejection is a client-facing refusal, not an infrastructure failure.
type rejection struct{ reason string }

func (r rejection) Error() string { return r.reason }

func reject(reason string) error { return rejection{reason: reason} }

// Apply validates and dispatches one intent. All mutation happens on staged
// clones that replace the live state only when the handler succeeds, so a
// partially applied intent is never observable.
func (p *Pipeline) Apply(doc *document.Doc, hid *hidden.State, in Intent) Outcome {
	if in.ID == "" || in.Type == "" || in.ActorID == "" {
		return Outcome{Error: "malformed intent"}
	}

	ctx := &Ctx{
		Doc:    doc.Clone(),
		Hidden: hid.Clone(),
		Intent: in,
		rng:    p.rng,
	}

	if err := p.dispatch(ctx); err != nil {
		p.logger.Debug("intent rejected",
			zap.String("intent_id", in.ID),
			zap.String("intent_type", in.Type),
			zap.String("actor_id", in.ActorID),
			zap.String("reason", err.Error()),
		)
		return Outcome{Error: err.Error()}
	}

	*doc = *ctx.Doc
	*hid = *ctx.Hidden

	p.logger.Debug("intent applied",
		zap.String("intent_id", in.ID),
		zap.String("intent_type", in.Type),
		zap.String("actor_id", in.ActorID),
		zap.Bool("hidden_changed", ctx.hiddenChanged),
	)

	return Outcome{OK: true, Events: ctx.events, HiddenChanged: ctx.hiddenChanged}
}

func (p *Pipeline) dispatch(ctx *Ctx) error {
	switch ctx.Intent.Type {
	case TypePlayerJoin:
		return handlePlayerJoin(ctx)
	case TypePlayerUpdate:
		return handlePlayerUpdate(ctx)
	case TypePlayerLeave:
		return handlePlayerLeave(ctx)
	case TypeZoneAdd:
		return handleZoneAdd(ctx)
	case TypeZoneReorder:
		return handleZoneReorder(ctx)
	case TypeCardAdd:
		return handleCardAdd(ctx)
	case TypeCardRemove:
		return handleCardRemove(ctx)
	case TypeCardUpdate:
		return handleCardUpdate(ctx)
	case TypeCardTap:
		return handleCardTap(ctx)
	case TypeCardDuplicate:
		return handleCardDuplicate(ctx)
	case TypeCardTransform:
		return handleCardTransform(ctx)
	case TypeCardMove:
		return handleCardMove(ctx)
	case TypeCardReveal:
		return handleCardReveal(ctx)
	case TypeCounterAdjust:
		return handleCounterAdjust(ctx)
	case TypeLibraryDraw:
		return handleLibraryDraw(ctx)
	case TypeLibraryDiscard:
		return handleLibraryDiscard(ctx)
	case TypeLibraryShuffle:
		return handleLibraryShuffle(ctx)
	case TypeLibraryView:
		return handleLibraryView(ctx)
	case TypeDeckLoad:
		return handleDeckLoad(ctx)
	case TypeDeckReset:
		return handleDeckReset(ctx)
	case TypeDeckUnload:
		return handleDeckUnload(ctx)
	case TypeDeckMulligan:
		return handleDeckMulligan(ctx)
	case TypeRoomLock:
		return handleRoomLock(ctx)
	case TypeRoomScale:
		return handleRoomScale(ctx)
	case TypeRoomCounterAdd:
		return handleRoomCounterAdd(ctx)
	case TypeRollCoin:
		return handleRollCoin(ctx)
	case TypeRollDice:
		return handleRollDice(ctx)
	default:
		return reject("unknown intent type")
	}
}

// requireActor enforces that identity-sensitive actions are performed by the
// player they act upon. Distinct from a permission denial.
func (c *Ctx) requireActor(playerID string) error {
	if c.Intent.ActorID != playerID {
		return reject("actor mismatch")
	}
	return nil
}

// findCard looks a card up across both partitions.
func (c *Ctx) findCard(cardID string) (*document.Card, bool, error) {
	if card, ok := c.Doc.Card(cardID); ok {
		return card, false, nil
	}
	if card, ok := c.Hidden.Cards[cardID]; ok {
		return card, true, nil
	}
	return nil, false, reject("card not found")
}

func (c *Ctx) zone(zoneID string) (*document.Zone, error) {
	z, ok := c.Doc.Zone(zoneID)
	if !ok {
		return nil, reject("zone not found")
	}
	return z, nil
}

func (c *Ctx) player(playerID string) (*document.Player, error) {
	p, ok := c.Doc.Player(playerID)
	if !ok {
		return nil, reject("player not found")
	}
	return p, nil
}
