// Package movement resolves a single card's transition between two zones,
// producing the public-document mutation, the hidden-state mutation and the
// derived log events. Permission is the caller's responsibility; failures
// here are structural only.
package movement

import (
	"errors"

	"github.com/hansy/snapstack-sub000/internal/cardops"
	"github.com/hansy/snapstack-sub000/internal/document"
	"github.com/hansy/snapstack-sub000/internal/hidden"
	"github.com/hansy/snapstack-sub000/internal/intentlog"
	"github.com/hansy/snapstack-sub000/internal/position"
)

// Structural failures. Anything else the machine can express as a no-op move.
var (
	ErrCardNotFound = errors.New("card not found")
	ErrZoneNotFound = errors.New("zone not found")
	ErrInvalidMove  = errors.New("invalid move")
)

// LogMode selects which event a move derives. Batch draw/discard helpers
// invoke the machine once per card with the semantic mode so the log carries
// draws and discards instead of raw moves.
type LogMode int

const (
	LogMove LogMode = iota
	LogDraw
	LogDiscard

	// LogNone suppresses the per-card event entirely; the caller logs one
	// aggregate event for the whole batch.
	LogNone
)

// Request describes one card transition.
type Request struct {
	ActorID  string
	CardID   string
	ToZoneID string

	// Position is an explicit battlefield drop point; nil means keep the
	// card's current position (battlefield origin) or the default drop
	// point, collision-resolved either way unless SkipCollision is set.
	Position      *position.Point
	SkipCollision bool

	Placement document.Placement
	Index     int // -1 for placement-driven insertion

	// FaceDown overrides the default face-down resolution when non-nil.
	FaceDown     *bool
	FaceDownMode document.FaceDownMode

	LogMode LogMode
}

// Result reports what the move did.
type Result struct {
	Events        []intentlog.Event
	HiddenChanged bool
	TokenDeleted  bool
}

var defaultDropPoint = position.Point{X: 0.5, Y: 0.5}

// Move applies one zone transition against the document and hidden state.
// The caller holds the room's transaction; on error nothing has mutated.
func Move(doc *document.Doc, hid *hidden.State, req Request) (Result, error) {
	var res Result

	card, inHidden := findCard(doc, hid, req.CardID)
	if card == nil {
		return res, ErrCardNotFound
	}
	toZone, ok := doc.Zone(req.ToZoneID)
	if !ok {
		return res, ErrZoneNotFound
	}
	fromZone, ok := doc.Zone(card.ZoneID)
	if !ok {
		return res, ErrZoneNotFound
	}
	fromType := fromZone.Type.Normalize()
	toType := toZone.Type.Normalize()
	if !fromType.Valid() || !toType.Valid() {
		return res, ErrInvalidMove
	}
	if inHidden != fromType.Hidden() {
		// Partition invariant violated upstream; refuse to make it worse.
		return res, ErrInvalidMove
	}

	trueName := card.Name
	if ident, ok := hid.FaceDownBattlefield[card.ID]; ok {
		trueName = ident.Name
	}

	controller := resolveController(card, fromType, toType, fromZone, toZone)
	faceDown := resolveFaceDown(card, req, fromType, toType)

	// Tokens cease to exist outside a battlefield.
	if card.IsToken && fromType == document.ZoneBattlefield && toType != document.ZoneBattlefield {
		fromZone.RemoveCard(card.ID)
		delete(doc.Cards, card.ID)
		if _, ok := hid.FaceDownBattlefield[card.ID]; ok {
			delete(hid.FaceDownBattlefield, card.ID)
			res.HiddenChanged = true
		}
		if hid.HasRevealsFor(card.ID) {
			hid.ClearCardReveals(doc, card.ID)
			res.HiddenChanged = true
		}
		res.TokenDeleted = true
		res.Events = append(res.Events, intentlog.New(intentlog.EventCardRemove, req.ActorID, map[string]interface{}{
			"cardId":   card.ID,
			"cardName": trueName,
			"token":    true,
		}))
		return res, nil
	}

	// Remove from source.
	if inHidden {
		hid.RemoveOrder(fromType, fromZone.OwnerID, card.ID)
		res.HiddenChanged = true
	} else {
		fromZone.RemoveCard(card.ID)
	}

	// Leaving a battlefield resets the card to its front face, restoring a
	// face-down identity first.
	if fromType == document.ZoneBattlefield && toType != document.ZoneBattlefield {
		if ident, ok := hid.FaceDownBattlefield[card.ID]; ok {
			cardops.RestoreIdentity(card, ident)
			delete(hid.FaceDownBattlefield, card.ID)
			res.HiddenChanged = true
		}
		cardops.ResetToFrontFace(card)
	}

	// Reveal grants do not follow a card across zones.
	if hid.HasRevealsFor(card.ID) {
		hid.ClearCardReveals(doc, card.ID)
		res.HiddenChanged = true
	}

	applyVisibilityPatch(card, toType, faceDown)

	card.ZoneID = toZone.ID
	card.ControllerID = controller
	card.FaceDown = faceDown
	if faceDown {
		card.FaceDownMode = req.FaceDownMode
	} else {
		card.FaceDownMode = document.FaceDownModeNone
	}

	// Insert into destination.
	if toType.Hidden() {
		if !inHidden {
			delete(doc.Cards, card.ID)
			hid.Cards[card.ID] = card
		}
		hid.InsertOrder(toType, toZone.OwnerID, card.ID, req.Placement, req.Index)
		res.HiddenChanged = true
	} else {
		if inHidden {
			delete(hid.Cards, card.ID)
			doc.Cards[card.ID] = card
		}
		if toType == document.ZoneBattlefield {
			toZone.InsertCard(card.ID, document.PlacementBottom, -1)
			placeOnBattlefield(doc, toZone, card, req)
			if faceDown {
				// Already face down means the identity is stored and the
				// public record is stripped; snapshotting again would
				// clobber the stored identity with blanks.
				if _, ok := hid.FaceDownBattlefield[card.ID]; !ok {
					hid.FaceDownBattlefield[card.ID] = cardops.IdentitySnapshot(card)
					cardops.StripIdentity(card)
				}
				res.HiddenChanged = true
			}
		} else {
			toZone.InsertCard(card.ID, req.Placement, req.Index)
		}
	}

	hid.UpdatePlayerCounts(doc, fromZone.OwnerID)
	hid.UpdatePlayerCounts(doc, toZone.OwnerID)
	if fromType == document.ZoneLibrary {
		hid.SyncLibraryRevealsToAll(doc, fromZone.OwnerID)
	}
	if toType == document.ZoneLibrary {
		hid.SyncLibraryRevealsToAll(doc, toZone.OwnerID)
	}

	if ev, ok := buildEvent(req, trueName, fromZone, toZone, toType, faceDown); ok {
		res.Events = append(res.Events, ev)
	}
	return res, nil
}

func findCard(doc *document.Doc, hid *hidden.State, cardID string) (*document.Card, bool) {
	if c, ok := doc.Card(cardID); ok {
		return c, false
	}
	if c, ok := hid.Cards[cardID]; ok {
		return c, true
	}
	return nil, false
}

// resolveController implements the controller sub-decision: entering a
// battlefield whose owner owns the card assigns control to the owner;
// entering a differently owned battlefield hands control to its owner;
// battlefield-to-battlefield between same-owner zones leaves control
// unchanged; leaving a battlefield for any other zone resets to owner.
func resolveController(card *document.Card, fromType, toType document.ZoneType, fromZone, toZone *document.Zone) string {
	switch {
	case toType == document.ZoneBattlefield && fromType == document.ZoneBattlefield:
		if fromZone.OwnerID != toZone.OwnerID {
			return toZone.OwnerID
		}
		return card.ControllerID
	case toType == document.ZoneBattlefield:
		if toZone.OwnerID == card.OwnerID {
			return card.OwnerID
		}
		return toZone.OwnerID
	case fromType == document.ZoneBattlefield:
		return card.OwnerID
	default:
		return card.ControllerID
	}
}

// resolveFaceDown: an explicit request wins; otherwise face-down survives
// only battlefield-to-battlefield moves.
func resolveFaceDown(card *document.Card, req Request, fromType, toType document.ZoneType) bool {
	if req.FaceDown != nil {
		return *req.FaceDown
	}
	return card.FaceDown &&
		fromType == document.ZoneBattlefield &&
		toType == document.ZoneBattlefield
}

// applyVisibilityPatch implements the reveal sub-decision: a library entry or
// a face-down battlefield entry wipes public knowledge; any other public zone
// makes the card known to all; hidden zones defer to the reveal bookkeeping.
func applyVisibilityPatch(card *document.Card, toType document.ZoneType, faceDown bool) {
	switch {
	case toType == document.ZoneLibrary,
		toType == document.ZoneBattlefield && faceDown,
		toType.Hidden():
		card.KnownToAll = false
		card.RevealedToAll = false
		card.RevealedTo = nil
	default:
		card.KnownToAll = true
	}
}

func placeOnBattlefield(doc *document.Doc, toZone *document.Zone, card *document.Card, req Request) {
	want := defaultDropPoint
	if req.Position != nil {
		want = *req.Position
	} else if card.X != 0 || card.Y != 0 {
		want = position.Point{X: card.X, Y: card.Y}
	}
	if req.SkipCollision {
		want = position.ClampPoint(want)
	} else {
		occupied := make([]position.Point, 0, len(toZone.CardIDs))
		for _, id := range toZone.CardIDs {
			if id == card.ID {
				continue
			}
			if other, ok := doc.Card(id); ok {
				occupied = append(occupied, position.Point{X: other.X, Y: other.Y})
			}
		}
		want = position.Resolve(occupied, want)
	}
	card.X = want.X
	card.Y = want.Y
}

func buildEvent(req Request, trueName string, fromZone, toZone *document.Zone, toType document.ZoneType, faceDown bool) (intentlog.Event, bool) {
	destHides := toType.Hidden() || (toType == document.ZoneBattlefield && faceDown)

	switch req.LogMode {
	case LogNone:
		return intentlog.Event{}, false
	case LogDraw:
		return intentlog.New(intentlog.EventCardDraw, req.ActorID, map[string]interface{}{
			"playerId": toZone.OwnerID,
		}), true
	case LogDiscard:
		return intentlog.New(intentlog.EventCardDiscard, req.ActorID, map[string]interface{}{
			"playerId": fromZone.OwnerID,
			"cardId":   req.CardID,
			"cardName": trueName,
		}), true
	}

	payload := map[string]interface{}{
		"cardId":       req.CardID,
		"fromZoneId":   fromZone.ID,
		"toZoneId":     toZone.ID,
		"fromZoneType": string(fromZone.Type.Normalize()),
		"toZoneType":   string(toType),
		"cardName":     trueName,
	}
	if destHides {
		payload["cardName"] = cardops.RedactedName
		payload["forceHidden"] = true
	}
	return intentlog.New(intentlog.EventCardMove, req.ActorID, payload), true
}
