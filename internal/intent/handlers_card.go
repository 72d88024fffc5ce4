package intent

import (
	"github.com/google/uuid"

	"github.com/hansy/snapstack-sub000/internal/cardops"
	"github.com/hansy/snapstack-sub000/internal/document"
	"github.com/hansy/snapstack-sub000/internal/hidden"
	"github.com/hansy/snapstack-sub000/internal/intentlog"
	"github.com/hansy/snapstack-sub000/internal/movement"
	"github.com/hansy/snapstack-sub000/internal/permission"
	"github.com/hansy/snapstack-sub000/internal/position"
)

const maxDuplicates = 20

type cardAddPayload struct {
	Card      document.Card      `json:"card"`
	ZoneID    string             `json:"zoneId"`
	Position  *position.Point    `json:"position,omitempty"`
	Placement document.Placement `json:"placement,omitempty"`
}

func handleCardAdd(ctx *Ctx) error {
	var pl cardAddPayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	zone, err := ctx.zone(pl.ZoneID)
	if err != nil {
		return err
	}

	card := pl.Card
	if card.ID == "" {
		card.ID = uuid.New().String()
	}
	if card.OwnerID == "" {
		card.OwnerID = ctx.Intent.ActorID
	}
	card.ControllerID = card.OwnerID
	card.ZoneID = zone.ID

	if _, _, err := ctx.findCard(card.ID); err == nil {
		return reject("card already exists")
	}

	if d := permission.CanAddCard(ctx.Intent.ActorID, &card, zone); !d.Allowed {
		return reject(d.Reason)
	}

	t := zone.Type.Normalize()
	name := card.Name
	if t.Hidden() {
		card.KnownToAll = false
		card.RevealedToAll = false
		card.RevealedTo = nil
		ctx.Hidden.Cards[card.ID] = &card
		ctx.Hidden.InsertOrder(t, zone.OwnerID, card.ID, pl.Placement, -1)
		ctx.Hidden.UpdatePlayerCounts(ctx.Doc, zone.OwnerID)
		if t == document.ZoneLibrary {
			ctx.Hidden.SyncLibraryRevealsToAll(ctx.Doc, zone.OwnerID)
		}
		ctx.MarkHiddenChanged()
	} else {
		if t != document.ZoneLibrary {
			card.KnownToAll = true
		}
		ctx.Doc.Cards[card.ID] = &card
		if t == document.ZoneBattlefield {
			zone.InsertCard(card.ID, document.PlacementBottom, -1)
			want := defaultCardPoint(pl.Position)
			card.X = want.X
			card.Y = want.Y
			resolveCardPosition(ctx.Doc, zone, &card)
		} else {
			zone.InsertCard(card.ID, pl.Placement, -1)
		}
	}

	payload := map[string]interface{}{
		"cardId":   card.ID,
		"zoneId":   zone.ID,
		"zoneType": string(t),
		"cardName": name,
	}
	if t.Hidden() {
		payload["cardName"] = cardops.RedactedName
		payload["forceHidden"] = true
	}
	ctx.Emit(intentlog.New(intentlog.EventCardAdd, ctx.Intent.ActorID, payload))
	return nil
}

func defaultCardPoint(p *position.Point) position.Point {
	if p != nil {
		return position.ClampPoint(*p)
	}
	return position.Point{X: 0.5, Y: 0.5}
}

func resolveCardPosition(doc *document.Doc, zone *document.Zone, card *document.Card) {
	occupied := make([]position.Point, 0, len(zone.CardIDs))
	for _, id := range zone.CardIDs {
		if id == card.ID {
			continue
		}
		if other, ok := doc.Card(id); ok {
			occupied = append(occupied, position.Point{X: other.X, Y: other.Y})
		}
	}
	resolved := position.Resolve(occupied, position.Point{X: card.X, Y: card.Y})
	card.X = resolved.X
	card.Y = resolved.Y
}

type cardRemovePayload struct {
	CardIDs []string `json:"cardIds"`
}

func handleCardRemove(ctx *Ctx) error {
	var pl cardRemovePayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	if len(pl.CardIDs) == 0 {
		return reject("malformed payload")
	}

	// Validate everything first; removal is all-or-nothing.
	type target struct {
		card     *document.Card
		zone     *document.Zone
		inHidden bool
	}
	targets := make([]target, 0, len(pl.CardIDs))
	for _, cardID := range pl.CardIDs {
		card, inHidden, err := ctx.findCard(cardID)
		if err != nil {
			return err
		}
		zone, err := ctx.zone(card.ZoneID)
		if err != nil {
			return err
		}
		if d := permission.CanRemoveCard(ctx.Intent.ActorID, card, zone); !d.Allowed {
			return reject(d.Reason)
		}
		targets = append(targets, target{card: card, zone: zone, inHidden: inHidden})
	}

	for _, tg := range targets {
		t := tg.zone.Type.Normalize()
		if tg.inHidden {
			delete(ctx.Hidden.Cards, tg.card.ID)
			ctx.Hidden.RemoveOrder(t, tg.zone.OwnerID, tg.card.ID)
			ctx.Hidden.UpdatePlayerCounts(ctx.Doc, tg.zone.OwnerID)
			if t == document.ZoneLibrary {
				ctx.Hidden.SyncLibraryRevealsToAll(ctx.Doc, tg.zone.OwnerID)
			}
			ctx.MarkHiddenChanged()
		} else {
			tg.zone.RemoveCard(tg.card.ID)
			delete(ctx.Doc.Cards, tg.card.ID)
			if _, ok := ctx.Hidden.FaceDownBattlefield[tg.card.ID]; ok {
				delete(ctx.Hidden.FaceDownBattlefield, tg.card.ID)
				ctx.MarkHiddenChanged()
			}
		}
		if ctx.Hidden.HasRevealsFor(tg.card.ID) {
			ctx.Hidden.ClearCardReveals(ctx.Doc, tg.card.ID)
			ctx.MarkHiddenChanged()
		}
		ctx.Emit(intentlog.New(intentlog.EventCardRemove, ctx.Intent.ActorID, map[string]interface{}{
			"cardId": tg.card.ID,
			"token":  tg.card.IsToken,
		}))
	}
	return nil
}

type cardUpdatePayload struct {
	CardID  string `json:"cardId"`
	Updates struct {
		Tapped       *bool                  `json:"tapped,omitempty"`
		Rotation     *int                   `json:"rotation,omitempty"`
		Position     *position.Point        `json:"position,omitempty"`
		FaceDown     *bool                  `json:"faceDown,omitempty"`
		FaceDownMode *document.FaceDownMode `json:"faceDownMode,omitempty"`
		Power        *string                `json:"power,omitempty"`
		Toughness    *string                `json:"toughness,omitempty"`
		FaceIndex    *int                   `json:"faceIndex,omitempty"`
	} `json:"updates"`
}

func handleCardUpdate(ctx *Ctx) error {
	var pl cardUpdatePayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	card, inHidden, err := ctx.findCard(pl.CardID)
	if err != nil {
		return err
	}
	if inHidden {
		return reject("Card is not on a battlefield")
	}
	if d := permission.CanModifyCard(ctx.Doc, ctx.Intent.ActorID, card); !d.Allowed {
		return reject(d.Reason)
	}

	u := pl.Updates
	if u.Tapped != nil {
		card.Tapped = *u.Tapped
	}
	if u.Rotation != nil {
		card.Rotation = *u.Rotation
	}
	if u.Position != nil {
		p := position.ClampPoint(*u.Position)
		card.X = p.X
		card.Y = p.Y
	}
	if u.Power != nil {
		card.Power = *u.Power
	}
	if u.Toughness != nil {
		card.Toughness = *u.Toughness
	}
	if u.FaceIndex != nil {
		card.FaceIndex = *u.FaceIndex
	}
	if u.FaceDown != nil && *u.FaceDown != card.FaceDown {
		if *u.FaceDown {
			card.FaceDown = true
			if u.FaceDownMode != nil {
				card.FaceDownMode = *u.FaceDownMode
			}
			ctx.Hidden.FaceDownBattlefield[card.ID] = cardops.IdentitySnapshot(card)
			cardops.StripIdentity(card)
		} else {
			if ident, ok := ctx.Hidden.FaceDownBattlefield[card.ID]; ok {
				cardops.RestoreIdentity(card, ident)
				delete(ctx.Hidden.FaceDownBattlefield, card.ID)
			}
			ctx.Hidden.SetFaceDownReveal(ctx.Doc, card.ID, hidden.Reveal{})
			card.FaceDown = false
			card.FaceDownMode = document.FaceDownModeNone
			card.KnownToAll = true
		}
		ctx.MarkHiddenChanged()
	}
	return nil
}

type cardTapPayload struct {
	CardIDs []string `json:"cardIds"`
	Tapped  bool     `json:"tapped"`
}

func handleCardTap(ctx *Ctx) error {
	var pl cardTapPayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	if len(pl.CardIDs) == 0 {
		return reject("malformed payload")
	}
	cards := make([]*document.Card, 0, len(pl.CardIDs))
	for _, cardID := range pl.CardIDs {
		card, inHidden, err := ctx.findCard(cardID)
		if err != nil {
			return err
		}
		if inHidden {
			return reject("Card is not on a battlefield")
		}
		if d := permission.CanModifyCard(ctx.Doc, ctx.Intent.ActorID, card); !d.Allowed {
			return reject(d.Reason)
		}
		cards = append(cards, card)
	}
	for _, card := range cards {
		card.Tapped = pl.Tapped
	}
	ctx.Emit(intentlog.New(intentlog.EventCardTap, ctx.Intent.ActorID, map[string]interface{}{
		"cardIds": pl.CardIDs,
		"tapped":  pl.Tapped,
	}))
	return nil
}

type cardDuplicatePayload struct {
	CardID string `json:"cardId"`
	Count  int    `json:"count"`
}

func handleCardDuplicate(ctx *Ctx) error {
	var pl cardDuplicatePayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	card, inHidden, err := ctx.findCard(pl.CardID)
	if err != nil {
		return err
	}
	if inHidden {
		return reject("Card is not on a battlefield")
	}
	if d := permission.CanModifyCard(ctx.Doc, ctx.Intent.ActorID, card); !d.Allowed {
		return reject(d.Reason)
	}
	zone, err := ctx.zone(card.ZoneID)
	if err != nil {
		return err
	}

	count := pl.Count
	if count <= 0 {
		count = 1
	}
	if count > maxDuplicates {
		count = maxDuplicates
	}
	for i := 0; i < count; i++ {
		dup := cardops.Duplicate(card, uuid.New().String())
		ctx.Doc.Cards[dup.ID] = dup
		zone.InsertCard(dup.ID, document.PlacementBottom, -1)
		resolveCardPosition(ctx.Doc, zone, dup)
		ctx.Emit(intentlog.New(intentlog.EventCardAdd, ctx.Intent.ActorID, map[string]interface{}{
			"cardId":   dup.ID,
			"zoneId":   zone.ID,
			"cardName": dup.Name,
			"token":    true,
		}))
	}
	return nil
}

type cardTransformPayload struct {
	CardID string `json:"cardId"`
}

func handleCardTransform(ctx *Ctx) error {
	var pl cardTransformPayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	card, inHidden, err := ctx.findCard(pl.CardID)
	if err != nil {
		return err
	}
	if inHidden {
		return reject("Card is not on a battlefield")
	}
	if d := permission.CanModifyCard(ctx.Doc, ctx.Intent.ActorID, card); !d.Allowed {
		return reject(d.Reason)
	}
	cardops.Transform(card)
	return nil
}

type cardMovePayload struct {
	Moves []struct {
		CardID   string          `json:"cardId"`
		Position *position.Point `json:"position,omitempty"`
	} `json:"moves"`
	ZoneID       string                `json:"zoneId"`
	Placement    document.Placement    `json:"placement,omitempty"`
	Index        *int                  `json:"index,omitempty"`
	FaceDown     *bool                 `json:"faceDown,omitempty"`
	FaceDownMode document.FaceDownMode `json:"faceDownMode,omitempty"`
}

func handleCardMove(ctx *Ctx) error {
	var pl cardMovePayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	if len(pl.Moves) == 0 {
		return reject("malformed payload")
	}
	toZone, err := ctx.zone(pl.ZoneID)
	if err != nil {
		return err
	}

	// Permission for the whole batch first; a mixed batch never half-applies.
	movingIDs := make(map[string]bool, len(pl.Moves))
	for _, mv := range pl.Moves {
		card, _, err := ctx.findCard(mv.CardID)
		if err != nil {
			return err
		}
		fromZone, err := ctx.zone(card.ZoneID)
		if err != nil {
			return err
		}
		if d := permission.CanMoveCard(ctx.Doc, ctx.Intent.ActorID, card, fromZone, toZone); !d.Allowed {
			return reject(d.Reason)
		}
		movingIDs[mv.CardID] = true
	}

	// A grouped battlefield drop keeps relative offsets: resolve the whole
	// group against standing cards, then apply each move pre-resolved.
	resolved := make(map[string]position.Point)
	if len(pl.Moves) > 1 && toZone.Type.Normalize() == document.ZoneBattlefield {
		occupied := make([]position.Point, 0, len(toZone.CardIDs))
		for _, id := range toZone.CardIDs {
			if movingIDs[id] {
				continue
			}
			if other, ok := ctx.Doc.Card(id); ok {
				occupied = append(occupied, position.Point{X: other.X, Y: other.Y})
			}
		}
		wants := make([]position.Point, len(pl.Moves))
		for i, mv := range pl.Moves {
			wants[i] = defaultCardPoint(mv.Position)
		}
		for i, p := range position.ResolveGroup(occupied, wants) {
			resolved[pl.Moves[i].CardID] = p
		}
	}

	index := -1
	if pl.Index != nil {
		index = *pl.Index
	}
	for _, mv := range pl.Moves {
		req := movement.Request{
			ActorID:      ctx.Intent.ActorID,
			CardID:       mv.CardID,
			ToZoneID:     toZone.ID,
			Position:     mv.Position,
			Placement:    pl.Placement,
			Index:        index,
			FaceDown:     pl.FaceDown,
			FaceDownMode: pl.FaceDownMode,
		}
		if p, ok := resolved[mv.CardID]; ok {
			req.Position = &p
			req.SkipCollision = true
		}
		res, err := movement.Move(ctx.Doc, ctx.Hidden, req)
		if err != nil {
			return reject(err.Error())
		}
		for _, e := range res.Events {
			ctx.Emit(e)
		}
		if res.HiddenChanged {
			ctx.MarkHiddenChanged()
		}
	}
	return nil
}

type cardRevealPayload struct {
	CardID string   `json:"cardId"`
	Zone   string   `json:"zone"` // hand | library | faceDown
	ToAll  bool     `json:"toAll"`
	To     []string `json:"to,omitempty"`
}

func handleCardReveal(ctx *Ctx) error {
	var pl cardRevealPayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	card, inHidden, err := ctx.findCard(pl.CardID)
	if err != nil {
		return err
	}

	switch pl.Zone {
	case "hand", "library":
		if !inHidden {
			return reject("card not found")
		}
		zone, err := ctx.zone(card.ZoneID)
		if err != nil {
			return err
		}
		want := document.ZoneHand
		if pl.Zone == "library" {
			want = document.ZoneLibrary
		}
		if zone.Type.Normalize() != want {
			return reject("invalid move")
		}
		if d := permission.CanViewHiddenZone(ctx.Intent.ActorID, zone); !d.Allowed {
			return reject(d.Reason)
		}
		r := hidden.BuildReveal(card.OwnerID, pl.ToAll, pl.To)
		if want == document.ZoneHand {
			ctx.Hidden.SetHandReveal(ctx.Doc, card.ID, r)
		} else {
			ctx.Hidden.SetLibraryReveal(ctx.Doc, card.ID, r)
			ctx.Hidden.SyncLibraryRevealsToAll(ctx.Doc, zone.OwnerID)
		}
	case "faceDown":
		if _, ok := ctx.Hidden.FaceDownBattlefield[card.ID]; !ok {
			return reject("card not found")
		}
		if card.ControllerID != ctx.Intent.ActorID {
			return reject("You do not control this card")
		}
		r := hidden.BuildReveal(card.OwnerID, pl.ToAll, pl.To)
		ctx.Hidden.SetFaceDownReveal(ctx.Doc, card.ID, r)
	default:
		return reject("malformed payload")
	}
	ctx.MarkHiddenChanged()

	payload := map[string]interface{}{
		"cardId":   card.ID,
		"zone":     pl.Zone,
		"toAll":    pl.ToAll,
		"cardName": cardops.RedactedName,
	}
	if pl.ToAll {
		payload["cardName"] = revealedName(ctx, card)
	}
	ctx.Emit(intentlog.New(intentlog.EventCardReveal, ctx.Intent.ActorID, payload))
	return nil
}

func revealedName(ctx *Ctx, card *document.Card) string {
	if ident, ok := ctx.Hidden.FaceDownBattlefield[card.ID]; ok {
		return ident.Name
	}
	return card.Name
}

type counterAdjustPayload struct {
	CardID string `json:"cardId"`
	Name   string `json:"name"`
	Delta  int    `json:"delta"`
}

func handleCounterAdjust(ctx *Ctx) error {
	var pl counterAdjustPayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	if pl.Name == "" || pl.Delta == 0 {
		return reject("malformed payload")
	}
	card, inHidden, err := ctx.findCard(pl.CardID)
	if err != nil {
		return err
	}
	if inHidden {
		return reject("Card is not on a battlefield")
	}
	if d := permission.CanModifyCard(ctx.Doc, ctx.Intent.ActorID, card); !d.Allowed {
		return reject(d.Reason)
	}
	cardops.AdjustCounter(card, pl.Name, pl.Delta)
	return nil
}
