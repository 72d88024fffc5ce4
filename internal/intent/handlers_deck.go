package intent

import (
	"sort"

	"github.com/google/uuid"

	"github.com/hansy/snapstack-sub000/internal/document"
	"github.com/hansy/snapstack-sub000/internal/intentlog"
	"github.com/hansy/snapstack-sub000/internal/movement"
)

type deckCardSpec struct {
	Name          string `json:"name"`
	Text          string `json:"text,omitempty"`
	Power         string `json:"power,omitempty"`
	Toughness     string `json:"toughness,omitempty"`
	Count         int    `json:"count"`
}

type deckLoadPayload struct {
	PlayerID string `json:"playerId"`
	Deck     struct {
		Main      []deckCardSpec `json:"main"`
		Sideboard []deckCardSpec `json:"sideboard,omitempty"`
		Commander []deckCardSpec `json:"commander,omitempty"`
	} `json:"deck"`
}

func handleDeckLoad(ctx *Ctx) error {
	var pl deckLoadPayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	if err := ctx.requireActor(pl.PlayerID); err != nil {
		return err
	}
	if _, err := ctx.player(pl.PlayerID); err != nil {
		return err
	}
	if len(pl.Deck.Main) == 0 {
		return reject("malformed payload")
	}

	// Loading replaces whatever the player had before.
	unloadPlayerCards(ctx, pl.PlayerID)

	total := 0
	total += addDeckCards(ctx, pl.PlayerID, pl.Deck.Main, document.ZoneLibrary, false)
	total += addDeckCards(ctx, pl.PlayerID, pl.Deck.Sideboard, document.ZoneSideboard, false)
	total += addDeckCards(ctx, pl.PlayerID, pl.Deck.Commander, document.ZoneCommander, true)

	ctx.Hidden.UpdatePlayerCounts(ctx.Doc, pl.PlayerID)
	ctx.Hidden.SyncLibraryRevealsToAll(ctx.Doc, pl.PlayerID)
	ctx.MarkHiddenChanged()

	ctx.Emit(intentlog.New(intentlog.EventDeckLoad, ctx.Intent.ActorID, map[string]interface{}{
		"playerId":  pl.PlayerID,
		"cardCount": total,
	}))
	return nil
}

func addDeckCards(ctx *Ctx, playerID string, specs []deckCardSpec, t document.ZoneType, commander bool) int {
	zone, ok := ctx.Doc.ZoneFor(playerID, t)
	if !ok {
		return 0
	}
	added := 0
	for _, spec := range specs {
		count := spec.Count
		if count <= 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			card := &document.Card{
				ID:            uuid.New().String(),
				OwnerID:       playerID,
				ControllerID:  playerID,
				ZoneID:        zone.ID,
				Name:          spec.Name,
				Text:          spec.Text,
				Power:         spec.Power,
				Toughness:     spec.Toughness,
				BasePower:     spec.Power,
				BaseToughness: spec.Toughness,
				IsCommander:   commander,
			}
			if t.Hidden() {
				ctx.Hidden.Cards[card.ID] = card
				ctx.Hidden.InsertOrder(t, playerID, card.ID, document.PlacementBottom, -1)
			} else {
				card.KnownToAll = true
				ctx.Doc.Cards[card.ID] = card
				zone.InsertCard(card.ID, document.PlacementBottom, -1)
			}
			added++
		}
	}
	return added
}

// unloadPlayerCards removes every card a player owns, from both partitions.
func unloadPlayerCards(ctx *Ctx, playerID string) {
	for id, card := range ctx.Doc.Cards {
		if card.OwnerID != playerID {
			continue
		}
		if zone, ok := ctx.Doc.Zone(card.ZoneID); ok {
			zone.RemoveCard(id)
		}
		delete(ctx.Doc.Cards, id)
		delete(ctx.Hidden.FaceDownBattlefield, id)
		ctx.Hidden.ClearCardReveals(ctx.Doc, id)
	}
	for id, card := range ctx.Hidden.Cards {
		if card.OwnerID != playerID {
			continue
		}
		delete(ctx.Hidden.Cards, id)
		ctx.Hidden.ClearCardReveals(ctx.Doc, id)
	}
	ctx.Hidden.SetOrder(document.ZoneHand, playerID, nil)
	ctx.Hidden.SetOrder(document.ZoneLibrary, playerID, nil)
	ctx.Hidden.SetOrder(document.ZoneSideboard, playerID, nil)
	ctx.Hidden.UpdatePlayerCounts(ctx.Doc, playerID)
	ctx.Hidden.SyncLibraryRevealsToAll(ctx.Doc, playerID)
	ctx.MarkHiddenChanged()
}

type deckResetPayload struct {
	PlayerID string `json:"playerId"`
}

func handleDeckReset(ctx *Ctx) error {
	var pl deckResetPayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	if err := ctx.requireActor(pl.PlayerID); err != nil {
		return err
	}
	if _, err := ctx.player(pl.PlayerID); err != nil {
		return err
	}
	library, ok := ctx.Doc.ZoneFor(pl.PlayerID, document.ZoneLibrary)
	if !ok {
		return reject("zone not found")
	}
	commanderZone, hasCommanderZone := ctx.Doc.ZoneFor(pl.PlayerID, document.ZoneCommander)

	// Gather owned cards from both partitions in deterministic order.
	ids := make([]string, 0)
	for id, card := range ctx.Doc.Cards {
		if card.OwnerID == pl.PlayerID {
			ids = append(ids, id)
		}
	}
	for id, card := range ctx.Hidden.Cards {
		if card.OwnerID == pl.PlayerID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		card, inHidden, err := ctx.findCard(id)
		if err != nil {
			continue
		}
		fromZone, ok := ctx.Doc.Zone(card.ZoneID)
		if !ok {
			continue
		}
		fromType := fromZone.Type.Normalize()

		if card.IsToken {
			if inHidden {
				delete(ctx.Hidden.Cards, id)
				ctx.Hidden.RemoveOrder(fromType, fromZone.OwnerID, id)
			} else {
				fromZone.RemoveCard(id)
				delete(ctx.Doc.Cards, id)
			}
			delete(ctx.Hidden.FaceDownBattlefield, id)
			ctx.Hidden.ClearCardReveals(ctx.Doc, id)
			continue
		}

		target := library
		if card.IsCommander && hasCommanderZone {
			target = commanderZone
		}
		if card.ZoneID == target.ID && fromType == target.Type.Normalize() && !fromType.Hidden() {
			continue
		}
		res, err := movement.Move(ctx.Doc, ctx.Hidden, movement.Request{
			ActorID:   ctx.Intent.ActorID,
			CardID:    id,
			ToZoneID:  target.ID,
			Placement: document.PlacementBottom,
			Index:     -1,
			LogMode:   movement.LogNone,
		})
		if err != nil {
			return reject(err.Error())
		}
		if res.HiddenChanged {
			ctx.MarkHiddenChanged()
		}
	}

	order := ctx.Hidden.Order(document.ZoneLibrary, pl.PlayerID)
	ctx.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	ctx.Hidden.SetOrder(document.ZoneLibrary, pl.PlayerID, order)
	ctx.Hidden.UpdatePlayerCounts(ctx.Doc, pl.PlayerID)
	ctx.Hidden.SyncLibraryRevealsToAll(ctx.Doc, pl.PlayerID)
	ctx.MarkHiddenChanged()

	ctx.Emit(intentlog.New(intentlog.EventDeckReset, ctx.Intent.ActorID, map[string]interface{}{
		"playerId": pl.PlayerID,
	}))
	return nil
}

type deckUnloadPayload struct {
	PlayerID string `json:"playerId"`
}

func handleDeckUnload(ctx *Ctx) error {
	var pl deckUnloadPayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	if err := ctx.requireActor(pl.PlayerID); err != nil {
		return err
	}
	if _, err := ctx.player(pl.PlayerID); err != nil {
		return err
	}
	unloadPlayerCards(ctx, pl.PlayerID)
	return nil
}

type deckMulliganPayload struct {
	PlayerID  string `json:"playerId"`
	DrawCount *int   `json:"drawCount,omitempty"`
}

func handleDeckMulligan(ctx *Ctx) error {
	var pl deckMulliganPayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	if err := ctx.requireActor(pl.PlayerID); err != nil {
		return err
	}
	if _, err := ctx.player(pl.PlayerID); err != nil {
		return err
	}
	library, ok := ctx.Doc.ZoneFor(pl.PlayerID, document.ZoneLibrary)
	if !ok {
		return reject("zone not found")
	}
	handZone, ok := ctx.Doc.ZoneFor(pl.PlayerID, document.ZoneHand)
	if !ok {
		return reject("zone not found")
	}

	hand := ctx.Hidden.Order(document.ZoneHand, pl.PlayerID)
	drawCount := len(hand) - 1
	if pl.DrawCount != nil {
		drawCount = *pl.DrawCount
	}
	if drawCount < 0 {
		drawCount = 0
	}

	for _, cardID := range hand {
		if _, err := movement.Move(ctx.Doc, ctx.Hidden, movement.Request{
			ActorID:   ctx.Intent.ActorID,
			CardID:    cardID,
			ToZoneID:  library.ID,
			Placement: document.PlacementBottom,
			Index:     -1,
			LogMode:   movement.LogNone,
		}); err != nil {
			return reject(err.Error())
		}
	}

	order := ctx.Hidden.Order(document.ZoneLibrary, pl.PlayerID)
	ctx.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	ctx.Hidden.SetOrder(document.ZoneLibrary, pl.PlayerID, order)

	order = ctx.Hidden.Order(document.ZoneLibrary, pl.PlayerID)
	if drawCount > len(order) {
		drawCount = len(order)
	}
	for i := 0; i < drawCount; i++ {
		if _, err := movement.Move(ctx.Doc, ctx.Hidden, movement.Request{
			ActorID:   ctx.Intent.ActorID,
			CardID:    order[i],
			ToZoneID:  handZone.ID,
			Placement: document.PlacementBottom,
			Index:     -1,
			LogMode:   movement.LogNone,
		}); err != nil {
			return reject(err.Error())
		}
	}

	ctx.Hidden.UpdatePlayerCounts(ctx.Doc, pl.PlayerID)
	ctx.Hidden.SyncLibraryRevealsToAll(ctx.Doc, pl.PlayerID)
	ctx.MarkHiddenChanged()

	ctx.Emit(intentlog.New(intentlog.EventMulligan, ctx.Intent.ActorID, map[string]interface{}{
		"playerId":  pl.PlayerID,
		"drawCount": drawCount,
	}))
	return nil
}
