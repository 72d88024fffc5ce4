package intent

import (
	"github.com/hansy/snapstack-sub000/internal/document"
	"github.com/hansy/snapstack-sub000/internal/hidden"
	"github.com/hansy/snapstack-sub000/internal/intentlog"
	"github.com/hansy/snapstack-sub000/internal/movement"
	"github.com/hansy/snapstack-sub000/internal/permission"
)

type libraryDrawPayload struct {
	PlayerID string `json:"playerId"`
	Count    int    `json:"count"`
}

func handleLibraryDraw(ctx *Ctx) error {
	var pl libraryDrawPayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	if err := ctx.requireActor(pl.PlayerID); err != nil {
		return err
	}
	if _, err := ctx.player(pl.PlayerID); err != nil {
		return err
	}
	handZone, ok := ctx.Doc.ZoneFor(pl.PlayerID, document.ZoneHand)
	if !ok {
		return reject("zone not found")
	}

	count := pl.Count
	if count <= 0 {
		count = 1
	}
	order := ctx.Hidden.Order(document.ZoneLibrary, pl.PlayerID)
	if count > len(order) {
		count = len(order)
	}
	for i := 0; i < count; i++ {
		res, err := movement.Move(ctx.Doc, ctx.Hidden, movement.Request{
			ActorID:   ctx.Intent.ActorID,
			CardID:    order[i],
			ToZoneID:  handZone.ID,
			Placement: document.PlacementBottom,
			Index:     -1,
			LogMode:   movement.LogDraw,
		})
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

type libraryDiscardPayload struct {
	PlayerID string   `json:"playerId"`
	CardIDs  []string `json:"cardIds"`
}

func handleLibraryDiscard(ctx *Ctx) error {
	var pl libraryDiscardPayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	if err := ctx.requireActor(pl.PlayerID); err != nil {
		return err
	}
	if len(pl.CardIDs) == 0 {
		return reject("malformed payload")
	}
	graveyard, ok := ctx.Doc.ZoneFor(pl.PlayerID, document.ZoneGraveyard)
	if !ok {
		return reject("zone not found")
	}

	inHand := make(map[string]bool)
	for _, id := range ctx.Hidden.Order(document.ZoneHand, pl.PlayerID) {
		inHand[id] = true
	}
	for _, cardID := range pl.CardIDs {
		if !inHand[cardID] {
			return reject("card not found")
		}
	}

	for _, cardID := range pl.CardIDs {
		res, err := movement.Move(ctx.Doc, ctx.Hidden, movement.Request{
			ActorID:  ctx.Intent.ActorID,
			CardID:   cardID,
			ToZoneID: graveyard.ID,
			Index:    -1,
			LogMode:  movement.LogDiscard,
		})
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

type libraryShufflePayload struct {
	PlayerID string `json:"playerId"`
}

func handleLibraryShuffle(ctx *Ctx) error {
	var pl libraryShufflePayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	if err := ctx.requireActor(pl.PlayerID); err != nil {
		return err
	}
	player, err := ctx.player(pl.PlayerID)
	if err != nil {
		return err
	}

	order := ctx.Hidden.Order(document.ZoneLibrary, pl.PlayerID)
	ctx.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	ctx.Hidden.SetOrder(document.ZoneLibrary, pl.PlayerID, order)

	// Shuffling returns revealed cards to obscurity.
	for _, cardID := range order {
		ctx.Hidden.SetLibraryReveal(ctx.Doc, cardID, hidden.Reveal{})
	}
	ctx.Hidden.SyncLibraryRevealsToAll(ctx.Doc, pl.PlayerID)
	ctx.MarkHiddenChanged()

	ctx.Emit(intentlog.New(intentlog.EventShuffle, ctx.Intent.ActorID, map[string]interface{}{
		"playerId":   pl.PlayerID,
		"playerName": player.Name,
	}))
	return nil
}

type libraryViewPayload struct {
	PlayerID string `json:"playerId"`
	Count    int    `json:"count"`
}

// handleLibraryView only authorizes the request; the per-connection top-N
// view window is overlay state kept by the room, not document state.
func handleLibraryView(ctx *Ctx) error {
	var pl libraryViewPayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	if pl.Count < 0 {
		return reject("malformed payload")
	}
	zone, ok := ctx.Doc.ZoneFor(pl.PlayerID, document.ZoneLibrary)
	if !ok {
		return reject("zone not found")
	}
	if d := permission.CanViewHiddenZone(ctx.Intent.ActorID, zone); !d.Allowed {
		return reject(d.Reason)
	}
	return nil
}
