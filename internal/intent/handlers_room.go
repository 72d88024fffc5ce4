package intent

import (
	"github.com/hansy/snapstack-sub000/internal/intentlog"
)

type roomLockPayload struct {
	Locked bool `json:"locked"`
}

func handleRoomLock(ctx *Ctx) error {
	var pl roomLockPayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	hostID, ok := ctx.Doc.HostID()
	if !ok || hostID != ctx.Intent.ActorID {
		return reject("Only the host may lock the room")
	}
	ctx.Doc.Meta.Locked = pl.Locked
	ctx.Emit(intentlog.New(intentlog.EventRoomLock, ctx.Intent.ActorID, map[string]interface{}{
		"locked": pl.Locked,
	}))
	return nil
}

type roomScalePayload struct {
	PlayerID string  `json:"playerId"`
	Scale    float64 `json:"scale"`
}

func handleRoomScale(ctx *Ctx) error {
	var pl roomScalePayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	if err := ctx.requireActor(pl.PlayerID); err != nil {
		return err
	}
	if _, err := ctx.player(pl.PlayerID); err != nil {
		return err
	}
	if pl.Scale < 0.25 {
		pl.Scale = 0.25
	}
	if pl.Scale > 4 {
		pl.Scale = 4
	}
	if ctx.Doc.Meta.BattlefieldScale == nil {
		ctx.Doc.Meta.BattlefieldScale = make(map[string]float64)
	}
	ctx.Doc.Meta.BattlefieldScale[pl.PlayerID] = pl.Scale
	return nil
}

type roomCounterAddPayload struct {
	Name  string `json:"name"`
	Delta int    `json:"delta"`
}

func handleRoomCounterAdd(ctx *Ctx) error {
	var pl roomCounterAddPayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	if pl.Name == "" || pl.Delta == 0 {
		return reject("malformed payload")
	}
	if ctx.Doc.Meta.Counters == nil {
		ctx.Doc.Meta.Counters = make(map[string]int)
	}
	next := ctx.Doc.Meta.Counters[pl.Name] + pl.Delta
	if next <= 0 {
		delete(ctx.Doc.Meta.Counters, pl.Name)
	} else {
		ctx.Doc.Meta.Counters[pl.Name] = next
	}
	return nil
}

func handleRollCoin(ctx *Ctx) error {
	result := "tails"
	if ctx.rng.Intn(2) == 0 {
		result = "heads"
	}
	ctx.Emit(intentlog.New(intentlog.EventRollCoin, ctx.Intent.ActorID, map[string]interface{}{
		"result": result,
	}))
	return nil
}

type rollDicePayload struct {
	Sides int `json:"sides"`
}

func handleRollDice(ctx *Ctx) error {
	var pl rollDicePayload
	// Payload is optional; a bare roll means one d6.
	if len(ctx.Intent.Payload) > 0 {
		if err := ctx.decode(&pl); err != nil {
			return err
		}
	}
	sides := pl.Sides
	if sides <= 1 {
		sides = 6
	}
	if sides > 1000 {
		sides = 1000
	}
	ctx.Emit(intentlog.New(intentlog.EventRollDice, ctx.Intent.ActorID, map[string]interface{}{
		"sides":  sides,
		"result": ctx.rng.Intn(sides) + 1,
	}))
	return nil
}
