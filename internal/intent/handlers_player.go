package intent

import (
	"github.com/google/uuid"

	"github.com/hansy/snapstack-sub000/internal/document"
	"github.com/hansy/snapstack-sub000/internal/intentlog"
	"github.com/hansy/snapstack-sub000/internal/permission"
)

const defaultStartingLife = 40

type playerJoinPayload struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Life     int    `json:"life"`
}

func handlePlayerJoin(ctx *Ctx) error {
	var pl playerJoinPayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	if pl.PlayerID == "" || pl.Name == "" {
		return reject("malformed payload")
	}
	if err := ctx.requireActor(pl.PlayerID); err != nil {
		return err
	}
	if ctx.Doc.Meta.Locked {
		return reject("room is locked")
	}
	if _, exists := ctx.Doc.Player(pl.PlayerID); exists {
		return reject("player already joined")
	}
	if ctx.Doc.Meta.MaxPlayers > 0 && len(ctx.Doc.Players) >= ctx.Doc.Meta.MaxPlayers {
		return reject("room is full")
	}

	life := pl.Life
	if life <= 0 {
		life = defaultStartingLife
	}
	player := &document.Player{
		ID:   pl.PlayerID,
		Name: pl.Name,
		Life: life,
	}
	if _, hasHost := ctx.Doc.HostID(); !hasHost {
		player.IsHost = true
	}
	ctx.Doc.Players[pl.PlayerID] = player

	for _, t := range []document.ZoneType{
		document.ZoneLibrary,
		document.ZoneHand,
		document.ZoneBattlefield,
		document.ZoneGraveyard,
		document.ZoneExile,
		document.ZoneCommander,
		document.ZoneSideboard,
	} {
		zone := &document.Zone{
			ID:      uuid.New().String(),
			Type:    t,
			OwnerID: pl.PlayerID,
		}
		ctx.Doc.Zones[zone.ID] = zone
	}

	ctx.Emit(intentlog.New(intentlog.EventPlayerJoin, ctx.Intent.ActorID, map[string]interface{}{
		"playerId": pl.PlayerID,
		"name":     pl.Name,
		"isHost":   player.IsHost,
	}))
	return nil
}

type playerUpdatePayload struct {
	PlayerID string              `json:"playerId"`
	Updates  playerUpdateFields  `json:"updates"`
}

type playerUpdateFields struct {
	Life             *int           `json:"life,omitempty"`
	Name             *string        `json:"name,omitempty"`
	Counters         map[string]int `json:"counters,omitempty"`
	CommanderDamage  map[string]int `json:"commanderDamage,omitempty"`
	CommanderTax     *int           `json:"commanderTax,omitempty"`
	LibraryTopReveal *string        `json:"libraryTopReveal,omitempty"`
}

func handlePlayerUpdate(ctx *Ctx) error {
	var pl playerUpdatePayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	player, err := ctx.player(pl.PlayerID)
	if err != nil {
		return err
	}
	actor := ctx.Intent.ActorID

	if pl.Updates.Life != nil {
		if d := permission.CanUpdatePlayer(actor, pl.PlayerID, permission.FieldLife); !d.Allowed {
			return reject(d.Reason)
		}
		player.Life = *pl.Updates.Life
	}
	if pl.Updates.Name != nil {
		if d := permission.CanUpdatePlayer(actor, pl.PlayerID, permission.FieldName); !d.Allowed {
			return reject(d.Reason)
		}
		player.Name = *pl.Updates.Name
	}
	if pl.Updates.Counters != nil {
		if d := permission.CanUpdatePlayer(actor, pl.PlayerID, permission.FieldCounters); !d.Allowed {
			return reject(d.Reason)
		}
		player.Counters = pl.Updates.Counters
	}
	if pl.Updates.CommanderDamage != nil {
		if d := permission.CanUpdatePlayer(actor, pl.PlayerID, permission.FieldCommanderDamage); !d.Allowed {
			return reject(d.Reason)
		}
		if player.CommanderDamage == nil {
			player.CommanderDamage = make(map[string]int)
		}
		for from, dmg := range pl.Updates.CommanderDamage {
			player.CommanderDamage[from] = dmg
		}
	}
	if pl.Updates.CommanderTax != nil {
		if d := permission.CanUpdatePlayer(actor, pl.PlayerID, permission.FieldCommanderTax); !d.Allowed {
			return reject(d.Reason)
		}
		player.CommanderTax = *pl.Updates.CommanderTax
	}
	if pl.Updates.LibraryTopReveal != nil {
		if d := permission.CanUpdatePlayer(actor, pl.PlayerID, permission.FieldLibraryTopReveal); !d.Allowed {
			return reject(d.Reason)
		}
		mode := document.LibraryTopRevealMode(*pl.Updates.LibraryTopReveal)
		switch mode {
		case document.LibraryTopRevealUnset, document.LibraryTopRevealAll, document.LibraryTopRevealSelf:
		default:
			return reject("malformed payload")
		}
		player.LibraryTopReveal = mode
		ctx.Hidden.SyncLibraryRevealsToAll(ctx.Doc, pl.PlayerID)
		ctx.MarkHiddenChanged()
	}
	return nil
}

type playerLeavePayload struct {
	PlayerID string `json:"playerId"`
}

func handlePlayerLeave(ctx *Ctx) error {
	var pl playerLeavePayload
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

	// Cards the player owns disappear with them, from both partitions.
	for id, card := range ctx.Doc.Cards {
		if card.OwnerID != pl.PlayerID {
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
		if card.OwnerID != pl.PlayerID {
			continue
		}
		delete(ctx.Hidden.Cards, id)
		ctx.Hidden.ClearCardReveals(ctx.Doc, id)
	}
	ctx.Hidden.RemovePlayer(pl.PlayerID)
	ctx.MarkHiddenChanged()

	for id, zone := range ctx.Doc.Zones {
		if zone.OwnerID == pl.PlayerID {
			delete(ctx.Doc.Zones, id)
		}
	}
	wasHost := player.IsHost
	delete(ctx.Doc.Players, pl.PlayerID)

	if wasHost {
		if ids := ctx.Doc.PlayerIDs(); len(ids) > 0 {
			ctx.Doc.Players[ids[0]].IsHost = true
		}
	}

	ctx.Emit(intentlog.New(intentlog.EventPlayerLeave, ctx.Intent.ActorID, map[string]interface{}{
		"playerId": pl.PlayerID,
		"name":     player.Name,
	}))
	return nil
}
