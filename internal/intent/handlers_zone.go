package intent

import (
	"github.com/google/uuid"

	"github.com/hansy/snapstack-sub000/internal/document"
	"github.com/hansy/snapstack-sub000/internal/permission"
)

type zoneAddPayload struct {
	Zone struct {
		ID      string            `json:"id"`
		Type    document.ZoneType `json:"type"`
		OwnerID string            `json:"ownerId"`
	} `json:"zone"`
}

func handleZoneAdd(ctx *Ctx) error {
	var pl zoneAddPayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	if !pl.Zone.Type.Valid() {
		return reject("malformed payload")
	}
	if err := ctx.requireActor(pl.Zone.OwnerID); err != nil {
		return err
	}
	if _, err := ctx.player(pl.Zone.OwnerID); err != nil {
		return err
	}
	id := pl.Zone.ID
	if id == "" {
		id = uuid.New().String()
	}
	if _, exists := ctx.Doc.Zone(id); exists {
		return reject("zone already exists")
	}
	ctx.Doc.Zones[id] = &document.Zone{
		ID:      id,
		Type:    pl.Zone.Type.Normalize(),
		OwnerID: pl.Zone.OwnerID,
	}
	return nil
}

type zoneReorderPayload struct {
	ZoneID  string   `json:"zoneId"`
	CardIDs []string `json:"cardIds"`
}

func handleZoneReorder(ctx *Ctx) error {
	var pl zoneReorderPayload
	if err := ctx.decode(&pl); err != nil {
		return err
	}
	zone, err := ctx.zone(pl.ZoneID)
	if err != nil {
		return err
	}
	t := zone.Type.Normalize()

	if t.Hidden() {
		if d := permission.CanViewHiddenZone(ctx.Intent.ActorID, zone); !d.Allowed {
			return reject(d.Reason)
		}
		current := ctx.Hidden.Order(t, zone.OwnerID)
		if !samePermutation(current, pl.CardIDs) {
			return reject("reorder must keep the same cards")
		}
		ctx.Hidden.SetOrder(t, zone.OwnerID, pl.CardIDs)
		if t == document.ZoneLibrary {
			ctx.Hidden.SyncLibraryRevealsToAll(ctx.Doc, zone.OwnerID)
		}
		ctx.MarkHiddenChanged()
		return nil
	}

	if zone.OwnerID != ctx.Intent.ActorID {
		return reject("Cannot reorder another player's zone")
	}
	if !samePermutation(zone.CardIDs, pl.CardIDs) {
		return reject("reorder must keep the same cards")
	}
	zone.CardIDs = append([]string(nil), pl.CardIDs...)
	return nil
}

func samePermutation(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		seen[id]--
		if seen[id] < 0 {
			return false
		}
	}
	return true
}
