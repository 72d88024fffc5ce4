package hidden

import (
	"sort"

	"github.com/hansy/snapstack-sub000/internal/document"
)

// MigrateFromPublic performs the one-time migration of a legacy all-public
// room layout: cards sitting in hidden zones move from the public document
// into the hidden partition, with order lists seeded from the public zone
// order. Runs once per room; subsequent calls are no-ops.
func (s *State) MigrateFromPublic(doc *document.Doc) {
	if doc.Meta.HiddenMigrated {
		return
	}
	for _, zoneID := range sortedZoneIDs(doc) {
		zone := doc.Zones[zoneID]
		t := zone.Type.Normalize()
		if !t.Hidden() {
			continue
		}
		for _, cardID := range zone.CardIDs {
			card, ok := doc.Cards[cardID]
			if !ok {
				continue
			}
			delete(doc.Cards, cardID)
			s.Cards[cardID] = card
			s.InsertOrder(t, zone.OwnerID, cardID, document.PlacementBottom, -1)
		}
		zone.CardIDs = nil
	}
	for _, playerID := range doc.PlayerIDs() {
		s.UpdatePlayerCounts(doc, playerID)
		s.SyncLibraryRevealsToAll(doc, playerID)
	}
	doc.Meta.HiddenMigrated = true
}

func sortedZoneIDs(doc *document.Doc) []string {
	ids := make([]string, 0, len(doc.Zones))
	for id := range doc.Zones {
		ids = append(ids, id)
	}
	// Stable migration order regardless of map iteration.
	sort.Strings(ids)
	return ids
}
