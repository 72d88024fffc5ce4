package document

import "sort"

// Placement selects where a card enters an ordered zone list.
type Placement string

const (
	PlacementTop    Placement = "top"
	PlacementBottom Placement = "bottom"
)

// Doc is the replicated public game document. The engine treats it as an
// ordered key/value store with transaction semantics provided by the owning
// room; all reads and writes here assume the room's single-writer discipline.
type Doc struct {
	Meta    RoomMeta           `json:"meta"`
	Players map[string]*Player `json:"players"`
	Zones   map[string]*Zone   `json:"zones"`
	Cards   map[string]*Card   `json:"cards"`

	// Public reveal mirrors: identity projections for hidden or face-down
	// cards that have been revealed to everyone. Kept in sync by the hidden
	// state store.
	HandRevealsToAll     map[string]Identity `json:"handRevealsToAll"`
	LibraryRevealsToAll  map[string]Identity `json:"libraryRevealsToAll"`
	FaceDownRevealsToAll map[string]Identity `json:"faceDownRevealsToAll"`
}

// NewDoc returns an empty document for a freshly created room.
func NewDoc(roomID string, maxPlayers int) *Doc {
	return &Doc{
		Meta: RoomMeta{
			ID:             roomID,
			MaxPlayers:     maxPlayers,
			HiddenMigrated: true,
		},
		Players:              make(map[string]*Player),
		Zones:                make(map[string]*Zone),
		Cards:                make(map[string]*Card),
		HandRevealsToAll:     make(map[string]Identity),
		LibraryRevealsToAll:  make(map[string]Identity),
		FaceDownRevealsToAll: make(map[string]Identity),
	}
}

// Player returns the player with the given id.
func (d *Doc) Player(id string) (*Player, bool) {
	p, ok := d.Players[id]
	return p, ok
}

// Zone returns the zone with the given id.
func (d *Doc) Zone(id string) (*Zone, bool) {
	z, ok := d.Zones[id]
	return z, ok
}

// Card returns the public card with the given id. Hidden-zone cards are not
// reachable through the document.
func (d *Doc) Card(id string) (*Card, bool) {
	c, ok := d.Cards[id]
	return c, ok
}

// ZoneFor returns a player's zone of the given type, tolerating the legacy
// commander spelling.
func (d *Doc) ZoneFor(ownerID string, t ZoneType) (*Zone, bool) {
	want := t.Normalize()
	ids := make([]string, 0, len(d.Zones))
	for id := range d.Zones {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		z := d.Zones[id]
		if z.OwnerID == ownerID && z.Type.Normalize() == want {
			return z, true
		}
	}
	return nil, false
}

// PlayerIDs returns all player ids in sorted order.
func (d *Doc) PlayerIDs() []string {
	ids := make([]string, 0, len(d.Players))
	for id := range d.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HostID returns the current host's player id, if any.
func (d *Doc) HostID() (string, bool) {
	for _, id := range d.PlayerIDs() {
		if d.Players[id].IsHost {
			return id, true
		}
	}
	return "", false
}

// InsertCard places a card id into the zone's ordered list. An index >= 0
// takes precedence over placement; out-of-range indexes clamp to the ends.
func (z *Zone) InsertCard(cardID string, placement Placement, index int) {
	z.RemoveCard(cardID)
	switch {
	case index >= 0:
		if index > len(z.CardIDs) {
			index = len(z.CardIDs)
		}
		z.CardIDs = append(z.CardIDs, "")
		copy(z.CardIDs[index+1:], z.CardIDs[index:])
		z.CardIDs[index] = cardID
	case placement == PlacementBottom:
		z.CardIDs = append(z.CardIDs, cardID)
	default:
		z.CardIDs = append([]string{cardID}, z.CardIDs...)
	}
}

// RemoveCard removes a card id from the zone's ordered list, reporting
// whether it was present.
func (z *Zone) RemoveCard(cardID string) bool {
	for i, id := range z.CardIDs {
		if id == cardID {
			z.CardIDs = append(z.CardIDs[:i], z.CardIDs[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether the zone's ordered list includes the card id.
func (z *Zone) Contains(cardID string) bool {
	for _, id := range z.CardIDs {
		if id == cardID {
			return true
		}
	}
	return false
}
