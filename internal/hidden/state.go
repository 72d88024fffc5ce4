// Package hidden holds the server-only partition of room state: hidden-zone
// card records and ordering, face-down battlefield identities and reveal
// bookkeeping. Nothing in this package is ever sent to a client directly;
// the overlay builder projects the entitled slice per viewer.
package hidden

import "github.com/hansy/snapstack-sub000/internal/document"

// MaxRevealTargets caps how many named players one reveal can address.
const MaxRevealTargets = 8

// Reveal records who may see an otherwise-hidden card's identity.
type Reveal struct {
	ToAll     bool     `json:"toAll,omitempty"`
	ToPlayers []string `json:"toPlayers,omitempty"`
}

// Includes reports whether the reveal grants visibility to the given viewer.
func (r Reveal) Includes(viewerID string) bool {
	if r.ToAll {
		return true
	}
	for _, id := range r.ToPlayers {
		if id == viewerID {
			return true
		}
	}
	return false
}

// State is the server-only hidden partition for one room. It is owned by the
// room actor and handed to the intent pipeline by reference; it is never
// aliased across goroutines.
type State struct {
	Cards map[string]*document.Card `json:"cards"`

	// Per-player order lists are the sole authority for hidden-zone order
	// and counts; the public zone records stay empty.
	HandOrder      map[string][]string `json:"handOrder"`
	LibraryOrder   map[string][]string `json:"libraryOrder"`
	SideboardOrder map[string][]string `json:"sideboardOrder"`

	// FaceDownBattlefield maps a face-down battlefield card to its true
	// identity, which is stripped from the public record.
	FaceDownBattlefield map[string]document.Identity `json:"faceDownBattlefield"`

	HandReveals     map[string]Reveal `json:"handReveals"`
	LibraryReveals  map[string]Reveal `json:"libraryReveals"`
	FaceDownReveals map[string]Reveal `json:"faceDownReveals"`
}

// NewState returns an empty hidden partition for a new room.
func NewState() *State {
	return &State{
		Cards:               make(map[string]*document.Card),
		HandOrder:           make(map[string][]string),
		LibraryOrder:        make(map[string][]string),
		SideboardOrder:      make(map[string][]string),
		FaceDownBattlefield: make(map[string]document.Identity),
		HandReveals:         make(map[string]Reveal),
		LibraryReveals:      make(map[string]Reveal),
		FaceDownReveals:     make(map[string]Reveal),
	}
}

// Clone returns a deep copy. The pipeline stages handler mutations on a
// clone so a rejected intent leaves the live state untouched.
func (s *State) Clone() *State {
	cp := NewState()
	for id, c := range s.Cards {
		cp.Cards[id] = c.Clone()
	}
	for p, order := range s.HandOrder {
		cp.HandOrder[p] = append([]string(nil), order...)
	}
	for p, order := range s.LibraryOrder {
		cp.LibraryOrder[p] = append([]string(nil), order...)
	}
	for p, order := range s.SideboardOrder {
		cp.SideboardOrder[p] = append([]string(nil), order...)
	}
	for id, ident := range s.FaceDownBattlefield {
		cp.FaceDownBattlefield[id] = ident
	}
	for id, r := range s.HandReveals {
		cp.HandReveals[id] = cloneReveal(r)
	}
	for id, r := range s.LibraryReveals {
		cp.LibraryReveals[id] = cloneReveal(r)
	}
	for id, r := range s.FaceDownReveals {
		cp.FaceDownReveals[id] = cloneReveal(r)
	}
	return cp
}

func cloneReveal(r Reveal) Reveal {
	return Reveal{ToAll: r.ToAll, ToPlayers: append([]string(nil), r.ToPlayers...)}
}

// orderMap returns the order map for a hidden zone type.
func (s *State) orderMap(t document.ZoneType) (map[string][]string, bool) {
	switch t.Normalize() {
	case document.ZoneHand:
		return s.HandOrder, true
	case document.ZoneLibrary:
		return s.LibraryOrder, true
	case document.ZoneSideboard:
		return s.SideboardOrder, true
	}
	return nil, false
}

// Order returns a copy of the order list for a player's hidden zone.
func (s *State) Order(t document.ZoneType, playerID string) []string {
	m, ok := s.orderMap(t)
	if !ok {
		return nil
	}
	return append([]string(nil), m[playerID]...)
}

// SetOrder replaces a player's order list outright, used by reorder intents.
func (s *State) SetOrder(t document.ZoneType, playerID string, order []string) {
	if m, ok := s.orderMap(t); ok {
		m[playerID] = append([]string(nil), order...)
	}
}

// InsertOrder places a card id into a player's hidden-zone order. Index
// takes precedence over placement when non-negative; top is the default.
func (s *State) InsertOrder(t document.ZoneType, playerID, cardID string, placement document.Placement, index int) {
	m, ok := s.orderMap(t)
	if !ok {
		return
	}
	order := removeID(m[playerID], cardID)
	switch {
	case index >= 0:
		if index > len(order) {
			index = len(order)
		}
		order = append(order, "")
		copy(order[index+1:], order[index:])
		order[index] = cardID
	case placement == document.PlacementBottom:
		order = append(order, cardID)
	default:
		order = append([]string{cardID}, order...)
	}
	m[playerID] = order
}

// RemoveOrder drops a card id from a player's hidden-zone order, reporting
// whether it was present.
func (s *State) RemoveOrder(t document.ZoneType, playerID, cardID string) bool {
	m, ok := s.orderMap(t)
	if !ok {
		return false
	}
	before := len(m[playerID])
	m[playerID] = removeID(m[playerID], cardID)
	return len(m[playerID]) != before
}

func removeID(order []string, cardID string) []string {
	for i, id := range order {
		if id == cardID {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

// UpdatePlayerCounts recomputes a player's cached hidden-zone counts from
// the order-list lengths, the sole legitimate count source.
func (s *State) UpdatePlayerCounts(doc *document.Doc, playerID string) {
	p, ok := doc.Player(playerID)
	if !ok {
		return
	}
	p.HandCount = len(s.HandOrder[playerID])
	p.LibraryCount = len(s.LibraryOrder[playerID])
	p.SideboardCount = len(s.SideboardOrder[playerID])
}

// RemovePlayer drops all hidden bookkeeping for a departing player. The
// player's card records themselves are handled by the caller.
func (s *State) RemovePlayer(playerID string) {
	delete(s.HandOrder, playerID)
	delete(s.LibraryOrder, playerID)
	delete(s.SideboardOrder, playerID)
}
