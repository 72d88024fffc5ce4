package hidden

import (
	"sort"

	"github.com/hansy/snapstack-sub000/internal/cardops"
	"github.com/hansy/snapstack-sub000/internal/document"
)

// BuildReveal normalizes a raw reveal request into its canonical form:
// targets deduplicated, sorted, owner excluded, capped at MaxRevealTargets.
// A toAll grant drops the explicit target list entirely.
func BuildReveal(ownerID string, toAll bool, to []string) Reveal {
	if toAll {
		return Reveal{ToAll: true}
	}
	seen := make(map[string]bool, len(to))
	targets := make([]string, 0, len(to))
	for _, id := range to {
		if id == "" || id == ownerID || seen[id] {
			continue
		}
		seen[id] = true
		targets = append(targets, id)
	}
	sort.Strings(targets)
	if len(targets) > MaxRevealTargets {
		targets = targets[:MaxRevealTargets]
	}
	return Reveal{ToPlayers: targets}
}

// SetHandReveal records a hand reveal and keeps the public mirror in sync.
func (s *State) SetHandReveal(doc *document.Doc, cardID string, r Reveal) {
	s.setReveal(doc, s.HandReveals, doc.HandRevealsToAll, cardID, r, s.identityOf(cardID))
}

// SetLibraryReveal records a library reveal; the public mirror picks up
// explicit toAll grants (top-reveal mode is handled by SyncLibraryRevealsToAll).
func (s *State) SetLibraryReveal(doc *document.Doc, cardID string, r Reveal) {
	s.setReveal(doc, s.LibraryReveals, doc.LibraryRevealsToAll, cardID, r, s.identityOf(cardID))
}

// SetFaceDownReveal records a face-down battlefield reveal using the stored
// identity snapshot.
func (s *State) SetFaceDownReveal(doc *document.Doc, cardID string, r Reveal) {
	ident, ok := s.FaceDownBattlefield[cardID]
	if !ok {
		return
	}
	s.setReveal(doc, s.FaceDownReveals, doc.FaceDownRevealsToAll, cardID, r, ident)
}

func (s *State) setReveal(doc *document.Doc, reveals map[string]Reveal, mirror map[string]document.Identity, cardID string, r Reveal, ident document.Identity) {
	if !r.ToAll && len(r.ToPlayers) == 0 {
		delete(reveals, cardID)
		delete(mirror, cardID)
		return
	}
	reveals[cardID] = r
	if r.ToAll {
		mirror[cardID] = ident
	} else {
		delete(mirror, cardID)
	}
}

func (s *State) identityOf(cardID string) document.Identity {
	if c, ok := s.Cards[cardID]; ok {
		return cardops.IdentitySnapshot(c)
	}
	return document.Identity{}
}

// HasRevealsFor reports whether any reveal bookkeeping exists for a card.
func (s *State) HasRevealsFor(cardID string) bool {
	if _, ok := s.HandReveals[cardID]; ok {
		return true
	}
	if _, ok := s.LibraryReveals[cardID]; ok {
		return true
	}
	_, ok := s.FaceDownReveals[cardID]
	return ok
}

// ClearCardReveals drops every reveal grant and mirror entry for a card.
// Called on any zone exit: a new zone starts with a clean slate.
func (s *State) ClearCardReveals(doc *document.Doc, cardID string) {
	delete(s.HandReveals, cardID)
	delete(s.LibraryReveals, cardID)
	delete(s.FaceDownReveals, cardID)
	delete(doc.HandRevealsToAll, cardID)
	delete(doc.LibraryRevealsToAll, cardID)
	delete(doc.FaceDownRevealsToAll, cardID)
}

// SyncLibraryRevealsToAll recomputes the public library mirror for one
// player: cards with an explicit toAll grant plus the current top card when
// the player's top-reveal mode is "all". Stale entries for cards that left
// the top or lost their grant are removed.
func (s *State) SyncLibraryRevealsToAll(doc *document.Doc, playerID string) {
	p, ok := doc.Player(playerID)
	if !ok {
		return
	}

	wanted := make(map[string]document.Identity)
	for _, cardID := range s.LibraryOrder[playerID] {
		if r, ok := s.LibraryReveals[cardID]; ok && r.ToAll {
			wanted[cardID] = s.identityOf(cardID)
		}
	}
	if p.LibraryTopReveal == document.LibraryTopRevealAll {
		if order := s.LibraryOrder[playerID]; len(order) > 0 {
			top := order[0]
			wanted[top] = s.identityOf(top)
		}
	}

	for cardID := range doc.LibraryRevealsToAll {
		owner := ""
		if c, ok := s.Cards[cardID]; ok {
			owner = c.OwnerID
		} else if c, ok := doc.Card(cardID); ok {
			// The card left the hidden partition entirely; whatever mirror
			// entry it had is stale now.
			owner = c.OwnerID
		}
		if owner != playerID {
			continue
		}
		if _, keep := wanted[cardID]; !keep {
			delete(doc.LibraryRevealsToAll, cardID)
		}
	}
	for cardID, ident := range wanted {
		doc.LibraryRevealsToAll[cardID] = ident
	}
}
