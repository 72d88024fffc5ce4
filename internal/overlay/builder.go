// Package overlay reconstructs, per viewer, the entitled slice of hidden
// state merged with public state, and tracks per-connection diffs so
// broadcasts stay bandwidth-bounded. The CardLite projection is the only
// shape in which hidden information ever crosses the trust boundary.
package overlay

import (
	"sort"

	"github.com/hansy/snapstack-sub000/internal/document"
	"github.com/hansy/snapstack-sub000/internal/hidden"
)

// Role is the viewer's relationship to the room.
type Role string

const (
	RolePlayer    Role = "player"
	RoleSpectator Role = "spectator"
)

// Viewer identifies who an overlay is built for. LibraryTop is the viewer's
// current top-N library view request; it never applies to spectators.
type Viewer struct {
	ID         string
	Role       Role
	LibraryTop int
}

// CardLite is the redacted card projection sent to clients. Server-only
// bookkeeping fields never appear here.
type CardLite struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Text      string `json:"text,omitempty"`
	ZoneID    string `json:"zoneId"`
	OwnerID   string `json:"ownerId"`
	FaceIndex int    `json:"faceIndex,omitempty"`
	Power     string `json:"power,omitempty"`
	Toughness string `json:"toughness,omitempty"`
}

// Snapshot is one viewer's full overlay at a point in time.
type Snapshot struct {
	Cards          []CardLite
	ZoneCardOrders map[string][]string
}

// Build assembles the overlay for one viewer. Cards are deduplicated and
// sorted by id so identical entitlements always produce identical snapshots.
func Build(doc *document.Doc, hid *hidden.State, viewer Viewer) Snapshot {
	seen := make(map[string]CardLite)

	for _, playerID := range doc.PlayerIDs() {
		buildHand(doc, hid, viewer, playerID, seen)
		buildLibrary(doc, hid, viewer, playerID, seen)
		buildSideboard(doc, hid, viewer, playerID, seen)
	}
	buildFaceDown(doc, hid, viewer, seen)

	cards := make([]CardLite, 0, len(seen))
	for _, lite := range seen {
		cards = append(cards, lite)
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })

	return Snapshot{
		Cards:          cards,
		ZoneCardOrders: buildZoneOrders(doc, hid, viewer),
	}
}

func buildHand(doc *document.Doc, hid *hidden.State, viewer Viewer, playerID string, seen map[string]CardLite) {
	entitledToAll := viewer.Role == RoleSpectator || viewer.ID == playerID
	for _, cardID := range hid.HandOrder[playerID] {
		card, ok := hid.Cards[cardID]
		if !ok {
			continue
		}
		if entitledToAll || hid.HandReveals[cardID].Includes(viewer.ID) {
			seen[cardID] = liteFromCard(card)
		}
	}
}

func buildLibrary(doc *document.Doc, hid *hidden.State, viewer Viewer, playerID string, seen map[string]CardLite) {
	order := hid.LibraryOrder[playerID]
	if len(order) == 0 {
		return
	}

	// Top-reveal: mode "all" exposes the single top card to everyone,
	// mode "self" to the owner only.
	if p, ok := doc.Player(playerID); ok {
		switch p.LibraryTopReveal {
		case document.LibraryTopRevealAll:
			addLibraryCard(hid, order[0], seen)
		case document.LibraryTopRevealSelf:
			if viewer.ID == playerID && viewer.Role == RolePlayer {
				addLibraryCard(hid, order[0], seen)
			}
		}
	}

	// The owner's own top-N browse request. Spectators never get one.
	if viewer.Role == RolePlayer && viewer.ID == playerID && viewer.LibraryTop > 0 {
		n := viewer.LibraryTop
		if n > len(order) {
			n = len(order)
		}
		for _, cardID := range order[:n] {
			addLibraryCard(hid, cardID, seen)
		}
	}

	// Explicit per-card reveals targeted at this viewer.
	for _, cardID := range order {
		if hid.LibraryReveals[cardID].Includes(viewer.ID) {
			addLibraryCard(hid, cardID, seen)
		}
	}
}

func addLibraryCard(hid *hidden.State, cardID string, seen map[string]CardLite) {
	if card, ok := hid.Cards[cardID]; ok {
		seen[cardID] = liteFromCard(card)
	}
}

func buildSideboard(doc *document.Doc, hid *hidden.State, viewer Viewer, playerID string, seen map[string]CardLite) {
	if viewer.ID != playerID || viewer.Role != RolePlayer {
		return
	}
	for _, cardID := range hid.SideboardOrder[playerID] {
		if card, ok := hid.Cards[cardID]; ok {
			seen[cardID] = liteFromCard(card)
		}
	}
}

func buildFaceDown(doc *document.Doc, hid *hidden.State, viewer Viewer, seen map[string]CardLite) {
	for cardID, ident := range hid.FaceDownBattlefield {
		card, ok := doc.Card(cardID)
		if !ok {
			continue
		}
		entitled := viewer.Role == RoleSpectator ||
			card.ControllerID == viewer.ID ||
			hid.FaceDownReveals[cardID].Includes(viewer.ID)
		if !entitled {
			continue
		}
		seen[cardID] = CardLite{
			ID:        cardID,
			Name:      ident.Name,
			Text:      ident.Text,
			ZoneID:    card.ZoneID,
			OwnerID:   card.OwnerID,
			FaceIndex: ident.FaceIndex,
			Power:     ident.Power,
			Toughness: ident.Toughness,
		}
	}
}

func buildZoneOrders(doc *document.Doc, hid *hidden.State, viewer Viewer) map[string][]string {
	orders := make(map[string][]string)
	for _, playerID := range doc.PlayerIDs() {
		ownHand := viewer.Role == RoleSpectator || viewer.ID == playerID
		if ownHand {
			if zone, ok := doc.ZoneFor(playerID, document.ZoneHand); ok {
				if order := hid.HandOrder[playerID]; len(order) > 0 {
					orders[zone.ID] = append([]string(nil), order...)
				}
			}
		}
		if viewer.Role == RolePlayer && viewer.ID == playerID {
			if zone, ok := doc.ZoneFor(playerID, document.ZoneSideboard); ok {
				if order := hid.SideboardOrder[playerID]; len(order) > 0 {
					orders[zone.ID] = append([]string(nil), order...)
				}
			}
			if viewer.LibraryTop > 0 {
				if zone, ok := doc.ZoneFor(playerID, document.ZoneLibrary); ok {
					order := hid.LibraryOrder[playerID]
					n := viewer.LibraryTop
					if n > len(order) {
						n = len(order)
					}
					if n > 0 {
						orders[zone.ID] = append([]string(nil), order[:n]...)
					}
				}
			}
		}
	}
	if len(orders) == 0 {
		return nil
	}
	return orders
}

func liteFromCard(card *document.Card) CardLite {
	return CardLite{
		ID:        card.ID,
		Name:      card.Name,
		Text:      card.Text,
		ZoneID:    card.ZoneID,
		OwnerID:   card.OwnerID,
		FaceIndex: card.FaceIndex,
		Power:     card.Power,
		Toughness: card.Toughness,
	}
}
