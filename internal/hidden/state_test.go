package hidden

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hansy/snapstack-sub000/internal/document"
)

func TestOrderInsertAndRemove(t *testing.T) {
	s := NewState()

	s.InsertOrder(document.ZoneLibrary, "p1", "c1", document.PlacementTop, -1)
	s.InsertOrder(document.ZoneLibrary, "p1", "c2", document.PlacementTop, -1)
	s.InsertOrder(document.ZoneLibrary, "p1", "c3", document.PlacementBottom, -1)
	assert.Equal(t, []string{"c2", "c1", "c3"}, s.Order(document.ZoneLibrary, "p1"))

	// Index beats placement and clamps to the end.
	s.InsertOrder(document.ZoneLibrary, "p1", "c4", document.PlacementTop, 1)
	assert.Equal(t, []string{"c2", "c4", "c1", "c3"}, s.Order(document.ZoneLibrary, "p1"))
	s.InsertOrder(document.ZoneLibrary, "p1", "c5", document.PlacementTop, 99)
	assert.Equal(t, []string{"c2", "c4", "c1", "c3", "c5"}, s.Order(document.ZoneLibrary, "p1"))

	// Re-inserting moves instead of duplicating.
	s.InsertOrder(document.ZoneLibrary, "p1", "c3", document.PlacementTop, -1)
	assert.Equal(t, []string{"c3", "c2", "c4", "c1", "c5"}, s.Order(document.ZoneLibrary, "p1"))

	assert.True(t, s.RemoveOrder(document.ZoneLibrary, "p1", "c4"))
	assert.False(t, s.RemoveOrder(document.ZoneLibrary, "p1", "missing"))
}

func TestUpdatePlayerCountsFromOrders(t *testing.T) {
	doc := document.NewDoc("room-1", 4)
	doc.Players["p1"] = &document.Player{ID: "p1"}

	s := NewState()
	s.HandOrder["p1"] = []string{"h1", "h2"}
	s.LibraryOrder["p1"] = []string{"l1", "l2", "l3"}
	s.SideboardOrder["p1"] = []string{"s1"}

	s.UpdatePlayerCounts(doc, "p1")
	assert.Equal(t, 2, doc.Players["p1"].HandCount)
	assert.Equal(t, 3, doc.Players["p1"].LibraryCount)
	assert.Equal(t, 1, doc.Players["p1"].SideboardCount)
}

func TestBuildRevealNormalizes(t *testing.T) {
	r := BuildReveal("owner", false, []string{"p3", "p2", "p2", "", "owner", "p1"})
	assert.False(t, r.ToAll)
	assert.Equal(t, []string{"p1", "p2", "p3"}, r.ToPlayers)
}

func TestBuildRevealCapsTargets(t *testing.T) {
	targets := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		targets = append(targets, fmt.Sprintf("p%02d", i))
	}
	r := BuildReveal("owner", false, targets)
	assert.Len(t, r.ToPlayers, MaxRevealTargets)
}

func TestBuildRevealToAllDropsTargets(t *testing.T) {
	r := BuildReveal("owner", true, []string{"p1", "p2"})
	assert.True(t, r.ToAll)
	assert.Empty(t, r.ToPlayers)
	assert.True(t, r.Includes("anyone"))
}

func TestSetHandRevealSyncsMirror(t *testing.T) {
	doc := document.NewDoc("room-1", 4)
	s := NewState()
	s.Cards["c1"] = &document.Card{ID: "c1", OwnerID: "p1", Name: "Sol Ring"}

	s.SetHandReveal(doc, "c1", Reveal{ToAll: true})
	require.Contains(t, doc.HandRevealsToAll, "c1")
	assert.Equal(t, "Sol Ring", doc.HandRevealsToAll["c1"].Name)

	// Narrowing to explicit targets removes the public mirror entry.
	s.SetHandReveal(doc, "c1", Reveal{ToPlayers: []string{"p2"}})
	assert.NotContains(t, doc.HandRevealsToAll, "c1")
	assert.True(t, s.HandReveals["c1"].Includes("p2"))

	// An empty reveal clears the grant entirely.
	s.SetHandReveal(doc, "c1", Reveal{})
	assert.NotContains(t, s.HandReveals, "c1")
}

func TestClearCardReveals(t *testing.T) {
	doc := document.NewDoc("room-1", 4)
	s := NewState()
	s.Cards["c1"] = &document.Card{ID: "c1", OwnerID: "p1", Name: "Opt"}
	s.SetHandReveal(doc, "c1", Reveal{ToAll: true})
	s.LibraryReveals["c1"] = Reveal{ToAll: true}
	doc.LibraryRevealsToAll["c1"] = document.Identity{Name: "Opt"}

	require.True(t, s.HasRevealsFor("c1"))
	s.ClearCardReveals(doc, "c1")
	assert.False(t, s.HasRevealsFor("c1"))
	assert.Empty(t, doc.HandRevealsToAll)
	assert.Empty(t, doc.LibraryRevealsToAll)
}

func TestSyncLibraryRevealsToAllTopMode(t *testing.T) {
	doc := document.NewDoc("room-1", 4)
	doc.Players["p1"] = &document.Player{ID: "p1", LibraryTopReveal: document.LibraryTopRevealAll}

	s := NewState()
	s.Cards["l1"] = &document.Card{ID: "l1", OwnerID: "p1", Name: "Top Card"}
	s.Cards["l2"] = &document.Card{ID: "l2", OwnerID: "p1", Name: "Second Card"}
	s.LibraryOrder["p1"] = []string{"l1", "l2"}

	s.SyncLibraryRevealsToAll(doc, "p1")
	require.Contains(t, doc.LibraryRevealsToAll, "l1")
	assert.Equal(t, "Top Card", doc.LibraryRevealsToAll["l1"].Name)
	assert.NotContains(t, doc.LibraryRevealsToAll, "l2")

	// A new top card replaces the stale entry.
	s.LibraryOrder["p1"] = []string{"l2", "l1"}
	s.SyncLibraryRevealsToAll(doc, "p1")
	assert.NotContains(t, doc.LibraryRevealsToAll, "l1")
	assert.Contains(t, doc.LibraryRevealsToAll, "l2")

	// Turning the mode off clears the mirror.
	doc.Players["p1"].LibraryTopReveal = document.LibraryTopRevealUnset
	s.SyncLibraryRevealsToAll(doc, "p1")
	assert.Empty(t, doc.LibraryRevealsToAll)
}

func TestSyncLibraryRevealsDropsDepartedCards(t *testing.T) {
	doc := document.NewDoc("room-1", 4)
	doc.Players["p1"] = &document.Player{ID: "p1", LibraryTopReveal: document.LibraryTopRevealAll}

	s := NewState()
	s.Cards["l1"] = &document.Card{ID: "l1", OwnerID: "p1", Name: "Top Card"}
	s.LibraryOrder["p1"] = []string{"l1"}
	s.SyncLibraryRevealsToAll(doc, "p1")
	require.Contains(t, doc.LibraryRevealsToAll, "l1")

	// The card leaves the hidden partition for the public document, the way
	// a play onto the battlefield moves it. Its mirror entry is stale even
	// though the card is no longer in s.Cards.
	doc.Cards["l1"] = s.Cards["l1"]
	delete(s.Cards, "l1")
	s.LibraryOrder["p1"] = nil

	s.SyncLibraryRevealsToAll(doc, "p1")
	assert.NotContains(t, doc.LibraryRevealsToAll, "l1")
}

func TestSyncLibraryRevealsKeepsOtherPlayersEntries(t *testing.T) {
	doc := document.NewDoc("room-1", 4)
	doc.Players["p1"] = &document.Player{ID: "p1"}

	s := NewState()
	s.Cards["l1"] = &document.Card{ID: "l1", OwnerID: "p1", Name: "Mine"}
	s.LibraryOrder["p1"] = []string{"l1"}
	doc.LibraryRevealsToAll["other"] = document.Identity{Name: "Theirs"}

	s.SyncLibraryRevealsToAll(doc, "p1")
	assert.Contains(t, doc.LibraryRevealsToAll, "other")
}

func TestChunkCardsRespectsLimit(t *testing.T) {
	s := NewState()
	text := strings.Repeat("x", 500)
	for i := 0; i < 300; i++ {
		id := fmt.Sprintf("card-%03d", i)
		s.Cards[id] = &document.Card{ID: id, OwnerID: "p1", Name: "Filler", Text: text}
	}

	const limit = 120000
	chunks, err := s.ChunkCards(limit)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	seen := make(map[string]bool)
	for _, c := range chunks {
		data, err := MarshalChunk(c)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(data), limit)
		for id := range c.Cards {
			assert.False(t, seen[id], "card %s appears in more than one chunk", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, 300)
}

func TestChunkCardsLimitTooSmall(t *testing.T) {
	s := NewState()
	_, err := s.ChunkCards(8)
	assert.Error(t, err)
}

func TestChunkRoundTrip(t *testing.T) {
	s := NewState()
	s.Cards["c1"] = &document.Card{ID: "c1", OwnerID: "p1", Name: "Opt"}
	s.Cards["c2"] = &document.Card{ID: "c2", OwnerID: "p1", Name: "Ponder"}
	s.LibraryOrder["p1"] = []string{"c1", "c2"}
	s.HandReveals["c1"] = Reveal{ToPlayers: []string{"p2"}}
	s.FaceDownBattlefield["fd"] = document.Identity{Name: "Morph"}

	metaData, err := s.MarshalMeta()
	require.NoError(t, err)
	chunks, err := s.ChunkCards(120000)
	require.NoError(t, err)
	var chunkData [][]byte
	for _, c := range chunks {
		data, err := MarshalChunk(c)
		require.NoError(t, err)
		chunkData = append(chunkData, data)
	}

	restored, err := UnmarshalState(metaData, chunkData)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, restored.LibraryOrder["p1"])
	assert.Equal(t, "Opt", restored.Cards["c1"].Name)
	assert.Equal(t, "Ponder", restored.Cards["c2"].Name)
	assert.True(t, restored.HandReveals["c1"].Includes("p2"))
	assert.Equal(t, "Morph", restored.FaceDownBattlefield["fd"].Name)
}

func TestMigrateFromPublic(t *testing.T) {
	doc := document.NewDoc("room-1", 4)
	doc.Meta.HiddenMigrated = false
	doc.Players["p1"] = &document.Player{ID: "p1"}
	doc.Zones["hand-p1"] = &document.Zone{
		ID: "hand-p1", Type: document.ZoneHand, OwnerID: "p1",
		CardIDs: []string{"h1", "h2"},
	}
	doc.Zones["bf-p1"] = &document.Zone{
		ID: "bf-p1", Type: document.ZoneBattlefield, OwnerID: "p1",
		CardIDs: []string{"b1"},
	}
	doc.Cards["h1"] = &document.Card{ID: "h1", OwnerID: "p1", ZoneID: "hand-p1"}
	doc.Cards["h2"] = &document.Card{ID: "h2", OwnerID: "p1", ZoneID: "hand-p1"}
	doc.Cards["b1"] = &document.Card{ID: "b1", OwnerID: "p1", ZoneID: "bf-p1"}

	s := NewState()
	s.MigrateFromPublic(doc)

	// Hidden-zone cards moved out of the public document.
	assert.NotContains(t, doc.Cards, "h1")
	assert.NotContains(t, doc.Cards, "h2")
	assert.Contains(t, doc.Cards, "b1")
	assert.Equal(t, []string{"h1", "h2"}, s.HandOrder["p1"])
	assert.Empty(t, doc.Zones["hand-p1"].CardIDs)
	assert.Equal(t, 2, doc.Players["p1"].HandCount)
	assert.True(t, doc.Meta.HiddenMigrated)

	// Running it again is a no-op.
	s.MigrateFromPublic(doc)
	assert.Contains(t, doc.Cards, "b1")
}
