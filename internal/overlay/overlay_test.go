package overlay

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hansy/snapstack-sub000/internal/document"
	"github.com/hansy/snapstack-sub000/internal/hidden"
)

func fixture() (*document.Doc, *hidden.State) {
	doc := document.NewDoc("room-1", 4)
	doc.Players["p1"] = &document.Player{ID: "p1"}
	doc.Players["p2"] = &document.Player{ID: "p2"}
	for _, z := range []*document.Zone{
		{ID: "hand-p1", Type: document.ZoneHand, OwnerID: "p1"},
		{ID: "lib-p1", Type: document.ZoneLibrary, OwnerID: "p1"},
		{ID: "sb-p1", Type: document.ZoneSideboard, OwnerID: "p1"},
		{ID: "bf-p1", Type: document.ZoneBattlefield, OwnerID: "p1"},
		{ID: "hand-p2", Type: document.ZoneHand, OwnerID: "p2"},
	} {
		doc.Zones[z.ID] = z
	}
	return doc, hidden.NewState()
}

func addHiddenCard(hid *hidden.State, id, owner string, zt document.ZoneType, zoneID, name string) {
	hid.Cards[id] = &document.Card{
		ID: id, OwnerID: owner, ControllerID: owner, ZoneID: zoneID, Name: name,
	}
	hid.InsertOrder(zt, owner, id, document.PlacementBottom, -1)
}

func cardIDs(snap Snapshot) []string {
	ids := make([]string, 0, len(snap.Cards))
	for _, c := range snap.Cards {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestBuildOwnerSeesOwnHand(t *testing.T) {
	doc, hid := fixture()
	addHiddenCard(hid, "h1", "p1", document.ZoneHand, "hand-p1", "Opt")
	addHiddenCard(hid, "h2", "p2", document.ZoneHand, "hand-p2", "Ponder")

	snap := Build(doc, hid, Viewer{ID: "p1", Role: RolePlayer})
	assert.Equal(t, []string{"h1"}, cardIDs(snap))
	assert.Equal(t, []string{"h1"}, snap.ZoneCardOrders["hand-p1"])
	assert.NotContains(t, snap.ZoneCardOrders, "hand-p2")
}

func TestBuildSpectatorSeesAllHands(t *testing.T) {
	doc, hid := fixture()
	addHiddenCard(hid, "h1", "p1", document.ZoneHand, "hand-p1", "Opt")
	addHiddenCard(hid, "h2", "p2", document.ZoneHand, "hand-p2", "Ponder")
	addHiddenCard(hid, "l1", "p1", document.ZoneLibrary, "lib-p1", "Secret")

	snap := Build(doc, hid, Viewer{Role: RoleSpectator})
	assert.ElementsMatch(t, []string{"h1", "h2"}, cardIDs(snap))
}

func TestBuildLibraryStaysHiddenWithoutEntitlement(t *testing.T) {
	doc, hid := fixture()
	addHiddenCard(hid, "l1", "p1", document.ZoneLibrary, "lib-p1", "Secret")

	for _, v := range []Viewer{
		{ID: "p1", Role: RolePlayer},
		{ID: "p2", Role: RolePlayer},
		{Role: RoleSpectator},
	} {
		snap := Build(doc, hid, v)
		assert.Empty(t, snap.Cards, "viewer %+v must not see library contents", v)
	}
}

func TestBuildLibraryTopRevealModes(t *testing.T) {
	doc, hid := fixture()
	addHiddenCard(hid, "l1", "p1", document.ZoneLibrary, "lib-p1", "Top")
	addHiddenCard(hid, "l2", "p1", document.ZoneLibrary, "lib-p1", "Below")

	doc.Players["p1"].LibraryTopReveal = document.LibraryTopRevealAll
	snap := Build(doc, hid, Viewer{ID: "p2", Role: RolePlayer})
	assert.Equal(t, []string{"l1"}, cardIDs(snap))

	// Mode "self" hides the top card from everyone but the owner.
	doc.Players["p1"].LibraryTopReveal = document.LibraryTopRevealSelf
	snap = Build(doc, hid, Viewer{ID: "p2", Role: RolePlayer})
	assert.Empty(t, snap.Cards)
	snap = Build(doc, hid, Viewer{ID: "p1", Role: RolePlayer})
	assert.Equal(t, []string{"l1"}, cardIDs(snap))
	// Spectators are not the owner.
	snap = Build(doc, hid, Viewer{Role: RoleSpectator})
	assert.Empty(t, snap.Cards)
}

func TestBuildLibraryTopNWindow(t *testing.T) {
	doc, hid := fixture()
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("l%d", i)
		addHiddenCard(hid, id, "p1", document.ZoneLibrary, "lib-p1", "Card")
	}

	snap := Build(doc, hid, Viewer{ID: "p1", Role: RolePlayer, LibraryTop: 3})
	assert.Len(t, snap.Cards, 3)
	assert.Equal(t, []string{"l0", "l1", "l2"}, snap.ZoneCardOrders["lib-p1"])

	// The window never applies to spectators.
	snap = Build(doc, hid, Viewer{Role: RoleSpectator, LibraryTop: 3})
	assert.Empty(t, snap.Cards)
}

func TestBuildFaceDownVisibility(t *testing.T) {
	doc, hid := fixture()
	doc.Cards["fd"] = &document.Card{
		ID: "fd", OwnerID: "p1", ControllerID: "p1", ZoneID: "bf-p1", FaceDown: true,
	}
	doc.Zones["bf-p1"].InsertCard("fd", document.PlacementBottom, -1)
	hid.FaceDownBattlefield["fd"] = document.Identity{Name: "Hidden Dragon", Power: "5", Toughness: "5"}

	// Controller sees the identity.
	snap := Build(doc, hid, Viewer{ID: "p1", Role: RolePlayer})
	require.Len(t, snap.Cards, 1)
	assert.Equal(t, "Hidden Dragon", snap.Cards[0].Name)
	assert.Equal(t, "5", snap.Cards[0].Power)

	// Opponents do not.
	snap = Build(doc, hid, Viewer{ID: "p2", Role: RolePlayer})
	assert.Empty(t, snap.Cards)

	// A targeted reveal grants it.
	hid.FaceDownReveals["fd"] = hidden.Reveal{ToPlayers: []string{"p2"}}
	snap = Build(doc, hid, Viewer{ID: "p2", Role: RolePlayer})
	require.Len(t, snap.Cards, 1)
	assert.Equal(t, "Hidden Dragon", snap.Cards[0].Name)
}

func TestBuildRevealGrants(t *testing.T) {
	doc, hid := fixture()
	addHiddenCard(hid, "h1", "p1", document.ZoneHand, "hand-p1", "Opt")
	hid.HandReveals["h1"] = hidden.Reveal{ToPlayers: []string{"p2"}}

	snap := Build(doc, hid, Viewer{ID: "p2", Role: RolePlayer})
	assert.Equal(t, []string{"h1"}, cardIDs(snap))

	snap = Build(doc, hid, Viewer{ID: "p3", Role: RolePlayer})
	assert.Empty(t, snap.Cards)
}

func TestBuildDeterministic(t *testing.T) {
	doc, hid := fixture()
	addHiddenCard(hid, "h2", "p1", document.ZoneHand, "hand-p1", "B")
	addHiddenCard(hid, "h1", "p1", document.ZoneHand, "hand-p1", "A")

	a := Build(doc, hid, Viewer{ID: "p1", Role: RolePlayer})
	b := Build(doc, hid, Viewer{ID: "p1", Role: RolePlayer})
	assert.Equal(t, a, b)
	// Cards come back sorted by id regardless of insertion order.
	assert.Equal(t, []string{"h1", "h2"}, cardIDs(a))
}

func TestTrackerFirstMessageIsSnapshot(t *testing.T) {
	doc, hid := fixture()
	addHiddenCard(hid, "h1", "p1", document.ZoneHand, "hand-p1", "Opt")

	tr := NewTracker("room-1", "p1", 0, 0)
	msg, err := tr.Advance(Build(doc, hid, Viewer{ID: "p1", Role: RolePlayer}))
	require.NoError(t, err)
	require.NotNil(t, msg.Snapshot)
	assert.Equal(t, MessageTypeSnapshot, msg.Type)
	assert.Equal(t, uint64(1), msg.Snapshot.OverlayVersion)
	assert.Equal(t, SchemaVersion, msg.Snapshot.SchemaVersion)
}

func applyDiff(base map[string]CardLite, orders map[string][]string, msg Message) {
	if msg.Snapshot != nil {
		for id := range base {
			delete(base, id)
		}
		for id := range orders {
			delete(orders, id)
		}
		for _, c := range msg.Snapshot.Cards {
			base[c.ID] = c
		}
		for z, o := range msg.Snapshot.ZoneCardOrders {
			orders[z] = o
		}
		return
	}
	for _, c := range msg.Diff.Upserts {
		base[c.ID] = c
	}
	for _, id := range msg.Diff.Removes {
		delete(base, id)
	}
	for z, o := range msg.Diff.ZoneCardOrders {
		orders[z] = o
	}
	for _, z := range msg.Diff.ZoneOrderRemovals {
		delete(orders, z)
	}
}

// bigHand fills p1's hand with cards whose text makes the full snapshot
// much heavier than a one-card diff.
func bigHand(hid *hidden.State, n int) {
	text := strings.Repeat("lorem ipsum ", 12)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("h%02d", i)
		addHiddenCard(hid, id, "p1", document.ZoneHand, "hand-p1", "Card")
		hid.Cards[id].Text = text
	}
}

func TestTrackerDiffReconstructsSnapshot(t *testing.T) {
	doc, hid := fixture()
	bigHand(hid, 20)

	tr := NewTracker("room-1", "p1", 0, 0)
	viewer := Viewer{ID: "p1", Role: RolePlayer}

	state := make(map[string]CardLite)
	orders := make(map[string][]string)

	msg, err := tr.Advance(Build(doc, hid, viewer))
	require.NoError(t, err)
	applyDiff(state, orders, msg)

	// Mutate: one card leaves, one changes name.
	hid.RemoveOrder(document.ZoneHand, "p1", "h19")
	delete(hid.Cards, "h19")
	hid.Cards["h00"].Name = "Renamed"

	fresh := Build(doc, hid, viewer)
	msg, err = tr.Advance(fresh)
	require.NoError(t, err)
	require.NotNil(t, msg.Diff, "small change should ship as a diff")
	assert.Equal(t, uint64(1), msg.Diff.BaseOverlayVersion)
	assert.Equal(t, uint64(2), msg.Diff.OverlayVersion)
	assert.Equal(t, []string{"h19"}, msg.Diff.Removes)
	require.Len(t, msg.Diff.Upserts, 1)
	assert.Equal(t, "Renamed", msg.Diff.Upserts[0].Name)
	applyDiff(state, orders, msg)

	// Replaying the diff over the old state reproduces the fresh snapshot.
	require.Len(t, state, len(fresh.Cards))
	for _, c := range fresh.Cards {
		assert.Equal(t, c, state[c.ID])
	}
	assert.Equal(t, fresh.ZoneCardOrders["hand-p1"], orders["hand-p1"])
}

func TestTrackerNoChangeEmitsEmptyDiff(t *testing.T) {
	doc, hid := fixture()
	bigHand(hid, 20)

	tr := NewTracker("room-1", "p1", 0, 0)
	viewer := Viewer{ID: "p1", Role: RolePlayer}
	_, err := tr.Advance(Build(doc, hid, viewer))
	require.NoError(t, err)

	msg, err := tr.Advance(Build(doc, hid, viewer))
	require.NoError(t, err)
	require.NotNil(t, msg.Diff)
	assert.Empty(t, msg.Diff.Upserts)
	assert.Empty(t, msg.Diff.Removes)
	assert.Empty(t, msg.Diff.ZoneCardOrders)
}

func TestTrackerLargeDiffFallsBackToSnapshot(t *testing.T) {
	doc, hid := fixture()
	for i := 0; i < 30; i++ {
		addHiddenCard(hid, fmt.Sprintf("h%02d", i), "p1", document.ZoneHand, "hand-p1", "Card")
	}

	tr := NewTracker("room-1", "p1", 0, 0)
	viewer := Viewer{ID: "p1", Role: RolePlayer}
	_, err := tr.Advance(Build(doc, hid, viewer))
	require.NoError(t, err)

	// Rewriting every card makes the diff as large as the snapshot, so the
	// tracker must fall back to a full resync.
	for _, c := range hid.Cards {
		c.Name = "Completely Different"
	}
	msg, err := tr.Advance(Build(doc, hid, viewer))
	require.NoError(t, err)
	assert.NotNil(t, msg.Snapshot)
	assert.Equal(t, MessageTypeSnapshot, msg.Type)
}

func TestTrackerOrderVersionsBump(t *testing.T) {
	doc, hid := fixture()
	bigHand(hid, 20)

	tr := NewTracker("room-1", "p1", 0, 0)
	viewer := Viewer{ID: "p1", Role: RolePlayer}
	msg, err := tr.Advance(Build(doc, hid, viewer))
	require.NoError(t, err)
	v1 := msg.Snapshot.ZoneCardOrderVersions["hand-p1"]

	// Swap the first two cards; the contents are unchanged so the diff
	// carries the new order and nothing else.
	order := hid.Order(document.ZoneHand, "p1")
	order[0], order[1] = order[1], order[0]
	hid.SetOrder(document.ZoneHand, "p1", order)

	msg, err = tr.Advance(Build(doc, hid, viewer))
	require.NoError(t, err)
	require.NotNil(t, msg.Diff)
	assert.Empty(t, msg.Diff.Upserts)
	assert.Equal(t, v1+1, msg.Diff.ZoneCardOrderVersions["hand-p1"])
	assert.Equal(t, order, msg.Diff.ZoneCardOrders["hand-p1"])
}
