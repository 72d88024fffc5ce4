package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoneInsertCard(t *testing.T) {
	z := &Zone{ID: "z1", Type: ZoneBattlefield, OwnerID: "p1"}

	z.InsertCard("a", PlacementBottom, -1)
	z.InsertCard("b", PlacementTop, -1)
	z.InsertCard("c", PlacementBottom, -1)
	assert.Equal(t, []string{"b", "a", "c"}, z.CardIDs)

	// Index wins over placement; out-of-range clamps to the end.
	z.InsertCard("d", PlacementTop, 1)
	assert.Equal(t, []string{"b", "d", "a", "c"}, z.CardIDs)
	z.InsertCard("e", PlacementTop, 99)
	assert.Equal(t, []string{"b", "d", "a", "c", "e"}, z.CardIDs)

	// Re-inserting moves rather than duplicating.
	z.InsertCard("c", PlacementTop, -1)
	assert.Equal(t, []string{"c", "b", "d", "a", "e"}, z.CardIDs)

	assert.True(t, z.RemoveCard("d"))
	assert.False(t, z.RemoveCard("missing"))
	assert.True(t, z.Contains("a"))
	assert.False(t, z.Contains("d"))
}

func TestZoneForNormalizesLegacyCommander(t *testing.T) {
	doc := NewDoc("room-1", 4)
	doc.Zones["cmd-p1"] = &Zone{ID: "cmd-p1", Type: "command", OwnerID: "p1"}

	z, ok := doc.ZoneFor("p1", ZoneCommander)
	require.True(t, ok)
	assert.Equal(t, "cmd-p1", z.ID)

	// Unknown zone types are invalid and never hidden.
	assert.False(t, ZoneType("junk").Valid())
	assert.True(t, ZoneHand.Hidden())
	assert.True(t, ZoneLibrary.Hidden())
	assert.True(t, ZoneSideboard.Hidden())
	assert.False(t, ZoneBattlefield.Hidden())
}

func TestHostID(t *testing.T) {
	doc := NewDoc("room-1", 4)
	_, ok := doc.HostID()
	assert.False(t, ok)

	doc.Players["p2"] = &Player{ID: "p2"}
	doc.Players["p1"] = &Player{ID: "p1", IsHost: true}
	host, ok := doc.HostID()
	require.True(t, ok)
	assert.Equal(t, "p1", host)

	assert.Equal(t, []string{"p1", "p2"}, doc.PlayerIDs())
}

func TestCloneIsIndependent(t *testing.T) {
	doc := NewDoc("room-1", 4)
	doc.Players["p1"] = &Player{ID: "p1", Life: 40, Counters: map[string]int{"poison": 2}}
	doc.Zones["bf-p1"] = &Zone{ID: "bf-p1", Type: ZoneBattlefield, OwnerID: "p1", CardIDs: []string{"c1"}}
	doc.Cards["c1"] = &Card{ID: "c1", OwnerID: "p1", ZoneID: "bf-p1", Counters: map[string]int{"+1/+1": 1}}
	doc.HandRevealsToAll["h1"] = Identity{Name: "Opt"}

	clone := doc.Clone()
	clone.Players["p1"].Life = 1
	clone.Players["p1"].Counters["poison"] = 9
	clone.Zones["bf-p1"].CardIDs[0] = "mutated"
	clone.Cards["c1"].Counters["+1/+1"] = 5
	delete(clone.HandRevealsToAll, "h1")

	assert.Equal(t, 40, doc.Players["p1"].Life)
	assert.Equal(t, 2, doc.Players["p1"].Counters["poison"])
	assert.Equal(t, []string{"c1"}, doc.Zones["bf-p1"].CardIDs)
	assert.Equal(t, 1, doc.Cards["c1"].Counters["+1/+1"])
	assert.Contains(t, doc.HandRevealsToAll, "h1")
}
