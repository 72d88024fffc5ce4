package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hansy/snapstack-sub000/internal/document"
)

func testDoc() *document.Doc {
	doc := document.NewDoc("room-1", 4)
	doc.Zones["bf-p1"] = &document.Zone{ID: "bf-p1", Type: document.ZoneBattlefield, OwnerID: "p1"}
	doc.Zones["bf-p2"] = &document.Zone{ID: "bf-p2", Type: document.ZoneBattlefield, OwnerID: "p2"}
	doc.Zones["hand-p1"] = &document.Zone{ID: "hand-p1", Type: document.ZoneHand, OwnerID: "p1"}
	doc.Zones["lib-p2"] = &document.Zone{ID: "lib-p2", Type: document.ZoneLibrary, OwnerID: "p2"}
	doc.Zones["cmd-p2"] = &document.Zone{ID: "cmd-p2", Type: document.ZoneCommander, OwnerID: "p2"}
	return doc
}

func TestCanModifyCard(t *testing.T) {
	doc := testDoc()
	card := &document.Card{ID: "c1", OwnerID: "p1", ControllerID: "p1", ZoneID: "bf-p1"}

	assert.True(t, CanModifyCard(doc, "p1", card).Allowed)

	d := CanModifyCard(doc, "p2", card)
	assert.False(t, d.Allowed)
	assert.Equal(t, "You do not control this card", d.Reason)

	card.ZoneID = "hand-p1"
	d = CanModifyCard(doc, "p1", card)
	assert.False(t, d.Allowed)
	assert.Equal(t, "Card is not on a battlefield", d.Reason)
}

func TestCanUpdatePlayer(t *testing.T) {
	// Self-updates always pass.
	assert.True(t, CanUpdatePlayer("p1", "p1", FieldLife).Allowed)
	assert.True(t, CanUpdatePlayer("p1", "p1", FieldName).Allowed)

	// Commander damage is recorded on the victim by the attacker.
	assert.True(t, CanUpdatePlayer("p1", "p2", FieldCommanderDamage).Allowed)

	d := CanUpdatePlayer("p1", "p2", FieldLife)
	assert.False(t, d.Allowed)
	assert.Equal(t, "Cannot change another player's life total", d.Reason)

	d = CanUpdatePlayer("p1", "p2", FieldName)
	assert.Equal(t, "Cannot rename another player", d.Reason)

	d = CanUpdatePlayer("p1", "p2", FieldCounters)
	assert.Equal(t, "Cannot update another player", d.Reason)
}

func TestCanViewHiddenZone(t *testing.T) {
	zone := &document.Zone{ID: "lib-p2", Type: document.ZoneLibrary, OwnerID: "p2"}

	assert.True(t, CanViewHiddenZone("p2", zone).Allowed)

	d := CanViewHiddenZone("p1", zone)
	assert.False(t, d.Allowed)
	assert.Equal(t, "Cannot view a hidden zone you do not own", d.Reason)
}

func TestCanMoveCardBattlefieldToBattlefield(t *testing.T) {
	doc := testDoc()
	from := doc.Zones["bf-p1"]
	to := doc.Zones["bf-p2"]
	card := &document.Card{ID: "c1", OwnerID: "p1", ControllerID: "p1", ZoneID: "bf-p1"}

	assert.True(t, CanMoveCard(doc, "p1", card, from, to).Allowed)

	d := CanMoveCard(doc, "p3", card, from, to)
	assert.False(t, d.Allowed)
	assert.Equal(t, "Only the owner or controller may move this card", d.Reason)
}

func TestCanMoveCardIntoForeignHiddenZone(t *testing.T) {
	doc := testDoc()
	from := doc.Zones["bf-p1"]
	to := doc.Zones["lib-p2"]
	card := &document.Card{ID: "c1", OwnerID: "p1", ControllerID: "p1", ZoneID: "bf-p1"}

	d := CanMoveCard(doc, "p1", card, from, to)
	assert.False(t, d.Allowed)
	assert.Equal(t, "Cannot move a card into a hidden zone you do not own", d.Reason)

	// The zone owner can pull the card in.
	assert.True(t, CanMoveCard(doc, "p2", card, from, to).Allowed)
}

func TestCanMoveTokenOffBattlefield(t *testing.T) {
	doc := testDoc()
	from := doc.Zones["bf-p1"]
	to := doc.Zones["cmd-p2"]
	token := &document.Card{ID: "t1", OwnerID: "p1", ControllerID: "p2", ZoneID: "bf-p1", IsToken: true}

	d := CanMoveCard(doc, "p2", token, from, to)
	assert.False(t, d.Allowed)
	assert.Equal(t, "Only the owner may remove a token from the battlefield", d.Reason)
}

func TestCanMoveCardToForeignCommanderZone(t *testing.T) {
	doc := testDoc()
	from := doc.Zones["bf-p1"]
	to := doc.Zones["cmd-p2"]

	theirs := &document.Card{ID: "c1", OwnerID: "p1", ControllerID: "p1", ZoneID: "bf-p1"}
	d := CanMoveCard(doc, "p1", theirs, from, to)
	assert.False(t, d.Allowed)
	assert.Equal(t, "Cannot move another player's card to their commander zone", d.Reason)

	// Returning a card to its owner's commander zone is allowed for the owner
	// even when someone else currently controls it.
	ours := &document.Card{ID: "c2", OwnerID: "p2", ControllerID: "p1", ZoneID: "bf-p1"}
	assert.True(t, CanMoveCard(doc, "p2", ours, from, to).Allowed)
}

func TestCanAddCard(t *testing.T) {
	doc := testDoc()

	token := &document.Card{ID: "t1", OwnerID: "p1", IsToken: true}
	d := CanAddCard("p1", token, doc.Zones["hand-p1"])
	assert.False(t, d.Allowed)
	assert.Equal(t, "Tokens can only be created on the battlefield", d.Reason)
	assert.True(t, CanAddCard("p1", token, doc.Zones["bf-p1"]).Allowed)

	card := &document.Card{ID: "c1", OwnerID: "p1"}
	d = CanAddCard("p1", card, doc.Zones["lib-p2"])
	assert.False(t, d.Allowed)
	assert.Equal(t, "Cannot place into a hidden zone you do not own", d.Reason)

	d = CanAddCard("p2", card, doc.Zones["cmd-p2"])
	assert.False(t, d.Allowed)
	assert.Equal(t, "Card owner must match zone owner", d.Reason)
}

func TestCanRemoveCard(t *testing.T) {
	zone := &document.Zone{ID: "bf-p3", Type: document.ZoneBattlefield, OwnerID: "p3"}

	token := &document.Card{ID: "t1", OwnerID: "p1", ControllerID: "p2", IsToken: true}
	assert.True(t, CanRemoveCard("p1", token, zone).Allowed)
	assert.True(t, CanRemoveCard("p2", token, zone).Allowed)
	assert.True(t, CanRemoveCard("p3", token, zone).Allowed)

	d := CanRemoveCard("p4", token, zone)
	assert.False(t, d.Allowed)
	assert.Equal(t, "Cannot remove another player's token", d.Reason)

	card := &document.Card{ID: "c1", OwnerID: "p1", ControllerID: "p2"}
	assert.True(t, CanRemoveCard("p1", card, zone).Allowed)
	d = CanRemoveCard("p2", card, zone)
	assert.False(t, d.Allowed)
	assert.Equal(t, "Only the owner may remove this card", d.Reason)
}
