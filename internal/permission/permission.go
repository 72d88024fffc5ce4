// Package permission holds the pure predicates deciding whether an actor may
// perform an action against a document entity. Every intent handler re-checks
// permission here before mutating; the denial reason strings are part of the
// observable protocol and surface verbatim in intent acks.
package permission

import "github.com/hansy/snapstack-sub000/internal/document"

// Decision is the result of a permission check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow returns a permitting decision.
func Allow() Decision { return Decision{Allowed: true} }

// Deny returns a denying decision with the given reason.
func Deny(reason string) Decision { return Decision{Reason: reason} }

// CanModifyCard covers tapping, rotating, transforming and stat changes:
// the actor must control the card and it must be on a battlefield.
func CanModifyCard(doc *document.Doc, actorID string, card *document.Card) Decision {
	if card.ControllerID != actorID {
		return Deny("You do not control this card")
	}
	zone, ok := doc.Zone(card.ZoneID)
	if !ok || zone.Type.Normalize() != document.ZoneBattlefield {
		return Deny("Card is not on a battlefield")
	}
	return Allow()
}

// PlayerUpdateField names a mutable player attribute for permission purposes.
type PlayerUpdateField string

const (
	FieldLife             PlayerUpdateField = "life"
	FieldName             PlayerUpdateField = "name"
	FieldCounters         PlayerUpdateField = "counters"
	FieldCommanderDamage  PlayerUpdateField = "commanderDamage"
	FieldCommanderTax     PlayerUpdateField = "commanderTax"
	FieldLibraryTopReveal PlayerUpdateField = "libraryTopReveal"
)

// CanUpdatePlayer allows players to update themselves freely. Other players
// may only record commander damage; life and name changes against someone
// else get their own denial reasons.
func CanUpdatePlayer(actorID, targetID string, field PlayerUpdateField) Decision {
	if actorID == targetID {
		return Allow()
	}
	switch field {
	case FieldCommanderDamage:
		return Allow()
	case FieldLife:
		return Deny("Cannot change another player's life total")
	case FieldName:
		return Deny("Cannot rename another player")
	default:
		return Deny("Cannot update another player")
	}
}

// CanViewHiddenZone restricts hidden-zone browsing to the zone owner.
func CanViewHiddenZone(actorID string, zone *document.Zone) Decision {
	if zone.OwnerID != actorID {
		return Deny("Cannot view a hidden zone you do not own")
	}
	return Allow()
}

// CanMoveCard validates a zone transition request.
func CanMoveCard(doc *document.Doc, actorID string, card *document.Card, from, to *document.Zone) Decision {
	fromType := from.Type.Normalize()
	toType := to.Type.Normalize()

	if fromType == document.ZoneBattlefield && toType == document.ZoneBattlefield {
		if card.OwnerID != actorID && card.ControllerID != actorID {
			return Deny("Only the owner or controller may move this card")
		}
		return Allow()
	}

	if card.IsToken && fromType == document.ZoneBattlefield && toType != document.ZoneBattlefield {
		if card.OwnerID != actorID {
			return Deny("Only the owner may remove a token from the battlefield")
		}
	}

	if toType.Hidden() && to.OwnerID != actorID {
		return Deny("Cannot move a card into a hidden zone you do not own")
	}

	if toType == document.ZoneCommander && to.OwnerID != actorID && card.OwnerID != actorID {
		return Deny("Cannot move another player's card to their commander zone")
	}

	return Allow()
}

// CanAddCard validates creating a card directly in a zone.
func CanAddCard(actorID string, card *document.Card, zone *document.Zone) Decision {
	zoneType := zone.Type.Normalize()
	if card.IsToken && zoneType != document.ZoneBattlefield {
		return Deny("Tokens can only be created on the battlefield")
	}
	if zoneType.Hidden() && zone.OwnerID != actorID {
		return Deny("Cannot place into a hidden zone you do not own")
	}
	if zoneType != document.ZoneBattlefield && card.OwnerID != zone.OwnerID {
		return Deny("Card owner must match zone owner")
	}
	return Allow()
}

// CanRemoveCard validates deleting a card outright. Tokens may be removed by
// their owner, controller, or the host of the zone they sit in; real cards
// only by their owner.
func CanRemoveCard(actorID string, card *document.Card, zone *document.Zone) Decision {
	if card.IsToken {
		if card.OwnerID == actorID || card.ControllerID == actorID || zone.OwnerID == actorID {
			return Allow()
		}
		return Deny("Cannot remove another player's token")
	}
	if card.OwnerID != actorID {
		return Deny("Only the owner may remove this card")
	}
	return Allow()
}
