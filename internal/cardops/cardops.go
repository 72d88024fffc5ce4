// Package cardops holds pure card-record transforms shared by the movement
// machine and the intent handlers: face flips, identity handling, counter
// arithmetic and token duplication. Nothing here touches zones or ordering.
package cardops

import "github.com/hansy/snapstack-sub000/internal/document"

// RedactedName replaces a card's name in log events whenever the destination
// hides its identity.
const RedactedName = "a card"

// ResetToFrontFace returns a card to its front face with base stats. Applied
// whenever a card leaves a battlefield.
func ResetToFrontFace(c *document.Card) {
	c.FaceIndex = 0
	c.Tapped = false
	c.Rotation = 0
	if c.BasePower != "" {
		c.Power = c.BasePower
	}
	if c.BaseToughness != "" {
		c.Toughness = c.BaseToughness
	}
}

// Transform flips a double-faced card between its faces.
func Transform(c *document.Card) {
	if c.FaceIndex == 0 {
		c.FaceIndex = 1
	} else {
		c.FaceIndex = 0
	}
}

// IdentitySnapshot captures the card's identity for the face-down registry
// and the public reveal mirrors.
func IdentitySnapshot(c *document.Card) document.Identity {
	return document.Identity{
		Name:          c.Name,
		Text:          c.Text,
		Power:         c.Power,
		Toughness:     c.Toughness,
		BasePower:     c.BasePower,
		BaseToughness: c.BaseToughness,
		FaceIndex:     c.FaceIndex,
	}
}

// StripIdentity blanks the identity-bearing fields on a card record. Used
// when a card turns face down on the battlefield: the true identity moves to
// the hidden state and the public record must not leak it.
func StripIdentity(c *document.Card) {
	c.Name = ""
	c.Text = ""
	c.Power = ""
	c.Toughness = ""
	c.BasePower = ""
	c.BaseToughness = ""
	c.FaceIndex = 0
	c.KnownToAll = false
	c.RevealedToAll = false
	c.RevealedTo = nil
}

// RestoreIdentity writes an identity snapshot back onto a card record,
// used when a face-down card is turned face up.
func RestoreIdentity(c *document.Card, id document.Identity) {
	c.Name = id.Name
	c.Text = id.Text
	c.Power = id.Power
	c.Toughness = id.Toughness
	c.BasePower = id.BasePower
	c.BaseToughness = id.BaseToughness
	c.FaceIndex = id.FaceIndex
}

// AdjustCounter adds delta to the named counter, creating it on first use
// and deleting it when the count reaches zero. Counts never go negative.
func AdjustCounter(c *document.Card, name string, delta int) {
	if c.Counters == nil {
		c.Counters = make(map[string]int)
	}
	next := c.Counters[name] + delta
	if next <= 0 {
		delete(c.Counters, name)
		if len(c.Counters) == 0 {
			c.Counters = nil
		}
		return
	}
	c.Counters[name] = next
}

// MergeCounters adds every counter in src onto dst.
func MergeCounters(dst *document.Card, src map[string]int) {
	for name, count := range src {
		AdjustCounter(dst, name, count)
	}
}

// Duplicate builds a token copy of a battlefield card. Counters are copied
// by value so the duplicate's counters are independently mutable afterwards.
// The copy is nudged off the original so the two do not stack exactly.
func Duplicate(c *document.Card, newID string) *document.Card {
	dup := c.Clone()
	dup.ID = newID
	dup.IsToken = true
	dup.IsCommander = false
	dup.CommanderTax = 0
	dup.X = dup.X + 0.02
	dup.Y = dup.Y + 0.02
	if dup.X > 1 {
		dup.X = 1
	}
	if dup.Y > 1 {
		dup.Y = 1
	}
	return dup
}
