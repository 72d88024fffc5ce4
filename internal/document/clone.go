package document

// Clone returns a deep copy of the card.
func (c *Card) Clone() *Card {
	cp := *c
	if c.RevealedTo != nil {
		cp.RevealedTo = append([]string(nil), c.RevealedTo...)
	}
	if c.Counters != nil {
		cp.Counters = make(map[string]int, len(c.Counters))
		for k, v := range c.Counters {
			cp.Counters[k] = v
		}
	}
	return &cp
}

// Clone returns a deep copy of the player.
func (p *Player) Clone() *Player {
	cp := *p
	if p.Counters != nil {
		cp.Counters = make(map[string]int, len(p.Counters))
		for k, v := range p.Counters {
			cp.Counters[k] = v
		}
	}
	if p.CommanderDamage != nil {
		cp.CommanderDamage = make(map[string]int, len(p.CommanderDamage))
		for k, v := range p.CommanderDamage {
			cp.CommanderDamage[k] = v
		}
	}
	return &cp
}

// Clone returns a deep copy of the zone.
func (z *Zone) Clone() *Zone {
	cp := *z
	cp.CardIDs = append([]string(nil), z.CardIDs...)
	return &cp
}

// Clone returns a deep copy of the whole document. The intent pipeline stages
// every mutation on a clone and swaps it in on success so a failed handler
// never leaves a partially applied document behind.
func (d *Doc) Clone() *Doc {
	cp := &Doc{
		Meta:                 d.Meta,
		Players:              make(map[string]*Player, len(d.Players)),
		Zones:                make(map[string]*Zone, len(d.Zones)),
		Cards:                make(map[string]*Card, len(d.Cards)),
		HandRevealsToAll:     cloneIdentityMap(d.HandRevealsToAll),
		LibraryRevealsToAll:  cloneIdentityMap(d.LibraryRevealsToAll),
		FaceDownRevealsToAll: cloneIdentityMap(d.FaceDownRevealsToAll),
	}
	if d.Meta.BattlefieldScale != nil {
		cp.Meta.BattlefieldScale = make(map[string]float64, len(d.Meta.BattlefieldScale))
		for k, v := range d.Meta.BattlefieldScale {
			cp.Meta.BattlefieldScale[k] = v
		}
	}
	if d.Meta.Counters != nil {
		cp.Meta.Counters = make(map[string]int, len(d.Meta.Counters))
		for k, v := range d.Meta.Counters {
			cp.Meta.Counters[k] = v
		}
	}
	for id, p := range d.Players {
		cp.Players[id] = p.Clone()
	}
	for id, z := range d.Zones {
		cp.Zones[id] = z.Clone()
	}
	for id, c := range d.Cards {
		cp.Cards[id] = c.Clone()
	}
	return cp
}

func cloneIdentityMap(m map[string]Identity) map[string]Identity {
	cp := make(map[string]Identity, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
