package document

// ZoneType identifies the kind of zone a card can occupy.
type ZoneType string

const (
	ZoneLibrary     ZoneType = "library"
	ZoneHand        ZoneType = "hand"
	ZoneBattlefield ZoneType = "battlefield"
	ZoneGraveyard   ZoneType = "graveyard"
	ZoneExile       ZoneType = "exile"
	ZoneCommander   ZoneType = "commander"
	ZoneSideboard   ZoneType = "sideboard"

	// ZoneCommandLegacy is the pre-rename spelling still present in old
	// persisted rooms; Normalize maps it to ZoneCommander.
	ZoneCommandLegacy ZoneType = "command"
)

// Normalize maps legacy zone type spellings to their current form.
func (t ZoneType) Normalize() ZoneType {
	if t == ZoneCommandLegacy {
		return ZoneCommander
	}
	return t
}

// Hidden reports whether the zone's contents are absent from the public
// document. Hidden-zone card records and ordering live only in the
// server-side hidden state.
func (t ZoneType) Hidden() bool {
	switch t.Normalize() {
	case ZoneLibrary, ZoneHand, ZoneSideboard:
		return true
	}
	return false
}

// Valid reports whether t names a known zone type.
func (t ZoneType) Valid() bool {
	switch t.Normalize() {
	case ZoneLibrary, ZoneHand, ZoneBattlefield, ZoneGraveyard,
		ZoneExile, ZoneCommander, ZoneSideboard:
		return true
	}
	return false
}

// LibraryTopRevealMode controls who may see the top card of a player's library.
type LibraryTopRevealMode string

const (
	LibraryTopRevealUnset LibraryTopRevealMode = ""
	LibraryTopRevealAll   LibraryTopRevealMode = "all"
	LibraryTopRevealSelf  LibraryTopRevealMode = "self"
)

// Player is a participant record in the replicated public document.
type Player struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	Life            int                  `json:"life"`
	Counters        map[string]int       `json:"counters,omitempty"`
	CommanderDamage map[string]int       `json:"commanderDamage,omitempty"`
	CommanderTax    int                  `json:"commanderTax"`
	HandCount       int                  `json:"handCount"`
	LibraryCount    int                  `json:"libraryCount"`
	SideboardCount  int                  `json:"sideboardCount"`
	LibraryTopReveal LibraryTopRevealMode `json:"libraryTopReveal,omitempty"`
	IsHost          bool                 `json:"isHost"`
}

// Zone is a card container. Public zones carry their ordered card-id list in
// CardIDs; for hidden zones CardIDs stays empty and the true order lives in
// the hidden state, so the replicated document never leaks order or count.
type Zone struct {
	ID      string   `json:"id"`
	Type    ZoneType `json:"type"`
	OwnerID string   `json:"ownerId"`
	CardIDs []string `json:"cardIds"`
}

// FaceDownMode distinguishes the reason a battlefield card is face down.
type FaceDownMode string

const (
	FaceDownModeNone     FaceDownMode = ""
	FaceDownModeManifest FaceDownMode = "manifest"
	FaceDownModeMorph    FaceDownMode = "morph"
)

// Card is a single game object. A card record lives in exactly one of the
// public document's card map or the hidden state's card map at any time.
type Card struct {
	ID           string       `json:"id"`
	OwnerID      string       `json:"ownerId"`
	ControllerID string       `json:"controllerId"`
	ZoneID       string       `json:"zoneId"`
	Name         string       `json:"name"`
	Text         string       `json:"text,omitempty"`

	Tapped       bool         `json:"tapped"`
	FaceDown     bool         `json:"faceDown"`
	FaceDownMode FaceDownMode `json:"faceDownMode,omitempty"`

	KnownToAll    bool     `json:"knownToAll"`
	RevealedToAll bool     `json:"revealedToAll"`
	RevealedTo    []string `json:"revealedTo,omitempty"`

	FaceIndex     int    `json:"faceIndex"`
	Power         string `json:"power,omitempty"`
	Toughness     string `json:"toughness,omitempty"`
	BasePower     string `json:"basePower,omitempty"`
	BaseToughness string `json:"baseToughness,omitempty"`

	Counters map[string]int `json:"counters,omitempty"`

	// X and Y are normalized battlefield coordinates in [0,1].
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation int     `json:"rotation"`

	IsToken      bool `json:"isToken"`
	IsCommander  bool `json:"isCommander"`
	CommanderTax int  `json:"commanderTax"`
}

// Identity is the minimal projection of a card's identity used by the public
// reveal mirrors and the face-down identity snapshots.
type Identity struct {
	Name          string `json:"name"`
	Text          string `json:"text,omitempty"`
	Power         string `json:"power,omitempty"`
	Toughness     string `json:"toughness,omitempty"`
	BasePower     string `json:"basePower,omitempty"`
	BaseToughness string `json:"baseToughness,omitempty"`
	FaceIndex     int    `json:"faceIndex"`
}

// RoomMeta is room-level replicated metadata.
type RoomMeta struct {
	ID               string             `json:"id"`
	Locked           bool               `json:"locked"`
	MaxPlayers       int                `json:"maxPlayers"`
	BattlefieldScale map[string]float64 `json:"battlefieldScale,omitempty"`
	Counters         map[string]int     `json:"counters,omitempty"`
	HiddenMigrated   bool               `json:"hiddenMigrated"`
}
