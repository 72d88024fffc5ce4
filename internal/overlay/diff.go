package overlay

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SchemaVersion of the overlay wire payloads.
const SchemaVersion = 1

// Diff sizing defaults: a diff larger than the absolute cap, or larger than
// this fraction of the full snapshot, is replaced by the snapshot. Diffs must
// never cost more bandwidth than a resync.
const (
	DefaultMaxDiffBytes    = 65536
	DefaultMaxDiffFraction = 0.6
)

// SnapshotPayload is the full per-viewer overlay message body.
type SnapshotPayload struct {
	SchemaVersion         int                    `json:"schemaVersion"`
	OverlayVersion        uint64                 `json:"overlayVersion"`
	RoomID                string                 `json:"roomId"`
	ViewerID              string                 `json:"viewerId,omitempty"`
	Cards                 []CardLite             `json:"cards"`
	ZoneCardOrders        map[string][]string    `json:"zoneCardOrders,omitempty"`
	ZoneCardOrderVersions map[string]uint64      `json:"zoneCardOrderVersions,omitempty"`
	Meta                  map[string]interface{} `json:"meta,omitempty"`
}

// DiffPayload is the incremental overlay message body.
type DiffPayload struct {
	SchemaVersion         int                    `json:"schemaVersion"`
	OverlayVersion        uint64                 `json:"overlayVersion"`
	BaseOverlayVersion    uint64                 `json:"baseOverlayVersion"`
	Upserts               []CardLite             `json:"upserts"`
	Removes               []string               `json:"removes"`
	ZoneCardOrders        map[string][]string    `json:"zoneCardOrders,omitempty"`
	ZoneOrderRemovals     []string               `json:"zoneOrderRemovals,omitempty"`
	ZoneCardOrderVersions map[string]uint64      `json:"zoneCardOrderVersions,omitempty"`
	Meta                  map[string]interface{} `json:"meta,omitempty"`
}

// Message is one outbound overlay frame: exactly one of Snapshot or Diff.
type Message struct {
	Type     string
	Snapshot *SnapshotPayload
	Diff     *DiffPayload
}

// Message type tags on the wire.
const (
	MessageTypeSnapshot = "privateOverlay"
	MessageTypeDiff     = "privateOverlayDiff"
)

// Tracker keeps one connection's last-sent overlay fingerprint: a content
// hash per card and per zone order, plus a monotonically increasing version.
type Tracker struct {
	roomID   string
	viewerID string

	version       uint64
	cardHashes    map[string]string
	orderHashes   map[string]string
	orderVersions map[string]uint64

	maxDiffBytes    int
	maxDiffFraction float64
}

// NewTracker builds a tracker for one connection.
func NewTracker(roomID, viewerID string, maxDiffBytes int, maxDiffFraction float64) *Tracker {
	if maxDiffBytes <= 0 {
		maxDiffBytes = DefaultMaxDiffBytes
	}
	if maxDiffFraction <= 0 || maxDiffFraction > 1 {
		maxDiffFraction = DefaultMaxDiffFraction
	}
	return &Tracker{
		roomID:          roomID,
		viewerID:        viewerID,
		cardHashes:      make(map[string]string),
		orderHashes:     make(map[string]string),
		orderVersions:   make(map[string]uint64),
		maxDiffBytes:    maxDiffBytes,
		maxDiffFraction: maxDiffFraction,
	}
}

// Version returns the overlay version of the last emitted message.
func (t *Tracker) Version() uint64 { return t.version }

// Advance ingests a freshly built snapshot and returns the message to send:
// a diff when one is available and cheap enough, otherwise a full snapshot.
func (t *Tracker) Advance(snap Snapshot) (Message, error) {
	baseVersion := t.version
	t.version++

	newCardHashes := make(map[string]string, len(snap.Cards))
	var upserts []CardLite
	for _, card := range snap.Cards {
		h, err := hashJSON(card)
		if err != nil {
			return Message{}, fmt.Errorf("hash card %s: %w", card.ID, err)
		}
		newCardHashes[card.ID] = h
		if t.cardHashes[card.ID] != h {
			upserts = append(upserts, card)
		}
	}
	var removes []string
	for id := range t.cardHashes {
		if _, ok := newCardHashes[id]; !ok {
			removes = append(removes, id)
		}
	}
	sort.Strings(removes)

	newOrderHashes := make(map[string]string, len(snap.ZoneCardOrders))
	changedOrders := make(map[string][]string)
	for zoneID, order := range snap.ZoneCardOrders {
		h := hashOrder(order)
		newOrderHashes[zoneID] = h
		if t.orderHashes[zoneID] != h {
			changedOrders[zoneID] = order
			t.orderVersions[zoneID]++
		}
	}
	var orderRemovals []string
	for zoneID := range t.orderHashes {
		if _, ok := newOrderHashes[zoneID]; !ok {
			orderRemovals = append(orderRemovals, zoneID)
			delete(t.orderVersions, zoneID)
		}
	}
	sort.Strings(orderRemovals)

	orderVersions := make(map[string]uint64, len(t.orderVersions))
	for zoneID, v := range t.orderVersions {
		orderVersions[zoneID] = v
	}

	t.cardHashes = newCardHashes
	t.orderHashes = newOrderHashes

	full := &SnapshotPayload{
		SchemaVersion:         SchemaVersion,
		OverlayVersion:        t.version,
		RoomID:                t.roomID,
		ViewerID:              t.viewerID,
		Cards:                 snap.Cards,
		ZoneCardOrders:        snap.ZoneCardOrders,
		ZoneCardOrderVersions: orderVersions,
		Meta:                  map[string]interface{}{"cardCount": len(snap.Cards)},
	}

	// The first message on a connection is always a full snapshot.
	if baseVersion == 0 {
		return Message{Type: MessageTypeSnapshot, Snapshot: full}, nil
	}

	diff := &DiffPayload{
		SchemaVersion:         SchemaVersion,
		OverlayVersion:        t.version,
		BaseOverlayVersion:    baseVersion,
		Upserts:               upserts,
		Removes:               removes,
		ZoneCardOrders:        changedOrders,
		ZoneOrderRemovals:     orderRemovals,
		ZoneCardOrderVersions: orderVersions,
		Meta:                  map[string]interface{}{"cardCount": len(snap.Cards)},
	}
	if len(changedOrders) == 0 {
		diff.ZoneCardOrders = nil
	}

	diffBytes, err := json.Marshal(diff)
	if err != nil {
		return Message{}, fmt.Errorf("encode overlay diff: %w", err)
	}
	fullBytes, err := json.Marshal(full)
	if err != nil {
		return Message{}, fmt.Errorf("encode overlay snapshot: %w", err)
	}
	if len(diffBytes) > t.maxDiffBytes || float64(len(diffBytes)) > t.maxDiffFraction*float64(len(fullBytes)) {
		return Message{Type: MessageTypeSnapshot, Snapshot: full}, nil
	}
	return Message{Type: MessageTypeDiff, Diff: diff}, nil
}

func hashJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func hashOrder(order []string) string {
	sum := sha256.Sum256([]byte(strings.Join(order, "\x00")))
	return hex.EncodeToString(sum[:])
}
