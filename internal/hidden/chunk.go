package hidden

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hansy/snapstack-sub000/internal/document"
)

// Chunk is one size-bounded slice of the hidden card map, sized so a single
// storage write never exceeds the backend's per-key ceiling.
type Chunk struct {
	Index int                       `json:"index"`
	Cards map[string]*document.Card `json:"cards"`
}

// chunkEnvelopeBytes covers the JSON object braces plus slack for the
// separators the incremental accounting below does not attribute per entry.
const chunkEnvelopeBytes = 16

// ChunkCards splits the hidden card map into chunks whose serialized size
// stays at or below limitBytes. Cards are packed greedily in sorted-id order
// so chunking is deterministic. A single card larger than the limit is
// returned alone in its own chunk; the caller decides whether to refuse it.
func (s *State) ChunkCards(limitBytes int) ([]Chunk, error) {
	if limitBytes <= chunkEnvelopeBytes {
		return nil, fmt.Errorf("chunk limit %d too small", limitBytes)
	}

	ids := make([]string, 0, len(s.Cards))
	for id := range s.Cards {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var chunks []Chunk
	current := Chunk{Index: 0, Cards: make(map[string]*document.Card)}
	currentSize := chunkEnvelopeBytes

	for _, id := range ids {
		card := s.Cards[id]
		data, err := json.Marshal(card)
		if err != nil {
			return nil, fmt.Errorf("marshal card %s: %w", id, err)
		}
		// `"<id>":<card>,` with key quotes, colon and trailing comma.
		entrySize := len(id) + 4 + len(data)

		if len(current.Cards) > 0 && currentSize+entrySize > limitBytes {
			chunks = append(chunks, current)
			current = Chunk{Index: len(chunks), Cards: make(map[string]*document.Card)}
			currentSize = chunkEnvelopeBytes
		}
		current.Cards[id] = card
		currentSize += entrySize
	}
	if len(current.Cards) > 0 || len(chunks) == 0 {
		chunks = append(chunks, current)
	}
	return chunks, nil
}

// meta is the persisted hidden-state record minus the card map, which is
// stored separately in chunks.
type meta struct {
	HandOrder           map[string][]string          `json:"handOrder"`
	LibraryOrder        map[string][]string          `json:"libraryOrder"`
	SideboardOrder      map[string][]string          `json:"sideboardOrder"`
	FaceDownBattlefield map[string]document.Identity `json:"faceDownBattlefield"`
	HandReveals         map[string]Reveal            `json:"handReveals"`
	LibraryReveals      map[string]Reveal            `json:"libraryReveals"`
	FaceDownReveals     map[string]Reveal            `json:"faceDownReveals"`
}

// MarshalMeta serializes everything except the card map.
func (s *State) MarshalMeta() ([]byte, error) {
	return json.Marshal(meta{
		HandOrder:           s.HandOrder,
		LibraryOrder:        s.LibraryOrder,
		SideboardOrder:      s.SideboardOrder,
		FaceDownBattlefield: s.FaceDownBattlefield,
		HandReveals:         s.HandReveals,
		LibraryReveals:      s.LibraryReveals,
		FaceDownReveals:     s.FaceDownReveals,
	})
}

// UnmarshalState rebuilds a hidden state from persisted meta plus the
// serialized card chunks, in any chunk order.
func UnmarshalState(metaData []byte, chunkData [][]byte) (*State, error) {
	var m meta
	if err := json.Unmarshal(metaData, &m); err != nil {
		return nil, fmt.Errorf("unmarshal hidden meta: %w", err)
	}
	s := NewState()
	if m.HandOrder != nil {
		s.HandOrder = m.HandOrder
	}
	if m.LibraryOrder != nil {
		s.LibraryOrder = m.LibraryOrder
	}
	if m.SideboardOrder != nil {
		s.SideboardOrder = m.SideboardOrder
	}
	if m.FaceDownBattlefield != nil {
		s.FaceDownBattlefield = m.FaceDownBattlefield
	}
	if m.HandReveals != nil {
		s.HandReveals = m.HandReveals
	}
	if m.LibraryReveals != nil {
		s.LibraryReveals = m.LibraryReveals
	}
	if m.FaceDownReveals != nil {
		s.FaceDownReveals = m.FaceDownReveals
	}
	for i, data := range chunkData {
		var cards map[string]*document.Card
		if err := json.Unmarshal(data, &cards); err != nil {
			return nil, fmt.Errorf("unmarshal card chunk %d: %w", i, err)
		}
		for id, c := range cards {
			s.Cards[id] = c
		}
	}
	return s, nil
}

// MarshalChunk serializes one chunk's card map for storage.
func MarshalChunk(c Chunk) ([]byte, error) {
	return json.Marshal(c.Cards)
}
