package snapshot

import (
	"encoding/json"
	"fmt"
)

func encodeTokens(t Tokens) ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode tokens: %w", err)
	}
	return data, nil
}

func decodeTokens(data []byte) (*Tokens, error) {
	var t Tokens
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode tokens: %w", err)
	}
	if t.PlayerTokens == nil {
		t.PlayerTokens = make(map[string]string)
	}
	return &t, nil
}
