package observation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/MrSnakeDoc/skylog/internal/domain"
)

// encodeSnapshot renders the full sequence as one JSON array. A nil
// sequence is written as [] so that an empty store still has a slot.
func encodeSnapshot(seq []domain.Observation) ([]byte, error) {
	if seq == nil {
		seq = []domain.Observation{}
	}
	data, err := json.Marshal(seq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// decodeSnapshot is strict: unknown fields, trailing data and records
// missing the invariants of an accepted observation are all rejected.
func decodeSnapshot(data []byte) ([]domain.Observation, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var seq []domain.Observation
	if err := dec.Decode(&seq); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after snapshot")
	}
	if seq == nil {
		// literal null
		return nil, fmt.Errorf("snapshot is not an array")
	}

	for i, o := range seq {
		if o.PhotoData == "" || o.Date == "" {
			return nil, fmt.Errorf("record #%d (id %d) has no photo or date", i, o.ID)
		}
		if !slices.Contains(domain.Categories, o.Category) {
			return nil, fmt.Errorf("record #%d (id %d) has category %q", i, o.ID, o.Category)
		}
	}
	return seq, nil
}
