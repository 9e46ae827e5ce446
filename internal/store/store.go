package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrPartialWrite marks a multi-step write that failed after an earlier step
// was already applied. Nothing is rolled back.
var ErrPartialWrite = errors.New("partial write")

// ErrNoRowReturned is returned when a write asked for the written row and the
// store echoed an empty array.
var ErrNoRowReturned = errors.New("store returned no row")

// firstRow returns the first element of a JSON array, or nil if it is empty.
func firstRow(body []byte) (json.RawMessage, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decoding rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}
