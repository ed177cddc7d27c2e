package usage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// KeyPrefix is prepended to the tool ID to form the storage key.
const KeyPrefix = "tool_usage_"

// ErrCorruptRecord is returned when a stored value is not a valid Record.
var ErrCorruptRecord = errors.New("usage: corrupt record")

// StorageKey returns the storage key holding the record for toolID.
func StorageKey(toolID string) string {
	return KeyPrefix + toolID
}

func encodeRecord(rec Record) (string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal usage record: %w", err)
	}
	return string(data), nil
}

func decodeRecord(value string) (Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(value), &rec); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if rec.Count < 0 {
		return Record{}, fmt.Errorf("%w: negative count %d", ErrCorruptRecord, rec.Count)
	}
	if _, err := time.Parse(DayLayout, rec.ResetDate); err != nil {
		return Record{}, fmt.Errorf("%w: reset date %q", ErrCorruptRecord, rec.ResetDate)
	}
	return rec, nil
}
