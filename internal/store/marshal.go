package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/sequence/internal/ir"
)

// marshalSchedule converts a ScheduleSpec to JSON TEXT for storage.
// The spec holds float times, so this is plain JSON rather than the
// canonical form used for hashing; the schedule_hash column carries identity.
func marshalSchedule(spec ir.ScheduleSpec) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(spec); err != nil {
		return "", fmt.Errorf("marshal schedule: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

func unmarshalSchedule(data string) (ir.ScheduleSpec, error) {
	var spec ir.ScheduleSpec
	if err := json.Unmarshal([]byte(data), &spec); err != nil {
		return spec, fmt.Errorf("unmarshal schedule: %w", err)
	}
	return spec, nil
}

func parseEvent(column, name string) (ir.EventType, error) {
	e, err := ir.ParseEventType(name)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", column, err)
	}
	return e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
