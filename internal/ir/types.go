package ir

import "fmt"

// Ticks is a quantized timeline position. One unit of time is Precision
// ticks (see Quantizer). All ordering and comparison happens on Ticks.
type Ticks int64

// SlotID identifies an interval registered in an interval.Arena.
// The zero value is never a valid slot.
type SlotID int

// NoSlot is the SlotID of definitions that do not reference an arena slot.
const NoSlot SlotID = 0

// DefType distinguishes the kinds of definition list entries.
type DefType int

const (
	// DefNative references a native interval in the arena.
	DefNative DefType = iota + 1
	// DefExternal is a handle-only placeholder for an externally hosted interval.
	DefExternal
	// DefPushLevel opens a nested level.
	DefPushLevel
	// DefPopLevel closes the most recently opened level.
	DefPopLevel
)

func (t DefType) String() string {
	switch t {
	case DefNative:
		return "native"
	case DefExternal:
		return "external"
	case DefPushLevel:
		return "push_level"
	case DefPopLevel:
		return "pop_level"
	default:
		return fmt.Sprintf("DefType(%d)", int(t))
	}
}

// RelativeStart names the point a definition's relative time is measured from.
type RelativeStart int

const (
	// PreviousEnd measures from the end of the previous sibling.
	PreviousEnd RelativeStart = iota
	// PreviousBegin measures from the start of the previous sibling.
	PreviousBegin
	// LevelBegin measures from the start of the enclosing level.
	LevelBegin
)

func (r RelativeStart) String() string {
	switch r {
	case PreviousEnd:
		return "previous_end"
	case PreviousBegin:
		return "previous_begin"
	case LevelBegin:
		return "level_begin"
	default:
		return fmt.Sprintf("RelativeStart(%d)", int(r))
	}
}

// ParseRelativeStart converts an anchor name to a RelativeStart.
// An empty name means PreviousEnd. "group_begin" is accepted as an alias
// for "level_begin".
func ParseRelativeStart(s string) (RelativeStart, error) {
	switch s {
	case "", "previous_end":
		return PreviousEnd, nil
	case "previous_begin":
		return PreviousBegin, nil
	case "level_begin", "group_begin":
		return LevelBegin, nil
	default:
		return PreviousEnd, fmt.Errorf("unknown anchor %q", s)
	}
}

// EventType is the kind of callback delivered to an interval.
type EventType int

const (
	EventInitialize EventType = iota + 1
	EventInstant
	EventStep
	EventFinalize
	EventReverseInitialize
	EventReverseInstant
	EventReverseFinalize
)

var eventTypeNames = map[EventType]string{
	EventInitialize:        "initialize",
	EventInstant:           "instant",
	EventStep:              "step",
	EventFinalize:          "finalize",
	EventReverseInitialize: "reverse_initialize",
	EventReverseInstant:    "reverse_instant",
	EventReverseFinalize:   "reverse_finalize",
}

func (e EventType) String() string {
	if name, ok := eventTypeNames[e]; ok {
		return name
	}
	return fmt.Sprintf("EventType(%d)", int(e))
}

// ParseEventType converts a callback name (as produced by String) back to an EventType.
func ParseEventType(s string) (EventType, error) {
	for e, name := range eventTypeNames {
		if name == s {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown event type %q", s)
}

// IsInstant reports whether e is Instant or ReverseInstant.
func (e EventType) IsInstant() bool {
	return e == EventInstant || e == EventReverseInstant
}

// Def is one entry of a definition list.
//
// Only the fields relevant to Type are meaningful. ActualBeginTime is
// written by compilation and is zero until the list has been compiled.
type Def struct {
	Type    DefType       `json:"type"`
	RelTime float64       `json:"rel_time"`
	RelTo   RelativeStart `json:"rel_to"`

	// Native
	Slot SlotID `json:"slot,omitempty"`

	// External
	ExtIndex     int     `json:"ext_index,omitempty"`
	ExtName      string  `json:"ext_name,omitempty"`
	ExtDuration  float64 `json:"ext_duration,omitempty"`
	ExtOpenEnded bool    `json:"ext_open_ended,omitempty"`

	ActualBeginTime Ticks `json:"actual_begin_time"`
}

// PlaybackEventType distinguishes compiled timeline events.
type PlaybackEventType int

const (
	PlaybackBegin PlaybackEventType = iota + 1
	PlaybackEnd
	PlaybackInstant
)

func (t PlaybackEventType) String() string {
	switch t {
	case PlaybackBegin:
		return "begin"
	case PlaybackEnd:
		return "end"
	case PlaybackInstant:
		return "instant"
	default:
		return fmt.Sprintf("PlaybackEventType(%d)", int(t))
	}
}

// PlaybackEvent is one compiled timeline event.
//
// Begin and Instant events reference themselves through Begin; End events
// reference their matching Begin. Pos is the event's index in the sorted
// timeline and is the identity used by active sets.
type PlaybackEvent struct {
	Time  Ticks
	Def   int
	Type  PlaybackEventType
	Begin *PlaybackEvent
	Pos   int
}

// QueueEntry is a callback invocation deferred behind a pending external event.
//
// A Nested entry carries no callback: it stands for the deferred queue of
// the nested schedule at Def, and the entries behind it wait until that
// queue drains.
type QueueEntry struct {
	Def    int
	Event  EventType
	Time   Ticks
	Nested bool
}

// Callback records one delivered callback, in delivery order.
type Callback struct {
	Seq      int64     `json:"seq"`
	Def      int       `json:"def"`
	Name     string    `json:"name"`
	Event    EventType `json:"event"`
	Offset   Ticks     `json:"offset"`
	External bool      `json:"external,omitempty"`
}

// String renders the callback as "name:event@offset".
func (c Callback) String() string {
	return fmt.Sprintf("%s:%s@%d", c.Name, c.Event, c.Offset)
}
