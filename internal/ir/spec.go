package ir

// Item kinds in a ScheduleSpec tree.
const (
	ItemGroup    = "group"
	ItemAction   = "action"
	ItemExternal = "external"
)

// ScheduleSpec is the declarative, tree-shaped form of a schedule as written
// in CUE or YAML. Loading a spec flattens the tree into push/pop/action
// definitions.
type ScheduleSpec struct {
	Name      string     `json:"name" yaml:"name"`
	Precision float64    `json:"precision,omitempty" yaml:"precision,omitempty"`
	Items     []ItemSpec `json:"items" yaml:"items"`
}

// ItemSpec is one node of a schedule tree.
type ItemSpec struct {
	Kind     string  `json:"kind" yaml:"kind"` // "group" | "action" | "external"
	Name     string  `json:"name,omitempty" yaml:"name,omitempty"`
	Duration float64 `json:"duration,omitempty" yaml:"duration,omitempty"`

	// OpenEnded defaults to true when absent.
	OpenEnded *bool `json:"open_ended,omitempty" yaml:"open_ended,omitempty"`

	At     float64 `json:"at,omitempty" yaml:"at,omitempty"`
	Anchor string  `json:"anchor,omitempty" yaml:"anchor,omitempty"` // see ParseRelativeStart

	// Handle is the external runtime's handle (external items only).
	Handle int `json:"handle,omitempty" yaml:"handle,omitempty"`

	// Items are the children of a group.
	Items []ItemSpec `json:"items,omitempty" yaml:"items,omitempty"`
}

// IsOpenEnded reports the item's open-endedness, defaulting to true.
func (s ItemSpec) IsOpenEnded() bool {
	return s.OpenEnded == nil || *s.OpenEnded
}
