package ir

// Version constants for the schedule format and engine.
const (
	// SpecVersion is the schedule spec format version.
	SpecVersion = "1"

	// EngineVersion is the sequence engine version.
	EngineVersion = "0.1.0"
)
