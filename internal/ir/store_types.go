package ir

// NOTE: These are store-layer records. Ordering is by logical seq, never by
// wall-clock time.

// Run is a recorded playback session of one schedule.
type Run struct {
	ID            string       `json:"id"`
	Schedule      ScheduleSpec `json:"schedule"`
	ScheduleHash  string       `json:"schedule_hash"`
	Precision     float64      `json:"precision"`
	EngineVersion string       `json:"engine_version"`
	SpecVersion   string       `json:"spec_version"`
}

// Command is one playback request of a run. Op names the playback operation
// (EventInitialize for Initialize, EventStep for Step, and so on); T is
// ignored by the operations that take no time.
type Command struct {
	Seq int64     `json:"seq"`
	Op  EventType `json:"op"`
	T   float64   `json:"t"`
}

// CallbackRecord is a delivered callback attributed to the command that
// caused it.
type CallbackRecord struct {
	Command int64 `json:"command"`
	Callback
}
