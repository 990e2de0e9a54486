package pipeline

import "time"

// Event types.
const (
	EventStep    = "step"
	EventSubstep = "substep"
	EventMeta    = "meta"
	EventError   = "error"
	EventDone    = "done"
)

// Event is one progress record emitted while a run executes. Step identifies
// the stage for step events; Name identifies the pack for substeps. Exactly
// one done-typed event terminates a run's stream.
type Event struct {
	Type        string  `json:"type"`
	Step        string  `json:"step,omitempty"`
	Name        string  `json:"name,omitempty"`
	Status      string  `json:"status,omitempty"`
	Detail      string  `json:"detail,omitempty"`
	Message     string  `json:"message,omitempty"`
	ProgressPct *int    `json:"progress_pct,omitempty"`
	DurationMs  *int64  `json:"duration_ms,omitempty"`
	TS          float64 `json:"ts"`
}

// EmitFunc consumes progress events. A nil EmitFunc disables emission.
type EmitFunc func(Event)

func emit(fn EmitFunc, e Event) {
	if fn == nil {
		return
	}
	if e.TS == 0 {
		e.TS = float64(time.Now().UnixNano()) / 1e9
	}
	fn(e)
}

func pctPtr(v int) *int { return &v }

func durPtr(d time.Duration) *int64 {
	ms := d.Milliseconds()
	return &ms
}
