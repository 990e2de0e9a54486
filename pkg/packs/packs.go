// Package packs implements the analysis packs and their executor. Each pack is
// a pure function of a dataset and a column-role subset, producing summary
// statistics and declarative chart specs. Packs never fail a run: the executor
// isolates panics and errors, and a pack with nothing to say reports a skip
// reason instead.
package packs

const vegaSchema = "https://vega.github.io/schema/vega-lite/v5.json"

// Chart is one declarative visualization emitted by a pack. Spec is a
// Vega-Lite document; Priority orders charts for truncation only.
type Chart struct {
	ID       string                 `json:"id"`
	Title    string                 `json:"title"`
	Spec     map[string]interface{} `json:"spec"`
	Priority int                    `json:"priority"`
	Tags     []string               `json:"tags"`
	Pack     string                 `json:"pack,omitempty"`
}

// Result is the output of one pack run. Summary holds the pack's loose
// statistics keyed the way the pack names them; Skipped is set when the pack
// had nothing useful to compute.
type Result struct {
	Summary map[string]interface{} `json:"summary"`
	Charts  []Chart                `json:"charts"`
	Skipped string                 `json:"skipped,omitempty"`
}

func skipResult(reason string) *Result {
	return &Result{Summary: map[string]interface{}{}, Charts: []Chart{}, Skipped: reason}
}
