package packs

import (
	"fmt"
	"sort"

	"github.com/datascope/datascope/pkg/dataset"
	"github.com/datascope/datascope/pkg/plan"
	"github.com/datascope/datascope/pkg/profile"
)

const (
	maxChartsPerPack = 3
	maxChartsTotal   = 12
)

// SubstepFunc receives per-pack progress while the executor runs.
type SubstepFunc func(pack, status, detail string)

// Execution is the combined output of an executor run.
type Execution struct {
	Results   map[string]*Result
	PackOrder []string
	Charts    []Chart
	Errors    []string
}

// Execute runs the planned packs strictly in order. A pack that panics is
// recorded as an error, replaced with a skip marker, and left out of
// PackOrder; later packs still run.
// Charts are capped at 3 per pack and 12 overall, highest priority first with
// ties kept in emission order.
func Execute(ds *dataset.Dataset, roles *profile.Roles, steps []plan.Step, emit SubstepFunc) *Execution {
	ex := &Execution{Results: make(map[string]*Result)}
	notify := func(pack, status, detail string) {
		if emit != nil {
			emit(pack, status, detail)
		}
	}

	var pooled []Chart
	for _, step := range steps {
		if step.Pack == "" {
			continue
		}
		pack := step.Pack
		notify(pack, "running", "Running")

		out, failed := runPack(ds, roles, pack, &ex.Errors)
		ex.Results[pack] = out
		// A pack that blew up is excluded from the executed order.
		if !failed {
			ex.PackOrder = append(ex.PackOrder, pack)
		}

		charts := normalizeCharts(pack, out.Charts)
		sort.SliceStable(charts, func(i, j int) bool {
			return charts[i].Priority > charts[j].Priority
		})
		if len(charts) > maxChartsPerPack {
			charts = charts[:maxChartsPerPack]
		}
		pooled = append(pooled, charts...)

		if out.Skipped != "" {
			notify(pack, "skipped", out.Skipped)
		} else {
			notify(pack, "done", "OK")
		}
	}

	sort.SliceStable(pooled, func(i, j int) bool {
		return pooled[i].Priority > pooled[j].Priority
	})
	if len(pooled) > maxChartsTotal {
		pooled = pooled[:maxChartsTotal]
	}
	ex.Charts = pooled
	return ex
}

// runPack invokes the dispatcher, converting a panic into an error string and
// a skip marker for that pack alone.
func runPack(ds *dataset.Dataset, roles *profile.Roles, pack string, errs *[]string) (out *Result, failed bool) {
	defer func() {
		if r := recover(); r != nil {
			*errs = append(*errs, fmt.Sprintf("pack_error[%s]: %v", pack, r))
			out = skipResult(fmt.Sprintf("Error: %v", r))
			failed = true
		}
	}()
	return dispatch(ds, roles, pack), false
}

// dispatch is a variable for test injection.
var dispatch = dispatchPack

func dispatchPack(ds *dataset.Dataset, roles *profile.Roles, pack string) *Result {
	switch pack {
	case "snapshot":
		return RunSnapshot(ds)
	case "categorical":
		if len(roles.Categorical) == 0 {
			return skipResult("No categorical columns.")
		}
		return RunCategorical(ds, roles.Categorical)
	case "timeseries":
		if len(roles.Datetime) == 0 || len(roles.Numeric) == 0 {
			return skipResult("No datetime+numeric.")
		}
		return RunTimeseries(ds, roles.Datetime[0], roles.Numeric)
	case "numeric":
		if len(roles.Numeric) == 0 {
			return skipResult("No numeric columns.")
		}
		return RunNumeric(ds, roles.Numeric, roles.IDLike)
	default:
		return skipResult(fmt.Sprintf("Unknown pack: %s", pack))
	}
}

// normalizeCharts fills chart defaults and stamps the source pack.
func normalizeCharts(pack string, charts []Chart) []Chart {
	out := make([]Chart, 0, len(charts))
	for _, ch := range charts {
		if ch.Spec == nil {
			continue
		}
		if ch.ID == "" {
			ch.ID = fmt.Sprintf("%s_chart_%d", pack, len(out)+1)
		}
		if ch.Title == "" {
			ch.Title = pack
		}
		if ch.Priority == 0 {
			ch.Priority = 50
		}
		if len(ch.Tags) == 0 {
			ch.Tags = []string{pack}
		}
		ch.Pack = pack
		out = append(out, ch)
	}
	return out
}
