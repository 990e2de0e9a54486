package plan

import (
	"testing"

	"github.com/datascope/datascope/pkg/profile"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		plan    *Plan
		wantErr bool
	}{
		{
			"valid minimal",
			&Plan{DatasetType: "tabular", Steps: []Step{{Pack: "snapshot"}}},
			false,
		},
		{
			"valid full",
			&Plan{DatasetType: "timeseries", Steps: []Step{
				{Pack: "snapshot"}, {Pack: "categorical"}, {Pack: "timeseries"},
			}},
			false,
		},
		{
			"bad dataset type",
			&Plan{DatasetType: "graph", Steps: []Step{{Pack: "snapshot"}}},
			true,
		},
		{
			"no steps",
			&Plan{DatasetType: "tabular"},
			true,
		},
		{
			"too many steps",
			&Plan{DatasetType: "tabular", Steps: []Step{
				{Pack: "snapshot"}, {Pack: "categorical"}, {Pack: "numeric"}, {Pack: "timeseries"},
			}},
			true,
		},
		{
			"unknown pack",
			&Plan{DatasetType: "tabular", Steps: []Step{{Pack: "snapshot"}, {Pack: "clustering"}}},
			true,
		},
		{
			"missing snapshot",
			&Plan{DatasetType: "tabular", Steps: []Step{{Pack: "categorical"}}},
			true,
		},
	}
	for _, tc := range cases {
		err := tc.plan.Validate()
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: err = %v, wantErr = %v", tc.name, err, tc.wantErr)
		}
	}
}

func TestFallback(t *testing.T) {
	roles := &profile.Roles{
		Numeric:     []string{"value"},
		Categorical: []string{"category"},
	}
	p := Fallback(roles)
	if p.DatasetType != "tabular" {
		t.Errorf("dataset_type = %q, want tabular", p.DatasetType)
	}
	if p.Notes != "Fallback plan." {
		t.Errorf("notes = %q", p.Notes)
	}
	if len(p.Steps) != 2 || p.Steps[0].Pack != "snapshot" || p.Steps[1].Pack != "categorical" {
		t.Fatalf("steps = %+v, want [snapshot categorical]", p.Steps)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("fallback plan invalid: %v", err)
	}
}

func TestFallbackTimeseries(t *testing.T) {
	roles := &profile.Roles{
		Numeric:     []string{"value"},
		Categorical: []string{"category"},
		Datetime:    []string{"ts"},
	}
	p := Fallback(roles)
	if p.DatasetType != "timeseries" {
		t.Errorf("dataset_type = %q, want timeseries", p.DatasetType)
	}
	want := []string{"snapshot", "categorical", "timeseries"}
	if len(p.Steps) != len(want) {
		t.Fatalf("got %d steps, want %d", len(p.Steps), len(want))
	}
	for i, pack := range want {
		if p.Steps[i].Pack != pack {
			t.Errorf("step %d = %q, want %q", i, p.Steps[i].Pack, pack)
		}
	}
}

func TestEnsureNumeric(t *testing.T) {
	roles := &profile.Roles{Numeric: []string{"value"}, Categorical: []string{"category"}}

	// Appended past the cap when three steps already exist.
	full := &Plan{DatasetType: "timeseries", Steps: []Step{
		{Pack: "snapshot"}, {Pack: "categorical"}, {Pack: "timeseries"},
	}}
	got := EnsureNumeric(full, roles)
	if len(got.Steps) != 4 || got.Steps[3].Pack != "numeric" {
		t.Fatalf("steps = %+v, want numeric appended", got.Steps)
	}
	if len(full.Steps) != 3 {
		t.Error("EnsureNumeric mutated its input")
	}

	// No duplicate when already present.
	withNumeric := &Plan{DatasetType: "tabular", Steps: []Step{{Pack: "snapshot"}, {Pack: "numeric"}}}
	if got := EnsureNumeric(withNumeric, roles); len(got.Steps) != 2 {
		t.Errorf("steps = %+v, want unchanged", got.Steps)
	}

	// No numeric columns, no step.
	none := &profile.Roles{Categorical: []string{"category"}}
	base := &Plan{DatasetType: "tabular", Steps: []Step{{Pack: "snapshot"}}}
	if got := EnsureNumeric(base, none); len(got.Steps) != 1 {
		t.Errorf("steps = %+v, want unchanged", got.Steps)
	}
}
