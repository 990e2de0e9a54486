package profile

import (
	"fmt"
	"math"
	"testing"

	"github.com/datascope/datascope/pkg/dataset"
)

func intColumn(name string, vals []int64) *dataset.Column {
	return &dataset.Column{
		Name:    name,
		Type:    dataset.TypeInt,
		Ints:    vals,
		Missing: make([]bool, len(vals)),
	}
}

func stringColumn(name string, vals []string) *dataset.Column {
	return &dataset.Column{
		Name:    name,
		Type:    dataset.TypeString,
		Strings: vals,
		Missing: make([]bool, len(vals)),
	}
}

// scenario builds a 100-row dataset: id unique 1..100, category with 5
// distinct values, value numeric with 10% missing.
func scenarioDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	const n = 100
	ids := make([]int64, n)
	cats := make([]string, n)
	vals := make([]float64, n)
	missing := make([]bool, n)
	for i := 0; i < n; i++ {
		ids[i] = int64(i + 1)
		cats[i] = fmt.Sprintf("group_%d", i%5)
		if i%10 == 0 {
			missing[i] = true
		} else {
			vals[i] = float64(i) * 1.5
		}
	}
	ds, err := dataset.New([]*dataset.Column{
		intColumn("id", ids),
		stringColumn("category", cats),
		{Name: "value", Type: dataset.TypeFloat, Floats: vals, Missing: missing},
	})
	if err != nil {
		t.Fatalf("building dataset: %v", err)
	}
	return ds
}

func TestInferSchema(t *testing.T) {
	ds := scenarioDataset(t)
	s := InferSchema(ds)
	if s.RowCount != 100 || s.ColCount != 3 {
		t.Fatalf("got %d rows, %d cols", s.RowCount, s.ColCount)
	}
	if len(s.Columns) != 3 {
		t.Fatalf("got %d column schemas", len(s.Columns))
	}
	byName := map[string]ColumnSchema{}
	for _, c := range s.Columns {
		byName[c.Name] = c
		col := ds.Column(c.Name)
		nonMissing := 0
		for i := 0; i < col.Len(); i++ {
			if !col.IsMissing(i) {
				nonMissing++
			}
		}
		if c.MissingCount+nonMissing != s.RowCount {
			t.Errorf("column %s: missing + non-missing != rows", c.Name)
		}
	}
	if byName["value"].MissingCount != 10 {
		t.Errorf("value missing = %d, want 10", byName["value"].MissingCount)
	}
	if byName["id"].DistinctCount != 100 {
		t.Errorf("id distinct = %d, want 100", byName["id"].DistinctCount)
	}
	if byName["category"].DistinctCount != 5 {
		t.Errorf("category distinct = %d, want 5", byName["category"].DistinctCount)
	}

	again := InferSchema(ds)
	if again.RowCount != s.RowCount || len(again.Columns) != len(s.Columns) {
		t.Error("schema inference is not idempotent")
	}
}

func TestClassifyRolesPartition(t *testing.T) {
	ds := scenarioDataset(t)
	r := ClassifyRoles(ds)

	if !contains(r.Numeric, "id") || !contains(r.Numeric, "value") {
		t.Errorf("numeric = %v, want id and value", r.Numeric)
	}
	if !contains(r.Categorical, "category") {
		t.Errorf("categorical = %v, want category", r.Categorical)
	}
	if len(r.Datetime) != 0 {
		t.Errorf("datetime = %v, want empty", r.Datetime)
	}
	if !contains(r.IDLike, "id") {
		t.Errorf("id_like = %v, want id", r.IDLike)
	}
	if contains(r.IDLike, "category") || contains(r.IDLike, "value") {
		t.Errorf("id_like = %v, unexpected members", r.IDLike)
	}

	// numeric, categorical and datetime are disjoint
	for _, name := range r.Numeric {
		if contains(r.Categorical, name) || contains(r.Datetime, name) {
			t.Errorf("column %s in more than one primary role", name)
		}
	}
	for _, name := range r.Categorical {
		if contains(r.Datetime, name) {
			t.Errorf("column %s is both categorical and datetime", name)
		}
	}
}

func TestClassifyRolesTextualDatetime(t *testing.T) {
	dates := make([]string, 30)
	for i := range dates {
		dates[i] = fmt.Sprintf("2024-01-%02d", i%28+1)
	}
	ds, err := dataset.New([]*dataset.Column{stringColumn("when", dates)})
	if err != nil {
		t.Fatal(err)
	}
	r := ClassifyRoles(ds)
	if !contains(r.Datetime, "when") {
		t.Errorf("datetime = %v, want when", r.Datetime)
	}
	if contains(r.Categorical, "when") {
		t.Error("datetime column also classified categorical")
	}
}

func TestClassifyRolesNonDatesStayCategorical(t *testing.T) {
	words := make([]string, 30)
	for i := range words {
		words[i] = fmt.Sprintf("token %d", i%4)
	}
	ds, err := dataset.New([]*dataset.Column{stringColumn("label", words)})
	if err != nil {
		t.Fatal(err)
	}
	r := ClassifyRoles(ds)
	if !contains(r.Categorical, "label") {
		t.Errorf("categorical = %v, want label", r.Categorical)
	}
	if len(r.Datetime) != 0 {
		t.Errorf("datetime = %v, want empty", r.Datetime)
	}
}

func TestIDLikeNeedsBothThresholds(t *testing.T) {
	// 15 distinct over 15 rows: ratio 1.0 but distinct <= 20.
	small := make([]int64, 15)
	for i := range small {
		small[i] = int64(i)
	}
	ds, err := dataset.New([]*dataset.Column{intColumn("k", small)})
	if err != nil {
		t.Fatal(err)
	}
	if r := ClassifyRoles(ds); len(r.IDLike) != 0 {
		t.Errorf("id_like = %v, want empty below distinct threshold", r.IDLike)
	}

	// 30 distinct over 100 rows: distinct > 20 but ratio 0.3.
	repeated := make([]int64, 100)
	for i := range repeated {
		repeated[i] = int64(i % 30)
	}
	ds, err = dataset.New([]*dataset.Column{intColumn("k", repeated)})
	if err != nil {
		t.Fatal(err)
	}
	if r := ClassifyRoles(ds); len(r.IDLike) != 0 {
		t.Errorf("id_like = %v, want empty below ratio threshold", r.IDLike)
	}
}

func TestInferDatasetType(t *testing.T) {
	cases := []struct {
		name  string
		roles *Roles
		want  string
	}{
		{"timeseries", &Roles{Numeric: []string{"v"}, Datetime: []string{"t"}}, "timeseries"},
		{"datetime only", &Roles{Datetime: []string{"t"}}, "unknown"},
		{"numeric only", &Roles{Numeric: []string{"v"}}, "tabular"},
		{"categorical only", &Roles{Categorical: []string{"c"}}, "tabular"},
		{"empty", &Roles{}, "unknown"},
	}
	for _, tc := range cases {
		if got := InferDatasetType(tc.roles); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestBasicProfile(t *testing.T) {
	ds := scenarioDataset(t)
	p := BasicProfile(ds)

	if p.MissingTotal != 10 {
		t.Errorf("missing_total = %d, want 10", p.MissingTotal)
	}
	if p.Duplicates != 0 {
		t.Errorf("duplicates = %d, want 0", p.Duplicates)
	}
	top, ok := p.TopCategoricals["category"]
	if !ok {
		t.Fatal("no top values for category")
	}
	if len(top) != 5 {
		t.Errorf("got %d top values, want 5", len(top))
	}
	if top["group_0"] != 20 {
		t.Errorf("group_0 count = %d, want 20", top["group_0"])
	}
	if _, ok := p.NumericSummary["value"]; !ok {
		t.Error("no numeric summary for value")
	}
	if _, ok := p.NumericSummary["category"]; ok {
		t.Error("numeric summary for categorical column")
	}
}

func TestDescribeColumn(t *testing.T) {
	c := &dataset.Column{
		Name:    "x",
		Type:    dataset.TypeFloat,
		Floats:  []float64{1, 2, 3, 4, 0},
		Missing: []bool{false, false, false, false, true},
	}
	stats := DescribeColumn(c)
	if stats["count"] != 4 {
		t.Errorf("count = %v, want 4", stats["count"])
	}
	if stats["mean"] != 2.5 {
		t.Errorf("mean = %v, want 2.5", stats["mean"])
	}
	if stats["min"] != 1 || stats["max"] != 4 {
		t.Errorf("min/max = %v/%v, want 1/4", stats["min"], stats["max"])
	}
	if got := stats["50%"]; got != 2.5 {
		t.Errorf("median = %v, want 2.5", got)
	}
	wantStd := math.Sqrt((2.25 + 0.25 + 0.25 + 2.25) / 3)
	if math.Abs(stats["std"]-wantStd) > 1e-12 {
		t.Errorf("std = %v, want %v", stats["std"], wantStd)
	}
}

func TestParseDatetime(t *testing.T) {
	good := []string{"2024-03-01", "2024-03-01 10:30:00", "2024-03-01T10:30:00Z", "2024/03/01"}
	for _, s := range good {
		if _, ok := ParseDatetime(s); !ok {
			t.Errorf("ParseDatetime(%q) = false, want true", s)
		}
	}
	bad := []string{"", "hello", "12345x", "group_3"}
	for _, s := range bad {
		if _, ok := ParseDatetime(s); ok {
			t.Errorf("ParseDatetime(%q) = true, want false", s)
		}
	}
}
