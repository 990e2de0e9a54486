package hypothesis

import (
	"fmt"
	"math"
	"testing"

	"github.com/datascope/datascope/pkg/dataset"
)

func testDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	const n = 100
	cats := make([]string, n)
	vals := make([]float64, n)
	doubled := make([]float64, n)
	missing := make([]bool, n)
	for i := 0; i < n; i++ {
		cats[i] = fmt.Sprintf("group_%d", i%5)
		if i%10 == 0 {
			missing[i] = true
		} else {
			vals[i] = float64(i)
			doubled[i] = float64(i) * 2
		}
	}
	ds, err := dataset.New([]*dataset.Column{
		{Name: "category", Type: dataset.TypeString, Strings: cats, Missing: make([]bool, n)},
		{Name: "value", Type: dataset.TypeFloat, Floats: vals, Missing: missing},
		{Name: "doubled", Type: dataset.TypeFloat, Floats: doubled, Missing: make([]bool, n)},
	})
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func TestVerifyMissingness(t *testing.T) {
	ds := testDataset(t)
	got := Verify(ds, []Hypothesis{{Kind: KindMissingness, Col: "value"}})
	if len(got) != 1 {
		t.Fatal("want one result")
	}
	v := got[0]
	if !v.IsVerified {
		t.Fatal("want verified")
	}
	if rate := v.Evidence["missing_rate"].(float64); rate != 0.10 {
		t.Errorf("missing_rate = %v, want exactly 0.10", rate)
	}
}

func TestVerifyMissingnessUnknownColumn(t *testing.T) {
	ds := testDataset(t)
	got := Verify(ds, []Hypothesis{{Kind: KindMissingness, Col: "ghost"}})
	if got[0].IsVerified || got[0].Evidence != nil {
		t.Errorf("got %+v, want unverified with nil evidence", got[0])
	}
	if got[0].VerifyError != "" {
		t.Errorf("unknown column is not an error: %q", got[0].VerifyError)
	}
}

func TestVerifyCategoryDominance(t *testing.T) {
	ds := testDataset(t)
	got := Verify(ds, []Hypothesis{{Kind: KindCategoryDominance, Col: "category"}})
	v := got[0]
	if !v.IsVerified {
		t.Fatal("want verified")
	}
	if top := v.Evidence["top_value"].(string); top != "group_0" {
		t.Errorf("top_value = %q, want group_0", top)
	}
	if share := v.Evidence["top_share"].(float64); math.Abs(share-0.20) > 1e-12 {
		t.Errorf("top_share = %v, want 0.20", share)
	}
}

func TestVerifyCorrelation(t *testing.T) {
	ds := testDataset(t)
	got := Verify(ds, []Hypothesis{{Kind: KindCorrelation, X: "value", Y: "doubled"}})
	v := got[0]
	if !v.IsVerified {
		t.Fatal("want verified")
	}
	if corr := v.Evidence["pearson_corr"].(float64); corr < 0.9999 {
		t.Errorf("pearson_corr = %v, want 1", corr)
	}
	if n := v.Evidence["n"].(int); n != 90 {
		t.Errorf("n = %d, want 90 paired rows", n)
	}
}

func TestVerifyCorrelationTooFewRows(t *testing.T) {
	n := 9
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		xs[i] = float64(i)
		ys[i] = float64(i)
	}
	ds, err := dataset.New([]*dataset.Column{
		{Name: "x", Type: dataset.TypeFloat, Floats: xs, Missing: make([]bool, n)},
		{Name: "y", Type: dataset.TypeFloat, Floats: ys, Missing: make([]bool, n)},
	})
	if err != nil {
		t.Fatal(err)
	}
	got := Verify(ds, []Hypothesis{{Kind: KindCorrelation, X: "x", Y: "y"}})
	if got[0].IsVerified {
		t.Error("9 paired rows must not verify, threshold is 10")
	}
}

func TestVerifyCapsAtTen(t *testing.T) {
	ds := testDataset(t)
	hs := make([]Hypothesis, 15)
	for i := range hs {
		hs[i] = Hypothesis{Kind: KindMissingness, Col: "value"}
	}
	if got := Verify(ds, hs); len(got) != 10 {
		t.Errorf("verified %d, want 10", len(got))
	}
}

func TestVerifyUnknownKind(t *testing.T) {
	ds := testDataset(t)
	got := Verify(ds, []Hypothesis{{Kind: "seasonality", Col: "value"}})
	if got[0].IsVerified || got[0].VerifyError != "" {
		t.Errorf("got %+v, want silently unverified", got[0])
	}
}
