package profile

import (
	"math"
	"sort"

	"github.com/datascope/datascope/pkg/dataset"
)

const (
	topCategoricalCols   = 8
	topCategoricalValues = 5
)

// Profile is the derived classification and summary of a dataset.
type Profile struct {
	Roles           *Roles                        `json:"roles"`
	MissingTotal    int                           `json:"missing_total"`
	Duplicates      int                           `json:"duplicates"`
	TopCategoricals map[string]map[string]int     `json:"top_categoricals"`
	NumericSummary  map[string]map[string]float64 `json:"numeric_summary"`
}

// BasicProfile derives roles and summary statistics from a dataset. It is a
// pure function of the dataset.
func BasicProfile(ds *dataset.Dataset) *Profile {
	roles := ClassifyRoles(ds)

	missingTotal := 0
	for _, c := range ds.Columns() {
		missingTotal += c.MissingCount()
	}

	topCats := make(map[string]map[string]int)
	for i, name := range roles.Categorical {
		if i >= topCategoricalCols {
			break
		}
		col := ds.Column(name)
		counts := col.ValueCounts()
		top := make(map[string]int, topCategoricalValues)
		for j, vc := range counts {
			if j >= topCategoricalValues {
				break
			}
			top[vc.Value] = vc.Count
		}
		topCats[name] = top
	}

	summary := make(map[string]map[string]float64)
	for _, name := range roles.Numeric {
		summary[name] = DescribeColumn(ds.Column(name))
	}

	return &Profile{
		Roles:           roles,
		MissingTotal:    missingTotal,
		Duplicates:      ds.DuplicateRowCount(),
		TopCategoricals: topCats,
		NumericSummary:  summary,
	}
}

// DescribeColumn computes count, mean, std, min, quartiles, and max over the
// non-null values of a numeric column. Std uses the sample estimator; the
// quartiles use linear interpolation.
func DescribeColumn(c *dataset.Column) map[string]float64 {
	vals := make([]float64, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Float64(i); ok {
			vals = append(vals, v)
		}
	}
	out := map[string]float64{"count": float64(len(vals))}
	if len(vals) == 0 {
		return out
	}
	sort.Float64s(vals)

	mean := Mean(vals)
	out["mean"] = mean
	out["std"] = SampleStd(vals, mean)
	out["min"] = vals[0]
	out["25%"] = Quantile(vals, 0.25)
	out["50%"] = Quantile(vals, 0.5)
	out["75%"] = Quantile(vals, 0.75)
	out["max"] = vals[len(vals)-1]
	return out
}

// Mean returns the arithmetic mean of vals, or NaN when empty.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// SampleStd returns the sample standard deviation given a precomputed mean.
// NaN for fewer than two values.
func SampleStd(vals []float64, mean float64) float64 {
	if len(vals) < 2 {
		return math.NaN()
	}
	ss := 0.0
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}

// Quantile returns the q-th quantile of sorted vals with linear interpolation.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
