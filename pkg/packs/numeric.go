package packs

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/datascope/datascope/pkg/dataset"
	"github.com/datascope/datascope/pkg/profile"
)

const (
	numericMaxCols    = 12
	numericStatsCols  = 8
	corrSampleRows    = 50000
	histSampleValues  = 20000
	histMaxBins       = 30
	histMaxCharts     = 2
	samplingSeed      = 42
	minCorrPairedRows = 2
)

// RunNumeric computes summary statistics, a pairwise correlation heatmap, and
// histograms for the highest-variance columns. Identifier-like columns are
// excluded entirely.
func RunNumeric(ds *dataset.Dataset, numericCols, idLike []string) *Result {
	if len(numericCols) == 0 {
		return skipResult("No numeric columns.")
	}
	idSet := make(map[string]bool, len(idLike))
	for _, name := range idLike {
		idSet[name] = true
	}
	var cols []string
	for _, name := range numericCols {
		c := ds.Column(name)
		if c != nil && c.IsNumeric() && !idSet[name] {
			cols = append(cols, name)
		}
	}
	if len(cols) == 0 {
		return skipResult("No usable numeric columns (numeric columns look like IDs).")
	}

	summaryCols := cols
	if len(summaryCols) > numericMaxCols {
		summaryCols = summaryCols[:numericMaxCols]
	}
	basicStats := make(map[string]interface{})
	for i, name := range cols {
		if i >= numericStatsCols {
			break
		}
		stats := profile.DescribeColumn(ds.Column(name))
		basicStats[name] = map[string]interface{}{
			"mean": round4(stats["mean"]),
			"std":  round4(stats["std"]),
			"min":  round4(stats["min"]),
			"max":  round4(stats["max"]),
		}
	}
	summary := map[string]interface{}{
		"numeric_cols": summaryCols,
		"basic_stats":  basicStats,
	}

	charts := []Chart{corrChart(ds, cols)}
	charts = append(charts, histCharts(ds, cols)...)
	return &Result{Summary: summary, Charts: charts}
}

func round4(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return math.Round(v*1e4) / 1e4
}

// corrChart builds the heatmap over up to 12 columns picked by most non-null
// values, downsampling rows past 50000 with a fixed seed.
func corrChart(ds *dataset.Dataset, cols []string) Chart {
	type colRank struct {
		name    string
		present int
	}
	ranked := make([]colRank, 0, len(cols))
	for _, name := range cols {
		c := ds.Column(name)
		ranked = append(ranked, colRank{name, c.Len() - c.MissingCount()})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].present > ranked[j].present
	})
	n := len(ranked)
	if n > numericMaxCols {
		n = numericMaxCols
	}
	topCols := make([]string, n)
	for i := 0; i < n; i++ {
		topCols[i] = ranked[i].name
	}

	rowIdx := sampleIndices(ds.RowCount(), corrSampleRows)

	corrRows := make([]interface{}, 0, n*n)
	for _, x := range topCols {
		for _, y := range topCols {
			corrRows = append(corrRows, map[string]interface{}{
				"x":    x,
				"y":    y,
				"corr": pearson(ds.Column(x), ds.Column(y), rowIdx),
			})
		}
	}

	spec := map[string]interface{}{
		"$schema":     vegaSchema,
		"description": "Correlation heatmap (numeric columns)",
		"data":        map[string]interface{}{"values": corrRows},
		"mark":        map[string]interface{}{"type": "rect"},
		"encoding": map[string]interface{}{
			"x": map[string]interface{}{"field": "x", "type": "nominal", "title": nil},
			"y": map[string]interface{}{"field": "y", "type": "nominal", "title": nil},
			"color": map[string]interface{}{
				"field": "corr",
				"type":  "quantitative",
				"title": "corr",
				"scale": map[string]interface{}{"domain": []interface{}{-1, 1}},
			},
			"tooltip": []interface{}{
				map[string]interface{}{"field": "x", "type": "nominal"},
				map[string]interface{}{"field": "y", "type": "nominal"},
				map[string]interface{}{"field": "corr", "type": "quantitative", "format": ".2f"},
			},
		},
	}
	return Chart{
		ID:       "numeric_corr",
		Title:    "Correlation heatmap",
		Spec:     spec,
		Priority: 95,
		Tags:     []string{"numeric"},
	}
}

func histCharts(ds *dataset.Dataset, cols []string) []Chart {
	type colVar struct {
		name     string
		variance float64
	}
	ranked := make([]colVar, 0, len(cols))
	for _, name := range cols {
		v := columnVariance(ds.Column(name))
		if math.IsNaN(v) {
			continue
		}
		ranked = append(ranked, colVar{name, v})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].variance > ranked[j].variance
	})
	if len(ranked) > histMaxCharts {
		ranked = ranked[:histMaxCharts]
	}

	var charts []Chart
	for i, cv := range ranked {
		c := ds.Column(cv.name)
		vals := make([]float64, 0, c.Len())
		for j := 0; j < c.Len(); j++ {
			if v, ok := c.Float64(j); ok {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			continue
		}
		if len(vals) > histSampleValues {
			idx := sampleIndices(len(vals), histSampleValues)
			sampled := make([]float64, 0, len(idx))
			for _, j := range idx {
				sampled = append(sampled, vals[j])
			}
			vals = sampled
		}
		values := make([]interface{}, 0, len(vals))
		for _, v := range vals {
			values = append(values, map[string]interface{}{"value": v})
		}
		spec := map[string]interface{}{
			"$schema":     vegaSchema,
			"description": fmt.Sprintf("Histogram for %s", cv.name),
			"data":        map[string]interface{}{"values": values},
			"mark":        map[string]interface{}{"type": "bar"},
			"encoding": map[string]interface{}{
				"x": map[string]interface{}{
					"field": "value", "type": "quantitative",
					"bin":   map[string]interface{}{"maxbins": histMaxBins},
					"title": cv.name,
				},
				"y": map[string]interface{}{"aggregate": "count", "type": "quantitative", "title": "Count"},
				"tooltip": []interface{}{
					map[string]interface{}{"field": "value", "type": "quantitative", "bin": true, "title": cv.name},
					map[string]interface{}{"aggregate": "count", "type": "quantitative", "title": "Count"},
				},
			},
		}
		charts = append(charts, Chart{
			ID:       fmt.Sprintf("numeric_hist_%d", i+1),
			Title:    fmt.Sprintf("Histogram: %s", cv.name),
			Spec:     spec,
			Priority: 80,
			Tags:     []string{"numeric"},
		})
	}
	return charts
}

// sampleIndices returns n indices when n <= k, otherwise k indices drawn
// without replacement with a fixed seed, in ascending order.
func sampleIndices(n, k int) []int {
	if n <= k {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	rng := rand.New(rand.NewSource(samplingSeed))
	perm := rng.Perm(n)[:k]
	sort.Ints(perm)
	return perm
}

func columnVariance(c *dataset.Column) float64 {
	vals := make([]float64, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Float64(i); ok {
			vals = append(vals, v)
		}
	}
	mean := profile.Mean(vals)
	std := profile.SampleStd(vals, mean)
	return std * std
}

// pearson computes the Pearson coefficient over pairwise complete rows drawn
// from idx. Degenerate cases return 0 so heatmaps render a full matrix.
func pearson(a, b *dataset.Column, idx []int) float64 {
	var xs, ys []float64
	for _, i := range idx {
		x, okx := a.Float64(i)
		y, oky := b.Float64(i)
		if okx && oky {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < minCorrPairedRows {
		return 0.0
	}
	mx := profile.Mean(xs)
	my := profile.Mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0.0
	}
	return sxy / math.Sqrt(sxx*syy)
}
