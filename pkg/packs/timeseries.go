package packs

import (
	"fmt"
	"sort"
	"time"

	"github.com/datascope/datascope/pkg/dataset"
	"github.com/datascope/datascope/pkg/profile"
)

const (
	tsHeadTail     = 10
	tsRollingMin   = 14
	rollingWindow  = 7
	rollingMinObs  = 3
	tsMaxMetaCols  = 5
	dailyDayLayout = "2006-01-02"
)

type dailyPoint struct {
	day    time.Time
	values map[string]float64
}

// RunTimeseries coerces the datetime column, resamples numeric columns to a
// daily mean series, and charts the first numeric column's trend.
func RunTimeseries(ds *dataset.Dataset, datetimeCol string, numericCols []string) *Result {
	metaCols := numericCols
	if len(metaCols) > tsMaxMetaCols {
		metaCols = metaCols[:tsMaxMetaCols]
	}
	summary := map[string]interface{}{
		"datetime_col": datetimeCol,
		"numeric_cols": metaCols,
		"insights":     []interface{}{},
	}

	dtCol := ds.Column(datetimeCol)
	if dtCol == nil {
		return &Result{Summary: summary, Charts: []Chart{},
			Skipped: fmt.Sprintf("Datetime column '%s' not found.", datetimeCol)}
	}

	var useNum []string
	for _, name := range numericCols {
		if c := ds.Column(name); c != nil && c.IsNumeric() {
			useNum = append(useNum, name)
		}
	}

	daily, nPoints := resampleDaily(ds, dtCol, useNum)
	summary["n_points"] = nPoints
	if nPoints == 0 || len(useNum) == 0 {
		return &Result{Summary: summary, Charts: []Chart{},
			Skipped: "Not enough datetime rows or no numeric columns."}
	}

	summary["daily_head"] = dailySlice(daily[:min(tsHeadTail, len(daily))], useNum)
	summary["daily_tail"] = dailySlice(daily[max(0, len(daily)-tsHeadTail):], useNum)

	col0 := useNum[0]
	insights := []interface{}{}
	if len(daily) >= 2 {
		first, firstOK := firstValue(daily, col0)
		last, lastOK := lastValue(daily, col0)
		if firstOK && lastOK {
			delta := last - first
			summary["trend_first_last"] = map[string]interface{}{
				"col": col0, "first": first, "last": last, "delta": delta,
			}
			direction := "stayed flat"
			if delta > 0 {
				direction = "increased"
			} else if delta < 0 {
				direction = "decreased"
			}
			insights = append(insights, map[string]interface{}{
				"severity":       "info",
				"title":          fmt.Sprintf("'%s' %s over the observed period", col0, direction),
				"evidence":       fmt.Sprintf("First=%.4g, Last=%.4g, Delta=%.4g", first, last, delta),
				"recommendation": "Consider checking seasonality or outliers using weekly/monthly aggregation.",
			})
		}
	}
	summary["insights"] = insights

	lineValues := make([]interface{}, 0, len(daily))
	for _, p := range daily {
		rec := map[string]interface{}{datetimeCol: p.day.Format(dailyDayLayout)}
		if v, ok := p.values[col0]; ok {
			rec[col0] = v
		} else {
			rec[col0] = nil
		}
		lineValues = append(lineValues, rec)
	}
	lineSpec := map[string]interface{}{
		"$schema":     vegaSchema,
		"description": fmt.Sprintf("Daily trend: %s", col0),
		"data":        map[string]interface{}{"values": lineValues},
		"mark":        map[string]interface{}{"type": "line", "point": true, "color": "#4f46e5"},
		"encoding": map[string]interface{}{
			"x": map[string]interface{}{"field": datetimeCol, "type": "temporal", "title": "Date"},
			"y": map[string]interface{}{"field": col0, "type": "quantitative", "title": col0},
			"tooltip": []interface{}{
				map[string]interface{}{"field": datetimeCol, "type": "temporal"},
				map[string]interface{}{"field": col0, "type": "quantitative"},
			},
		},
	}
	charts := []Chart{{
		ID:       "ts_daily_line",
		Title:    fmt.Sprintf("Daily trend - %s", col0),
		Spec:     lineSpec,
		Priority: 85,
		Tags:     []string{"timeseries", "trend"},
	}}

	if len(daily) >= tsRollingMin {
		rollValues := make([]interface{}, 0, len(daily))
		for i := range daily {
			rec := map[string]interface{}{datetimeCol: daily[i].day.Format(dailyDayLayout)}
			if v, ok := rollingMean(daily, col0, i); ok {
				rec[col0] = v
			} else {
				rec[col0] = nil
			}
			rollValues = append(rollValues, rec)
		}
		rollSpec := map[string]interface{}{
			"$schema":     vegaSchema,
			"description": fmt.Sprintf("7-day rolling average: %s", col0),
			"data":        map[string]interface{}{"values": rollValues},
			"mark":        map[string]interface{}{"type": "line", "point": false, "color": "#4f46e5"},
			"encoding": map[string]interface{}{
				"x": map[string]interface{}{"field": datetimeCol, "type": "temporal", "title": "Date"},
				"y": map[string]interface{}{"field": col0, "type": "quantitative", "title": fmt.Sprintf("%s (7D avg)", col0)},
				"tooltip": []interface{}{
					map[string]interface{}{"field": datetimeCol, "type": "temporal"},
					map[string]interface{}{"field": col0, "type": "quantitative"},
				},
			},
		}
		charts = append(charts, Chart{
			ID:       "ts_rolling_7d",
			Title:    fmt.Sprintf("Rolling average (7D) - %s", col0),
			Spec:     rollSpec,
			Priority: 80,
			Tags:     []string{"timeseries", "smoothing"},
		})
	}

	return &Result{Summary: summary, Charts: charts}
}

// resampleDaily buckets rows with a parseable timestamp by calendar day and
// averages each numeric column within the bucket. Days where every numeric
// column is missing are dropped. nPoints counts rows with a usable timestamp.
func resampleDaily(ds *dataset.Dataset, dtCol *dataset.Column, numericCols []string) ([]dailyPoint, int) {
	type acc struct {
		sums   map[string]float64
		counts map[string]int
	}
	buckets := make(map[time.Time]*acc)
	nPoints := 0
	for i := 0; i < dtCol.Len(); i++ {
		ts, ok := cellTime(dtCol, i)
		if !ok {
			continue
		}
		nPoints++
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		b := buckets[day]
		if b == nil {
			b = &acc{sums: make(map[string]float64), counts: make(map[string]int)}
			buckets[day] = b
		}
		for _, name := range numericCols {
			if v, ok := ds.Column(name).Float64(i); ok {
				b.sums[name] += v
				b.counts[name]++
			}
		}
	}

	daily := make([]dailyPoint, 0, len(buckets))
	for day, b := range buckets {
		values := make(map[string]float64)
		for name, cnt := range b.counts {
			if cnt > 0 {
				values[name] = b.sums[name] / float64(cnt)
			}
		}
		if len(values) == 0 {
			continue
		}
		daily = append(daily, dailyPoint{day: day, values: values})
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].day.Before(daily[j].day) })
	return daily, nPoints
}

// cellTime reads a timestamp cell, parsing text columns leniently.
func cellTime(c *dataset.Column, i int) (time.Time, bool) {
	if c.IsMissing(i) {
		return time.Time{}, false
	}
	switch c.Type {
	case dataset.TypeTime:
		return c.Time(i)
	case dataset.TypeString:
		return profile.ParseDatetime(c.Strings[i])
	default:
		return time.Time{}, false
	}
}

func dailySlice(points []dailyPoint, cols []string) map[string]interface{} {
	out := make(map[string]interface{}, len(cols))
	for _, name := range cols {
		series := make(map[string]interface{})
		for _, p := range points {
			if v, ok := p.values[name]; ok {
				series[p.day.Format(dailyDayLayout)] = v
			}
		}
		out[name] = series
	}
	return out
}

func firstValue(daily []dailyPoint, col string) (float64, bool) {
	for _, p := range daily {
		if v, ok := p.values[col]; ok {
			return v, true
		}
	}
	return 0, false
}

func lastValue(daily []dailyPoint, col string) (float64, bool) {
	for i := len(daily) - 1; i >= 0; i-- {
		if v, ok := daily[i].values[col]; ok {
			return v, true
		}
	}
	return 0, false
}

// rollingMean averages col over the trailing window ending at position i,
// requiring rollingMinObs observations.
func rollingMean(daily []dailyPoint, col string, i int) (float64, bool) {
	start := i - rollingWindow + 1
	if start < 0 {
		start = 0
	}
	sum, n := 0.0, 0
	for j := start; j <= i; j++ {
		if v, ok := daily[j].values[col]; ok {
			sum += v
			n++
		}
	}
	if n < rollingMinObs {
		return 0, false
	}
	return sum / float64(n), true
}
