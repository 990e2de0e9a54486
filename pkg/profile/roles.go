package profile

import (
	"time"

	"github.com/datascope/datascope/pkg/dataset"
)

// Roles partitions the columns of a dataset by analysis role. A column may
// appear in more than one list: id-like columns are also numeric or
// categorical, and datetime columns stored as text stay textual.
type Roles struct {
	Numeric     []string `json:"numeric"`
	Categorical []string `json:"categorical"`
	Datetime    []string `json:"datetime"`
	IDLike      []string `json:"id_like"`
}

const (
	datetimeSampleSize  = 50
	datetimeParseRate   = 0.7
	idLikeMinDistinct   = 20
	idLikeDistinctRatio = 0.9
)

var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"2006-01",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ClassifyRoles assigns each column to its analysis roles.
func ClassifyRoles(ds *dataset.Dataset) *Roles {
	r := &Roles{
		Numeric:     []string{},
		Categorical: []string{},
		Datetime:    []string{},
		IDLike:      []string{},
	}
	rows := ds.RowCount()
	for _, c := range ds.Columns() {
		isDatetime := c.Type == dataset.TypeTime ||
			(c.Type == dataset.TypeString && looksDatetime(c))

		switch {
		case c.IsNumeric():
			r.Numeric = append(r.Numeric, c.Name)
		case isDatetime:
			r.Datetime = append(r.Datetime, c.Name)
		default:
			r.Categorical = append(r.Categorical, c.Name)
		}

		if rows > 0 {
			distinct := c.DistinctCount()
			if distinct > idLikeMinDistinct && float64(distinct)/float64(rows) > idLikeDistinctRatio {
				r.IDLike = append(r.IDLike, c.Name)
			}
		}
	}
	return r
}

// looksDatetime samples the first non-null string cells and reports whether
// most of them parse as timestamps.
func looksDatetime(c *dataset.Column) bool {
	sampled, parsed := 0, 0
	for i := 0; i < c.Len() && sampled < datetimeSampleSize; i++ {
		if c.IsMissing(i) {
			continue
		}
		sampled++
		if _, ok := ParseDatetime(c.Strings[i]); ok {
			parsed++
		}
	}
	if sampled == 0 {
		return false
	}
	return float64(parsed)/float64(sampled) > datetimeParseRate
}

// ParseDatetime parses s against the supported timestamp layouts.
func ParseDatetime(s string) (time.Time, bool) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// InferDatasetType names the overall shape of the dataset. Timeseries needs
// both a datetime and a numeric column; anything else with usable columns is
// plain tabular.
func InferDatasetType(r *Roles) string {
	switch {
	case len(r.Datetime) > 0 && len(r.Numeric) > 0:
		return "timeseries"
	case len(r.Numeric) > 0 || len(r.Categorical) > 0:
		return "tabular"
	default:
		return "unknown"
	}
}

// contains reports whether list includes name.
func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}
