package profile

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/datascope/datascope/pkg/dataset"
	"github.com/datascope/datascope/pkg/errors"
)

// ReportResult locates a rendered profiling report on disk and on the HTTP
// surface.
type ReportResult struct {
	Path string `json:"profiling_report_path"`
	URL  string `json:"profiling_report_url"`
}

type reportColumn struct {
	Name          string
	Dtype         string
	MissingCount  int
	MissingPct    string
	DistinctCount int
	Roles         string
	TopValues     []reportValue
	Stats         []reportStat
}

type reportValue struct {
	Value string
	Count int
}

type reportStat struct {
	Name  string
	Value string
}

type reportData struct {
	Title      string
	RowCount   int
	ColCount   int
	Missing    int
	Duplicates int
	Columns    []reportColumn
}

// WriteHTMLReport renders a per-column HTML profile into dir and returns its
// path and the URL it is served under. The file name is derived from the
// uploaded file name with path-hostile characters replaced.
func WriteHTMLReport(ds *dataset.Dataset, prof *Profile, fileName, dir string) (*ReportResult, error) {
	if fileName == "" {
		fileName = "dataset"
	}
	safe := strings.NewReplacer(" ", "_", "/", "_", "\\", "_").Replace(fileName)
	name := safe + ".profile.html"

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeProfileFailed, "creating reports directory")
	}

	data := buildReportData(ds, prof, fileName)
	var b strings.Builder
	if err := reportTmpl.Execute(&b, data); err != nil {
		return nil, errors.Wrap(err, errors.CodeProfileFailed, "rendering profiling report")
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return nil, errors.Wrap(err, errors.CodeProfileFailed, "writing profiling report")
	}
	return &ReportResult{Path: path, URL: "/reports/" + name}, nil
}

func buildReportData(ds *dataset.Dataset, prof *Profile, fileName string) *reportData {
	rows := ds.RowCount()
	data := &reportData{
		Title:      "Profiling Report - " + fileName,
		RowCount:   rows,
		ColCount:   ds.ColumnCount(),
		Missing:    prof.MissingTotal,
		Duplicates: prof.Duplicates,
	}
	for _, c := range ds.Columns() {
		rc := reportColumn{
			Name:          c.Name,
			Dtype:         c.Type.String(),
			MissingCount:  c.MissingCount(),
			DistinctCount: c.DistinctCount(),
			Roles:         columnRoles(prof.Roles, c.Name),
		}
		if rows > 0 {
			rc.MissingPct = fmt.Sprintf("%.1f%%", 100*float64(rc.MissingCount)/float64(rows))
		} else {
			rc.MissingPct = "0.0%"
		}
		if c.IsNumeric() {
			stats := DescribeColumn(c)
			for _, k := range []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"} {
				if v, ok := stats[k]; ok {
					rc.Stats = append(rc.Stats, reportStat{Name: k, Value: fmt.Sprintf("%.4g", v)})
				}
			}
		} else {
			for i, vc := range c.ValueCounts() {
				if i >= 10 {
					break
				}
				rc.TopValues = append(rc.TopValues, reportValue{Value: vc.Value, Count: vc.Count})
			}
		}
		data.Columns = append(data.Columns, rc)
	}
	return data
}

func columnRoles(r *Roles, name string) string {
	var roles []string
	if contains(r.Numeric, name) {
		roles = append(roles, "numeric")
	}
	if contains(r.Categorical, name) {
		roles = append(roles, "categorical")
	}
	if contains(r.Datetime, name) {
		roles = append(roles, "datetime")
	}
	if contains(r.IDLike, name) {
		roles = append(roles, "id_like")
	}
	return strings.Join(roles, ", ")
}

var reportTmpl = template.Must(template.New("profile").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 2rem; color: #1f2933; }
h1 { font-size: 1.4rem; }
h2 { font-size: 1.1rem; margin-top: 2rem; border-bottom: 1px solid #d9e2ec; padding-bottom: 0.3rem; }
table { border-collapse: collapse; margin-top: 0.5rem; }
th, td { border: 1px solid #d9e2ec; padding: 0.3rem 0.7rem; text-align: left; font-size: 0.9rem; }
th { background: #f0f4f8; }
.meta { color: #52606d; font-size: 0.9rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">{{.RowCount}} rows, {{.ColCount}} columns, {{.Missing}} missing cells, {{.Duplicates}} duplicate rows</p>
{{range .Columns}}
<h2>{{.Name}}</h2>
<p class="meta">type {{.Dtype}}, roles: {{.Roles}}, {{.MissingCount}} missing ({{.MissingPct}}), {{.DistinctCount}} distinct</p>
{{if .Stats}}
<table>
<tr>{{range .Stats}}<th>{{.Name}}</th>{{end}}</tr>
<tr>{{range .Stats}}<td>{{.Value}}</td>{{end}}</tr>
</table>
{{end}}
{{if .TopValues}}
<table>
<tr><th>value</th><th>count</th></tr>
{{range .TopValues}}<tr><td>{{.Value}}</td><td>{{.Count}}</td></tr>
{{end}}</table>
{{end}}
{{end}}
</body>
</html>
`))
