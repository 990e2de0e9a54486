package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/datascope/datascope/pkg/dataset"
	"github.com/datascope/datascope/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadCSVTypeInference(t *testing.T) {
	path := writeFile(t, "orders.csv", `id,amount,region,active
1,9.50,north,true
2,12.00,south,false
3,NA,north,true
`)

	ds, err := NewLoader("").Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.RowCount() != 3 || ds.ColumnCount() != 4 {
		t.Fatalf("shape = %dx%d, want 3x4", ds.RowCount(), ds.ColumnCount())
	}

	wantTypes := map[string]dataset.Type{
		"id":     dataset.TypeInt,
		"amount": dataset.TypeFloat,
		"region": dataset.TypeString,
		"active": dataset.TypeBool,
	}
	for name, want := range wantTypes {
		c := ds.Column(name)
		if c == nil {
			t.Fatalf("column %q missing", name)
		}
		if c.Type != want {
			t.Errorf("column %q type = %s, want %s", name, c.Type, want)
		}
	}

	amount := ds.Column("amount")
	if amount.MissingCount() != 1 || !amount.IsMissing(2) {
		t.Errorf("amount missing = %d at rows %v, want NA cell marked missing", amount.MissingCount(), amount.Missing)
	}
	if v, ok := amount.Float64(0); !ok || v != 9.5 {
		t.Errorf("amount[0] = %v,%v, want 9.5", v, ok)
	}
}

func TestLoadTSVDelimiter(t *testing.T) {
	path := writeFile(t, "data.tsv", "name\tcount\nalpha\t3\nbeta\t7\n")

	ds, err := NewLoader(EngineNative).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.RowCount() != 2 {
		t.Fatalf("RowCount = %d, want 2", ds.RowCount())
	}
	c := ds.Column("count")
	if c == nil || c.Type != dataset.TypeInt {
		t.Fatalf("count column = %+v, want int column", c)
	}
}

func TestLoadCSVRaggedRows(t *testing.T) {
	path := writeFile(t, "ragged.csv", "a,b\n1,2\n3\n4,5,6\n")

	ds, err := NewLoader("").Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.RowCount() != 3 || ds.ColumnCount() != 2 {
		t.Fatalf("shape = %dx%d, want 3x2", ds.RowCount(), ds.ColumnCount())
	}
	b := ds.Column("b")
	if !b.IsMissing(1) {
		t.Error("short row should pad column b with a missing cell")
	}
	if b.IsMissing(2) {
		t.Error("long row should truncate to the header width, not go missing")
	}
}

func TestLoadDropsUnnamedColumns(t *testing.T) {
	path := writeFile(t, "export.csv", "Unnamed: 0,value\n0,10\n1,20\n")

	ds, err := NewLoader("").Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.ColumnCount() != 1 {
		t.Fatalf("ColumnCount = %d, want auto-index column dropped", ds.ColumnCount())
	}
	if ds.Column("value") == nil {
		t.Error("value column should survive")
	}
}

func TestLoadJSONL(t *testing.T) {
	path := writeFile(t, "events.jsonl", `{"user":"u1","score":1.5}
{"user":"u2","score":2,"tag":"x"}
{"user":"u3"}
`)

	ds, err := NewLoader("").Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.RowCount() != 3 || ds.ColumnCount() != 3 {
		t.Fatalf("shape = %dx%d, want 3x3", ds.RowCount(), ds.ColumnCount())
	}
	score := ds.Column("score")
	if score.Type != dataset.TypeFloat {
		t.Errorf("score type = %s, want float", score.Type)
	}
	if score.MissingCount() != 1 {
		t.Errorf("score missing = %d, want 1", score.MissingCount())
	}
	tag := ds.Column("tag")
	if tag.MissingCount() != 2 {
		t.Errorf("tag missing = %d, want 2", tag.MissingCount())
	}
}

func TestLoadJSONLIntegralFloatsNarrow(t *testing.T) {
	path := writeFile(t, "counts.jsonl", `{"n":1}
{"n":2}
`)

	ds, err := NewLoader("").Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c := ds.Column("n")
	if c.Type != dataset.TypeInt {
		t.Errorf("n type = %s, want integral JSON numbers narrowed to int", c.Type)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "notes.txt", "hello")

	_, err := NewLoader("").Load(context.Background(), path)
	if !errors.IsCode(err, errors.CodeUnsupportedType) {
		t.Fatalf("Load error = %v, want %s", err, errors.CodeUnsupportedType)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader("").Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.IsCode(err, errors.CodeFileNotFound) {
		t.Fatalf("Load error = %v, want %s", err, errors.CodeFileNotFound)
	}
}

func TestLoadEmptyCSV(t *testing.T) {
	path := writeFile(t, "empty.csv", "")

	_, err := NewLoader("").Load(context.Background(), path)
	if !errors.IsCode(err, errors.CodeEmptyDataset) {
		t.Fatalf("Load error = %v, want %s", err, errors.CodeEmptyDataset)
	}
}

func TestNormalizeHeaderDuplicates(t *testing.T) {
	got := normalizeHeader([]string{"a", "a", "", "a"})
	want := []string{"a", "a_2", "column_2", "a_3"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSupportedExt(t *testing.T) {
	for _, ext := range []string{".csv", ".TSV", ".xlsx", ".parquet", ".jsonl", ".ndjson"} {
		if !SupportedExt(ext) {
			t.Errorf("SupportedExt(%q) = false", ext)
		}
	}
	for _, ext := range []string{".txt", ".json", ""} {
		if SupportedExt(ext) {
			t.Errorf("SupportedExt(%q) = true", ext)
		}
	}
}
