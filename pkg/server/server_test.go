package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/datascope/datascope/pkg/dataset"
	"github.com/datascope/datascope/pkg/ingest"
	"github.com/datascope/datascope/pkg/jobs"
	"github.com/datascope/datascope/pkg/pipeline"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	pipe := &pipeline.Pipeline{
		Store:      dataset.NewStore(),
		Loader:     ingest.NewLoader(""),
		ReportsDir: t.TempDir(),
	}
	mgr := jobs.NewManager(pipe, nil, nil, 2)
	srv := NewServer(mgr, nil, Options{
		UploadDir:  t.TempDir(),
		ReportsDir: pipe.ReportsDir,
	})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func scenarioCSV() []byte {
	var buf bytes.Buffer
	buf.WriteString("id,category,value\n")
	for i := 0; i < 100; i++ {
		val := fmt.Sprintf("%d.5", i)
		if i%10 == 0 {
			val = ""
		}
		fmt.Fprintf(&buf, "row_%d,group_%d,%s\n", i, i%5, val)
	}
	return buf.Bytes()
}

func uploadFile(t *testing.T, ts *httptest.Server, name string, content []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	mw.Close()

	resp, err := http.Post(ts.URL+"/upload_async", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func startJob(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp := uploadFile(t, ts, "scenario.csv", scenarioCSV())
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["job_id"] == "" {
		t.Fatal("missing job_id")
	}
	return out["job_id"]
}

func waitForResult(t *testing.T, ts *httptest.Server, jobID string) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(ts.URL + "/result/" + jobID)
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusAccepted:
			time.Sleep(50 * time.Millisecond)
		case http.StatusOK:
			var out map[string]interface{}
			if err := json.Unmarshal(body, &out); err != nil {
				t.Fatalf("result body: %v", err)
			}
			return out
		default:
			t.Fatalf("result status = %d body = %s", resp.StatusCode, body)
		}
	}
	t.Fatal("job did not finish in time")
	return nil
}

func TestUploadResultExport(t *testing.T) {
	ts := newTestServer(t)
	jobID := startJob(t, ts)

	result := waitForResult(t, ts, jobID)
	if result["status"] != "done" {
		t.Errorf("status = %v", result["status"])
	}
	rep, ok := result["report"].(map[string]interface{})
	if !ok {
		t.Fatalf("report missing: %v", result)
	}
	packResults, ok := rep["pack_results"].(map[string]interface{})
	if !ok || len(packResults) == 0 {
		t.Errorf("pack_results = %v", rep["pack_results"])
	}

	resp, err := http.Get(ts.URL + "/export/" + jobID + ".md")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Disposition"); !strings.Contains(got, jobID+".md") {
		t.Errorf("Content-Disposition = %q", got)
	}
	md, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(md), "## ") {
		t.Errorf("export does not look like markdown: %.100s", md)
	}
}

func TestUploadJobSurvivesRequestTeardown(t *testing.T) {
	ts := newTestServer(t)
	jobID := startJob(t, ts)

	// Tear the upload connection down so the request context is certainly
	// cancelled while the job is still running.
	http.DefaultClient.CloseIdleConnections()

	result := waitForResult(t, ts, jobID)
	if result["status"] != "done" {
		t.Errorf("status = %v, want job to finish after its request ended", result["status"])
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	ts := newTestServer(t)

	resp := uploadFile(t, ts, "notes.txt", []byte("hello"))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestResultUnknownJob(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/result/nope")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestProgressStream(t *testing.T) {
	ts := newTestServer(t)
	jobID := startJob(t, ts)

	resp, err := http.Get(ts.URL + "/progress/" + jobID)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	var events []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			events = append(events, strings.TrimPrefix(line, "event: "))
		}
	}

	if len(events) == 0 || events[0] != "hello" {
		t.Fatalf("events = %v, want hello first", events)
	}
	if events[len(events)-1] != "done" {
		t.Errorf("last event = %s, want done", events[len(events)-1])
	}
	var steps int
	for _, e := range events {
		if e == "step" {
			steps++
		}
	}
	if steps != 16 {
		t.Errorf("step events = %d, want 16", steps)
	}
}

func TestCompareFinishedJobs(t *testing.T) {
	ts := newTestServer(t)
	jobA := startJob(t, ts)
	jobB := startJob(t, ts)
	waitForResult(t, ts, jobA)
	waitForResult(t, ts, jobB)

	body, _ := json.Marshal(map[string]string{
		"job_a": jobA, "job_b": jobB,
		"name_a": "before.csv", "name_b": "after.csv",
	})
	resp, err := http.Post(ts.URL+"/api/compare", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("compare status = %d body = %s", resp.StatusCode, raw)
	}

	var cmp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&cmp); err != nil {
		t.Fatal(err)
	}
	if cmp["mode"] != "compare" {
		t.Errorf("mode = %v", cmp["mode"])
	}
	comparison, ok := cmp["comparison"].(map[string]interface{})
	if !ok {
		t.Fatalf("comparison missing: %v", cmp)
	}
	if _, ok := comparison["metrics"]; !ok {
		t.Error("comparison has no metrics")
	}
}

func TestCompareRequiresBothJobs(t *testing.T) {
	ts := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"job_a": "only-one"})
	resp, err := http.Post(ts.URL+"/api/compare", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
