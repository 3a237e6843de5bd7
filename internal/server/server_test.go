package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/m3ux/internal/models"
	"github.com/desertthunder/m3ux/internal/shared"
	"github.com/desertthunder/m3ux/internal/tasks"
	tu "github.com/desertthunder/m3ux/internal/testing"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeRuns struct {
	runs     []*models.Run
	err      error
	criteria map[string]any
}

func (f *fakeRuns) List(criteria map[string]any) ([]*models.Run, error) {
	f.criteria = criteria
	return f.runs, f.err
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestBasicRouter(t *testing.T) {
	t.Run("middleware runs in the order added", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		get(t, router, "/")
		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("wrong method answers 405", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodPost, "/only-post", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		if rec := get(t, router, "/only-post"); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("unknown path answers 404", func(t *testing.T) {
		if rec := get(t, NewBasicRouter(), "/missing"); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestPlaylistHandler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlist.m3u")
	h := New(Options{OutputPath: path}).Handler()

	t.Run("not written yet", func(t *testing.T) {
		if rec := get(t, h, "/playlist.m3u"); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("serves the file", func(t *testing.T) {
		body := tu.M3U("A", "g1")
		tu.MustWriteFile(t, path, body)

		for _, route := range []string{"/playlist.m3u", "/playlist.m3u8"} {
			rec := get(t, h, route)
			if rec.Code != http.StatusOK {
				t.Fatalf("%s: expected 200, got %d", route, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != PlaylistContentType {
				t.Errorf("%s: unexpected content type %q", route, ct)
			}
			if rec.Body.String() != body {
				t.Errorf("%s: unexpected body %q", route, rec.Body.String())
			}
		}
	})

	t.Run("head has no body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/playlist.m3u", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("expected empty body, got %d bytes", rec.Body.Len())
		}
	})
}

func TestHealthHandler(t *testing.T) {
	status := NewStatus()
	h := New(Options{Status: status}).Handler()

	decode := func(t *testing.T) statusView {
		t.Helper()
		rec := get(t, h, "/healthz")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var v statusView
		if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		return v
	}

	t.Run("before any run", func(t *testing.T) {
		v := decode(t)
		if v.Status != "ok" || v.Runs != 0 || v.LastRun != "" {
			t.Errorf("unexpected view %+v", v)
		}
	})

	t.Run("after a processed run", func(t *testing.T) {
		status.ObserveRun(&tasks.Result{Emitted: 3, Digest: "abc"}, nil, time.Millisecond)
		v := decode(t)
		if v.Status != "ok" || v.Runs != 1 || v.Emitted != 3 || v.Digest != "abc" || v.LastRun == "" {
			t.Errorf("unexpected view %+v", v)
		}
	})

	t.Run("after a failed run", func(t *testing.T) {
		status.ObserveRun(nil, shared.ErrRetrieval, time.Millisecond)
		v := decode(t)
		if v.Status != "degraded" || v.Runs != 2 || v.LastError == "" {
			t.Errorf("unexpected view %+v", v)
		}
	})
}

func TestRunsHandler(t *testing.T) {
	run := models.NewRun("http://example.com/list.m3u", models.RunProcessed)
	run.SetID("run-1")
	run.SetSequence(1)
	run.Emitted = 4

	t.Run("disabled without a lister", func(t *testing.T) {
		if rec := get(t, New(Options{}).Handler(), "/runs"); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("lists runs", func(t *testing.T) {
		runs := &fakeRuns{runs: []*models.Run{run}}
		rec := get(t, New(Options{Runs: runs}).Handler(), "/runs?limit=5&outcome=processed")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var views []RunView
		if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(views) != 1 || views[0].ID != "run-1" || views[0].Emitted != 4 || views[0].Outcome != "processed" {
			t.Errorf("unexpected views %+v", views)
		}
		if runs.criteria["limit"] != 5 {
			t.Errorf("expected limit 5, got %v", runs.criteria["limit"])
		}
		if runs.criteria["outcome"] != models.RunProcessed {
			t.Errorf("expected outcome filter, got %v", runs.criteria["outcome"])
		}
	})

	t.Run("default limit", func(t *testing.T) {
		runs := &fakeRuns{}
		get(t, New(Options{Runs: runs}).Handler(), "/runs")
		if runs.criteria["limit"] != defaultRunLimit {
			t.Errorf("expected default limit, got %v", runs.criteria["limit"])
		}
	})

	t.Run("bad limit", func(t *testing.T) {
		for _, q := range []string{"abc", "0", "-1"} {
			rec := get(t, New(Options{Runs: &fakeRuns{}}).Handler(), "/runs?limit="+q)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("limit=%s: expected 400, got %d", q, rec.Code)
			}
		}
	})

	t.Run("lister failure", func(t *testing.T) {
		rec := get(t, New(Options{Runs: &fakeRuns{err: errors.New("db closed")}}).Handler(), "/runs")
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}

func TestMetrics(t *testing.T) {
	t.Run("observe run", func(t *testing.T) {
		m := NewMetrics()
		m.ObserveRun(&tasks.Result{
			Parsed:  3,
			Emitted: 4,
			Diagnostics: []models.Diagnostic{
				{Step: "copy", Outcome: models.OutcomeApplied},
				{Step: "move", Outcome: models.OutcomeSkipped},
			},
		}, nil, time.Second)
		m.ObserveRun(&tasks.Result{Skipped: true}, nil, time.Millisecond)
		m.ObserveRun(nil, shared.ErrSink, time.Millisecond)

		checks := []struct {
			name string
			got  float64
			want float64
		}{
			{"processed", testutil.ToFloat64(m.RunsTotal.WithLabelValues("processed")), 1},
			{"skipped", testutil.ToFloat64(m.RunsTotal.WithLabelValues("skipped")), 1},
			{"errors", testutil.ToFloat64(m.RunErrors), 1},
			{"parsed", testutil.ToFloat64(m.Records.WithLabelValues("parsed")), 3},
			{"emitted", testutil.ToFloat64(m.Records.WithLabelValues("emitted")), 4},
			{"applied diagnostics", testutil.ToFloat64(m.DiagnosticsTotal.WithLabelValues("applied")), 1},
			{"skipped diagnostics", testutil.ToFloat64(m.DiagnosticsTotal.WithLabelValues("skipped")), 1},
		}
		for _, c := range checks {
			if c.got != c.want {
				t.Errorf("%s: expected %v, got %v", c.name, c.want, c.got)
			}
		}
		if n := testutil.CollectAndCount(m.RunDuration); n != 1 {
			t.Errorf("expected one duration series, got %d", n)
		}
	})

	t.Run("instrument and expose", func(t *testing.T) {
		m := NewMetrics()
		h := New(Options{Metrics: m}).Handler()

		get(t, h, "/healthz")
		get(t, h, "/healthz")
		get(t, h, "/playlist.m3u")

		if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200")); got != 2 {
			t.Errorf("expected 2 healthz requests, got %v", got)
		}
		if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/playlist.m3u", "404")); got != 1 {
			t.Errorf("expected 1 playlist 404, got %v", got)
		}

		rec := get(t, h, "/metrics")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "m3ux_http_requests_total") {
			t.Error("expected request counter in exposition")
		}
		if strings.Contains(body, `path="/metrics"`) {
			t.Error("metrics scrapes should not be counted")
		}
	})
}

func TestRecover(t *testing.T) {
	router := NewBasicRouter()
	router.Use(Recover(shared.NopLogger()))
	router.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	if rec := get(t, router, "/boom"); rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}
