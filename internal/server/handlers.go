package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/m3ux/internal/models"
	"github.com/desertthunder/m3ux/internal/playlist"
	"github.com/desertthunder/m3ux/internal/tasks"
)

// PlaylistContentType is sent with the rewritten playlist.
const PlaylistContentType = "audio/x-mpegurl; charset=utf-8"

// PlaylistHandler serves the output file written by the pipeline.
type PlaylistHandler struct {
	path   string
	logger *log.Logger
}

// NewPlaylistHandler serves the file at path.
func NewPlaylistHandler(path string, logger *log.Logger) *PlaylistHandler {
	return &PlaylistHandler{path: path, logger: logger}
}

func (h *PlaylistHandler) Routes() []string {
	return []string{"/playlist.m3u", "/playlist.m3u8"}
}

// ServeHTTP answers 404 until the first run has written the file.
func (h *PlaylistHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		http.Error(w, "playlist not written yet", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to open playlist", "path", h.path, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.logger.Error("failed to stat playlist", "path", h.path, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", PlaylistContentType)
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// Status tracks the outcome of the most recent scheduled run.
type Status struct {
	mu       sync.RWMutex
	started  time.Time
	lastRun  time.Time
	lastErr  error
	result   *tasks.Result
	finished int
}

// NewStatus starts the uptime clock.
func NewStatus() *Status {
	return &Status{started: time.Now().UTC()}
}

// ObserveRun records a run. It has the shape of [tasks.RunHook].
func (s *Status) ObserveRun(result *tasks.Result, err error, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastRun = time.Now().UTC()
	s.lastErr = err
	s.result = result
	s.finished++
}

type statusView struct {
	Status    string `json:"status"`
	StartedAt string `json:"started_at"`
	Runs      int    `json:"runs"`
	LastRun   string `json:"last_run,omitempty"`
	LastError string `json:"last_error,omitempty"`
	Skipped   bool   `json:"skipped,omitempty"`
	Emitted   int    `json:"emitted,omitempty"`
	Warnings  int    `json:"warnings,omitempty"`
	Digest    string `json:"digest,omitempty"`
}

func (s *Status) view() statusView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := statusView{Status: "ok", StartedAt: s.started.Format(playlist.TimestampLayout), Runs: s.finished}
	if !s.lastRun.IsZero() {
		v.LastRun = s.lastRun.Format(playlist.TimestampLayout)
	}
	if s.lastErr != nil {
		v.Status = "degraded"
		v.LastError = s.lastErr.Error()
	}
	if s.result != nil {
		v.Skipped = s.result.Skipped
		v.Emitted = s.result.Emitted
		v.Warnings = s.result.Warnings()
		v.Digest = s.result.Digest
	}
	return v
}

// HealthHandler reports liveness and the last run. A failed last run reports "degraded" with status 200.
type HealthHandler struct {
	status *Status
}

func NewHealthHandler(status *Status) *HealthHandler {
	return &HealthHandler{status: status}
}

func (h *HealthHandler) Routes() []string {
	return []string{"/healthz"}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status.view())
}

// RunLister lists recorded runs. repositories.RunRepository implements it.
type RunLister interface {
	List(criteria map[string]any) ([]*models.Run, error)
}

// RunView is the JSON shape of a recorded run.
type RunView struct {
	ID         string `json:"id"`
	Sequence   int    `json:"sequence"`
	Source     string `json:"source"`
	Outcome    string `json:"outcome"`
	Digest     string `json:"digest"`
	Parsed     int    `json:"parsed"`
	Emitted    int    `json:"emitted"`
	Warnings   int    `json:"warnings"`
	OutputPath string `json:"output_path"`
	CreatedAt  string `json:"created_at"`
}

// NewRunViews converts runs for JSON output.
func NewRunViews(runs []*models.Run) []RunView {
	views := make([]RunView, len(runs))
	for i, run := range runs {
		views[i] = RunView{
			ID:         run.ID(),
			Sequence:   run.Sequence(),
			Source:     run.Source,
			Outcome:    string(run.Outcome),
			Digest:     run.Digest,
			Parsed:     run.Parsed,
			Emitted:    run.Emitted,
			Warnings:   run.Warnings,
			OutputPath: run.OutputPath,
			CreatedAt:  run.CreatedAt().UTC().Format(playlist.TimestampLayout),
		}
	}
	return views
}

// RunsHandler lists run history. Query parameters limit and outcome filter the list.
type RunsHandler struct {
	runs   RunLister
	logger *log.Logger
}

func NewRunsHandler(runs RunLister, logger *log.Logger) *RunsHandler {
	return &RunsHandler{runs: runs, logger: logger}
}

func (h *RunsHandler) Routes() []string {
	return []string{"/runs"}
}

const defaultRunLimit = 20

func (h *RunsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	criteria := map[string]any{"limit": limit}
	if outcome := r.URL.Query().Get("outcome"); outcome != "" {
		criteria["outcome"] = models.RunOutcome(outcome)
	}

	runs, err := h.runs.List(criteria)
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, NewRunViews(runs))
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}
