package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/m3ux/internal/gate"
	"github.com/desertthunder/m3ux/internal/models"
	"github.com/desertthunder/m3ux/internal/playlist"
	"github.com/desertthunder/m3ux/internal/rules"
	"github.com/desertthunder/m3ux/internal/shared"
	tu "github.com/desertthunder/m3ux/internal/testing"
	"github.com/google/go-cmp/cmp"
)

const (
	testSource = "http://example.com/list.m3u"
	testOutput = "out/playlist.m3u"
)

type memoryHistory struct {
	runs []*models.Run
	err  error
}

func (h *memoryHistory) RecordRun(run *models.Run) error {
	if h.err != nil {
		return h.err
	}
	run.SetID(fmt.Sprintf("run-%d", len(h.runs)+1))
	h.runs = append(h.runs, run)
	return nil
}

type failingStore struct{}

func (failingStore) Load(ctx context.Context) (string, bool, error) {
	return "", false, errors.New("store offline")
}
func (failingStore) Store(ctx context.Context, digest string) error {
	return errors.New("store offline")
}
func (failingStore) Reset(ctx context.Context) error { return errors.New("store offline") }

type fixture struct {
	fetcher  *tu.StaticFetcher
	sink     *tu.MemorySink
	store    gate.DigestStore
	history  *memoryHistory
	pipeline *Pipeline
}

func newFixture(text string, store gate.DigestStore, rs ...rules.Rule) *fixture {
	f := &fixture{
		fetcher: &tu.StaticFetcher{Text: text},
		sink:    tu.NewMemorySink(),
		store:   store,
		history: &memoryHistory{},
	}
	f.pipeline = NewPipeline(f.fetcher, f.sink, gate.New(store, nil), rules.NewEngine(rs, nil), f.history, nil)
	f.pipeline.SetClock(func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) })
	return f
}

func defaultOpts() Options {
	return Options{
		SourceURL:   testSource,
		OutputPath:  testOutput,
		Generator:   "m3ux",
		Placeholder: "# source unchanged",
	}
}

func copyRule() rules.Rule {
	return rules.DuplicateAfter("copy-a",
		playlist.Query{Names: []string{"A"}, Exact: true},
		playlist.Query{Names: []string{"B"}, Exact: true},
		"g3")
}

type channel struct{ Name, Group string }

func channels(t *testing.T, text string) []channel {
	t.Helper()
	records, diags := playlist.Parse(text)
	if len(diags) != 0 {
		t.Fatalf("rendered output should parse cleanly, got %v", diags)
	}
	out := make([]channel, len(records))
	for i, r := range records {
		out[i] = channel{r.DisplayName, r.Group}
	}
	return out
}

func TestPipelineRun(t *testing.T) {
	ctx := context.Background()
	input := tu.M3U("A", "g1", "B", "g1", "C", "g2")

	t.Run("FirstRunProcesses", func(t *testing.T) {
		f := newFixture(input, gate.NewMemoryStore(""), copyRule())

		result, err := f.pipeline.Run(ctx, defaultOpts(), nil)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if !result.Changed || result.Skipped {
			t.Errorf("expected a processed run, got changed=%v skipped=%v", result.Changed, result.Skipped)
		}
		if result.Parsed != 3 || result.Emitted != 4 {
			t.Errorf("expected 3 parsed and 4 emitted, got %d and %d", result.Parsed, result.Emitted)
		}

		written, ok := f.sink.Files[testOutput]
		if !ok {
			t.Fatal("expected output to be written")
		}
		if written != result.Output {
			t.Error("written text should equal the rendered output")
		}

		want := []channel{{"A", "g1"}, {"B", "g1"}, {"A", "g3"}, {"C", "g2"}}
		if diff := cmp.Diff(want, channels(t, written)); diff != "" {
			t.Errorf("channel order mismatch (-want +got):\n%s", diff)
		}

		for _, line := range []string{
			"#EXTM3U",
			"# Generated by m3ux",
			"# Source: " + testSource,
			"# Processed at: 2024-01-02 03:04:05",
			"# 1. copy-a",
		} {
			if !strings.Contains(written, line+"\n") {
				t.Errorf("expected header line %q in output", line)
			}
		}

		digest, ok, _ := f.store.Load(ctx)
		if !ok || digest != gate.Digest(input) {
			t.Errorf("expected committed digest %s, got %q (ok=%v)", gate.Digest(input), digest, ok)
		}
		if result.Digest != gate.Digest(input) {
			t.Errorf("expected result digest %s, got %s", gate.Digest(input), result.Digest)
		}

		if len(f.history.runs) != 1 || f.history.runs[0].Outcome != models.RunProcessed {
			t.Fatalf("expected one processed run recorded, got %+v", f.history.runs)
		}
		if result.RunID != "run-1" {
			t.Errorf("expected run id run-1, got %q", result.RunID)
		}
		if run := f.history.runs[0]; run.Parsed != 3 || run.Emitted != 4 || run.OutputPath != testOutput {
			t.Errorf("unexpected recorded run %+v", run)
		}
	})

	t.Run("UnchangedSourceSkips", func(t *testing.T) {
		f := newFixture(input, gate.NewMemoryStore(""), copyRule())

		if _, err := f.pipeline.Run(ctx, defaultOpts(), nil); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		first := f.sink.Files[testOutput]

		result, err := f.pipeline.Run(ctx, defaultOpts(), nil)
		if err != nil {
			t.Fatalf("second run failed: %v", err)
		}
		if !result.Skipped || result.Changed {
			t.Errorf("expected skipped run, got changed=%v skipped=%v", result.Changed, result.Skipped)
		}
		if result.Output != "" {
			t.Error("skipped run should not render output")
		}
		if f.sink.Files[testOutput] != first {
			t.Error("skipped run should leave the existing output alone")
		}
		if got := f.history.runs[len(f.history.runs)-1].Outcome; got != models.RunSkipped {
			t.Errorf("expected skipped run recorded, got %s", got)
		}
	})

	t.Run("ChangedSourceReprocesses", func(t *testing.T) {
		f := newFixture(input, gate.NewMemoryStore(""))
		if _, err := f.pipeline.Run(ctx, defaultOpts(), nil); err != nil {
			t.Fatalf("first run failed: %v", err)
		}

		f.fetcher.Text = tu.M3U("A", "g1")
		result, err := f.pipeline.Run(ctx, defaultOpts(), nil)
		if err != nil {
			t.Fatalf("second run failed: %v", err)
		}
		if result.Skipped || result.Emitted != 1 {
			t.Errorf("expected reprocessed run with 1 record, got %+v", result)
		}
	})

	t.Run("PlaceholderWhenOutputMissing", func(t *testing.T) {
		f := newFixture(input, gate.NewMemoryStore(gate.Digest(input)))

		result, err := f.pipeline.Run(ctx, defaultOpts(), nil)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if !result.Skipped {
			t.Fatal("expected skipped run")
		}
		if got, want := f.sink.Files[testOutput], "#EXTM3U\n# source unchanged\n"; got != want {
			t.Errorf("expected placeholder %q, got %q", want, got)
		}
	})

	t.Run("NoPlaceholderWhenEmpty", func(t *testing.T) {
		f := newFixture(input, gate.NewMemoryStore(gate.Digest(input)))
		opts := defaultOpts()
		opts.Placeholder = ""

		if _, err := f.pipeline.Run(ctx, opts, nil); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if f.sink.Exists(testOutput) {
			t.Error("no output expected without a placeholder")
		}
	})

	t.Run("ForceIgnoresGate", func(t *testing.T) {
		f := newFixture(input, gate.NewMemoryStore(gate.Digest(input)))
		opts := defaultOpts()
		opts.Force = true

		result, err := f.pipeline.Run(ctx, opts, nil)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if result.Skipped || !result.Changed || result.Emitted != 3 {
			t.Errorf("expected forced processing, got %+v", result)
		}
	})

	t.Run("DryRunWritesNothing", func(t *testing.T) {
		f := newFixture(input, gate.NewMemoryStore(""), copyRule())
		opts := defaultOpts()
		opts.DryRun = true

		result, err := f.pipeline.Run(ctx, opts, nil)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if result.Output == "" || result.Emitted != 4 {
			t.Errorf("dry run should still render, got %+v", result)
		}
		if len(f.sink.Files) != 0 {
			t.Errorf("dry run should not write, got %v", f.sink.Files)
		}
		if _, ok, _ := f.store.Load(ctx); ok {
			t.Error("dry run should not commit the digest")
		}
		if got := f.history.runs[0].Outcome; got != models.RunDryRun {
			t.Errorf("expected dry_run outcome, got %s", got)
		}
	})

	t.Run("DiagnosticsReturned", func(t *testing.T) {
		text := input + "#EXTINF:-1 group-title=\"g1\",Dangling\n"
		miss := rules.MoveToEnd("missing", playlist.Query{Names: []string{"Nope"}, Exact: true}, "")
		f := newFixture(text, gate.NewMemoryStore(""), miss)

		result, err := f.pipeline.Run(ctx, defaultOpts(), nil)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		var steps []string
		for _, d := range result.Diagnostics {
			steps = append(steps, d.Step+"/"+string(d.Outcome))
		}
		want := []string{"parse/dropped", "missing/skipped"}
		if diff := cmp.Diff(want, steps); diff != "" {
			t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
		}
		if result.Warnings() != 2 || f.history.runs[0].Warnings != 2 {
			t.Errorf("expected 2 warnings, got %d", result.Warnings())
		}
	})

	t.Run("Progress", func(t *testing.T) {
		f := newFixture(input, gate.NewMemoryStore(""))
		progress := make(chan ProgressUpdate, 16)

		if _, err := f.pipeline.Run(ctx, defaultOpts(), progress); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		close(progress)

		var phases []string
		for u := range progress {
			if u.Total != totalPhases {
				t.Errorf("expected total %d, got %d", totalPhases, u.Total)
			}
			phases = append(phases, u.Phase.String())
		}
		want := []string{"fetch", "gate", "parse", "apply", "render", "write", "commit", "record"}
		if diff := cmp.Diff(want, phases); diff != "" {
			t.Errorf("phase mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("FullProgressChannelDoesNotBlock", func(t *testing.T) {
		f := newFixture(input, gate.NewMemoryStore(""))
		progress := make(chan ProgressUpdate)

		if _, err := f.pipeline.Run(ctx, defaultOpts(), progress); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	})
}

func TestPipelineRunErrors(t *testing.T) {
	ctx := context.Background()
	input := tu.M3U("A", "g1")

	t.Run("MissingOptions", func(t *testing.T) {
		f := newFixture(input, gate.NewMemoryStore(""))

		tests := []struct {
			name string
			opts Options
		}{
			{"NoSource", Options{OutputPath: testOutput}},
			{"NoOutput", Options{SourceURL: testSource}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := f.pipeline.Run(ctx, tt.opts, nil); !errors.Is(err, shared.ErrMissingArgument) {
					t.Errorf("expected ErrMissingArgument, got %v", err)
				}
			})
		}
	})

	t.Run("RetrievalFailureIsFatal", func(t *testing.T) {
		f := newFixture(input, gate.NewMemoryStore(""))
		f.fetcher.Err = errors.New("connection refused")

		_, err := f.pipeline.Run(ctx, defaultOpts(), nil)
		if !errors.Is(err, shared.ErrRetrieval) {
			t.Fatalf("expected ErrRetrieval, got %v", err)
		}
		if len(f.sink.Files) != 0 || len(f.history.runs) != 0 {
			t.Error("failed retrieval should not write or record anything")
		}
	})

	t.Run("SinkFailureIsFatal", func(t *testing.T) {
		f := newFixture(input, gate.NewMemoryStore(""))
		f.sink.Err = errors.New("disk full")

		_, err := f.pipeline.Run(ctx, defaultOpts(), nil)
		if !errors.Is(err, shared.ErrSink) {
			t.Fatalf("expected ErrSink, got %v", err)
		}
		if _, ok, _ := f.store.Load(ctx); ok {
			t.Error("digest must not be committed when the write fails")
		}
	})

	t.Run("PlaceholderSinkFailureIsFatal", func(t *testing.T) {
		f := newFixture(input, gate.NewMemoryStore(gate.Digest(input)))
		f.sink.Err = errors.New("read-only filesystem")

		if _, err := f.pipeline.Run(ctx, defaultOpts(), nil); !errors.Is(err, shared.ErrSink) {
			t.Fatalf("expected ErrSink, got %v", err)
		}
	})

	t.Run("DigestStoreFailureIsSoft", func(t *testing.T) {
		f := newFixture(input, failingStore{})

		result, err := f.pipeline.Run(ctx, defaultOpts(), nil)
		if err != nil {
			t.Fatalf("store failures should not fail the run: %v", err)
		}
		if result.Skipped || !f.sink.Exists(testOutput) {
			t.Error("unreadable store should be treated as changed")
		}
	})

	t.Run("HistoryFailureIsSoft", func(t *testing.T) {
		f := newFixture(input, gate.NewMemoryStore(""))
		f.history.err = errors.New("database locked")

		result, err := f.pipeline.Run(ctx, defaultOpts(), nil)
		if err != nil {
			t.Fatalf("history failures should not fail the run: %v", err)
		}
		if result.RunID != "" {
			t.Errorf("expected empty run id, got %q", result.RunID)
		}
	})

	t.Run("NilHistory", func(t *testing.T) {
		p := NewPipeline(&tu.StaticFetcher{Text: input}, tu.NewMemorySink(),
			gate.New(gate.NewMemoryStore(""), nil), rules.NewEngine(nil, nil), nil, nil)

		result, err := p.Run(ctx, defaultOpts(), nil)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if result.RunID != "" {
			t.Errorf("expected no run id without history, got %q", result.RunID)
		}
	})
}
