package worker_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"dubmux/internal/logging"
	"dubmux/internal/media/ffprobe"
	"dubmux/internal/media/plan"
	"dubmux/internal/worker"
)

type stubProber struct {
	streams []ffprobe.AudioStream
}

func (s *stubProber) AudioStreams(ctx context.Context, path string) []ffprobe.AudioStream {
	return s.streams
}

type stubExecutor struct {
	calls   atomic.Int32
	err     error
	release chan struct{}
	plans   chan plan.Plan
}

func newStubExecutor() *stubExecutor {
	return &stubExecutor{plans: make(chan plan.Plan, 1)}
}

func (s *stubExecutor) Execute(ctx context.Context, p plan.Plan) error {
	s.calls.Add(1)
	s.plans <- p
	if s.release != nil {
		<-s.release
	}
	return s.err
}

func defaultOptions() plan.Options {
	return plan.Options{PreferredLanguage: "eng", FallbackAudioIndex: 1}
}

func validRequest() worker.Request {
	return worker.Request{
		VideoPath:     "movie.mkv",
		ExternalPath:  "dub.mka",
		ExternalTrack: 0,
		OutputPath:    "merged.mkv",
		ExternalStreams: []ffprobe.AudioStream{
			{Index: 0, Language: "por"},
		},
	}
}

func drainUntilDone(t *testing.T, m *worker.Merger) []worker.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	var events []worker.Event
	for {
		event, ok := m.Poll()
		if !ok {
			select {
			case <-deadline:
				t.Fatalf("timed out waiting for done event; got %d events", len(events))
			case <-time.After(5 * time.Millisecond):
			}
			continue
		}
		events = append(events, event)
		if event.Kind == worker.EventDone {
			return events
		}
	}
}

func TestMergeMapsPreferredVideoAudio(t *testing.T) {
	prober := &stubProber{streams: []ffprobe.AudioStream{
		{Index: 1, Language: "spa"},
		{Index: 3, Language: "eng"},
	}}
	executor := newStubExecutor()
	m := worker.New(prober, executor, defaultOptions(), logging.NewNop())

	jobID, err := m.Start(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if jobID == "" {
		t.Fatal("expected a job id")
	}

	events := drainUntilDone(t, m)
	done := events[len(events)-1]
	if done.Err != nil {
		t.Fatalf("unexpected merge error: %v", done.Err)
	}

	resolved := <-executor.plans
	if resolved.VideoAudioIndex != 3 {
		t.Fatalf("expected video audio index 3, got %d", resolved.VideoAudioIndex)
	}
	if resolved.ExternalTrackIndex != 0 {
		t.Fatalf("expected external track 0, got %d", resolved.ExternalTrackIndex)
	}
}

func TestMergeFallsBackWhenNoPreferredTrack(t *testing.T) {
	prober := &stubProber{streams: []ffprobe.AudioStream{{Index: 1, Language: "spa"}}}
	executor := newStubExecutor()
	m := worker.New(prober, executor, defaultOptions(), logging.NewNop())

	if _, err := m.Start(context.Background(), validRequest()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	drainUntilDone(t, m)

	resolved := <-executor.plans
	if resolved.VideoAudioIndex != 1 {
		t.Fatalf("expected fallback index 1, got %d", resolved.VideoAudioIndex)
	}
}

func TestSecondStartRejectedWhileMergeActive(t *testing.T) {
	prober := &stubProber{}
	executor := newStubExecutor()
	executor.release = make(chan struct{})
	m := worker.New(prober, executor, defaultOptions(), logging.NewNop())

	if _, err := m.Start(context.Background(), validRequest()); err != nil {
		t.Fatalf("first Start: %v", err)
	}

	// Wait for the merge goroutine to reach the executor.
	<-executor.plans

	if _, err := m.Start(context.Background(), validRequest()); !errors.Is(err, worker.ErrMergeInFlight) {
		t.Fatalf("expected ErrMergeInFlight, got %v", err)
	}
	if got := executor.calls.Load(); got != 1 {
		t.Fatalf("expected one executor invocation, got %d", got)
	}

	close(executor.release)
	drainUntilDone(t, m)

	if _, err := m.Start(context.Background(), validRequest()); err != nil {
		t.Fatalf("Start after completion: %v", err)
	}
	<-executor.plans
	drainUntilDone(t, m)
}

func TestStartRejectsMissingSelectionsSynchronously(t *testing.T) {
	executor := newStubExecutor()
	m := worker.New(&stubProber{}, executor, defaultOptions(), logging.NewNop())

	req := validRequest()
	req.OutputPath = ""
	if _, err := m.Start(context.Background(), req); !errors.Is(err, plan.ErrMissingSelection) {
		t.Fatalf("expected ErrMissingSelection, got %v", err)
	}
	if executor.calls.Load() != 0 {
		t.Fatal("executor must not run for an invalid request")
	}
	if m.Busy() {
		t.Fatal("worker must stay idle after a rejected request")
	}
}

func TestInvalidExternalTrackAbortsBeforeExecutor(t *testing.T) {
	executor := newStubExecutor()
	m := worker.New(&stubProber{}, executor, defaultOptions(), logging.NewNop())

	req := validRequest()
	req.ExternalTrack = 9
	if _, err := m.Start(context.Background(), req); err != nil {
		t.Fatalf("Start: %v", err)
	}
	events := drainUntilDone(t, m)
	done := events[len(events)-1]
	if !errors.Is(done.Err, plan.ErrTrackNotFound) {
		t.Fatalf("expected ErrTrackNotFound, got %v", done.Err)
	}
	if executor.calls.Load() != 0 {
		t.Fatal("executor must not run for an unmappable track")
	}
}

func TestEventsEndWithDoneAndCarryJobID(t *testing.T) {
	prober := &stubProber{streams: []ffprobe.AudioStream{{Index: 3, Language: "eng"}}}
	executor := newStubExecutor()
	m := worker.New(prober, executor, defaultOptions(), logging.NewNop())

	jobID, err := m.Start(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	events := drainUntilDone(t, m)
	if len(events) < 2 {
		t.Fatalf("expected log lines before done, got %d events", len(events))
	}
	for _, event := range events[:len(events)-1] {
		if event.Kind != worker.EventLog {
			t.Fatalf("expected only log events before done, got %v", event.Kind)
		}
		if event.JobID != jobID {
			t.Fatalf("event job id %q does not match %q", event.JobID, jobID)
		}
	}
}

func TestResultObserverSeesOutcome(t *testing.T) {
	prober := &stubProber{streams: []ffprobe.AudioStream{{Index: 3, Language: "eng"}}}
	executor := newStubExecutor()
	executor.err = errors.New("boom")
	results := make(chan worker.Result, 1)
	m := worker.New(prober, executor, defaultOptions(), logging.NewNop(),
		worker.WithResultObserver(func(r worker.Result) { results <- r }))

	if _, err := m.Start(context.Background(), validRequest()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	drainUntilDone(t, m)

	select {
	case result := <-results:
		if result.Err == nil {
			t.Fatal("expected observer to see the failure")
		}
	case <-time.After(time.Second):
		t.Fatal("observer never invoked")
	}
}

func TestLockFileBlocksSecondMerger(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "merge.lock")
	prober := &stubProber{}

	first := newStubExecutor()
	first.release = make(chan struct{})
	m1 := worker.New(prober, first, defaultOptions(), logging.NewNop(), worker.WithLockFile(lockPath))

	second := newStubExecutor()
	m2 := worker.New(prober, second, defaultOptions(), logging.NewNop(), worker.WithLockFile(lockPath))

	if _, err := m1.Start(context.Background(), validRequest()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	<-first.plans

	if _, err := m2.Start(context.Background(), validRequest()); !errors.Is(err, worker.ErrMergeInFlight) {
		t.Fatalf("expected ErrMergeInFlight across mergers, got %v", err)
	}

	close(first.release)
	drainUntilDone(t, m1)
}
