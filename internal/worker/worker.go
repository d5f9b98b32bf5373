package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"dubmux/internal/logging"
	"dubmux/internal/media/ffprobe"
	"dubmux/internal/media/plan"
)

// ErrMergeInFlight is returned when a merge is requested while another
// one is still running, in this process or another one holding the lock.
var ErrMergeInFlight = errors.New("a merge is already in progress")

// EventKind distinguishes ordinary log lines from the terminal event.
type EventKind int

const (
	// EventLog carries one human-readable progress line.
	EventLog EventKind = iota
	// EventDone is the terminal event of a merge. Err is nil on
	// success. After EventDone the worker accepts a new Start.
	EventDone
)

// Event is one message on the worker-to-caller queue.
type Event struct {
	Kind  EventKind
	JobID string
	Line  string
	Err   error
}

// Request carries everything a merge needs. The worker keeps its own
// copy; callers may reuse or mutate theirs after Start returns.
type Request struct {
	VideoPath     string
	ExternalPath  string
	ExternalTrack int
	OutputPath    string
	// ExternalStreams is the probe result for ExternalPath, used to
	// validate ExternalTrack before ffmpeg runs. May be empty when the
	// probe produced nothing.
	ExternalStreams []ffprobe.AudioStream
}

// Prober supplies the video file's audio stream list.
type Prober interface {
	AudioStreams(ctx context.Context, path string) []ffprobe.AudioStream
}

// Executor runs a resolved plan to completion.
type Executor interface {
	Execute(ctx context.Context, p plan.Plan) error
}

// Result summarizes a finished merge for observers such as the history
// store.
type Result struct {
	JobID        string
	Plan         plan.Plan
	Err          error
	UsedFallback bool
}

// Merger runs at most one merge at a time on a background goroutine and
// streams progress back through an ordered, unbounded event queue.
type Merger struct {
	prober   Prober
	executor Executor
	opts     plan.Options
	logger   *slog.Logger
	lock     *flock.Flock
	onDone   func(Result)

	mu     sync.Mutex
	busy   bool
	events []Event
}

// Option configures the merger.
type Option func(*Merger)

// WithLockFile enables a cross-process flock so concurrent dubmux
// processes cannot merge simultaneously.
func WithLockFile(path string) Option {
	return func(m *Merger) {
		if path != "" {
			m.lock = flock.New(path)
		}
	}
}

// WithResultObserver registers a callback invoked with each finished
// merge, after the terminal event is queued.
func WithResultObserver(fn func(Result)) Option {
	return func(m *Merger) { m.onDone = fn }
}

// New constructs a merger.
func New(prober Prober, executor Executor, opts plan.Options, logger *slog.Logger, options ...Option) *Merger {
	merger := &Merger{
		prober:   prober,
		executor: executor,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "worker"),
	}
	for _, option := range options {
		option(merger)
	}
	return merger
}

// Start validates the request and launches the merge on a background
// goroutine. It fails synchronously with ErrMergeInFlight when a merge
// is active, and with a validation error when a selection is missing;
// in both cases nothing is spawned. The returned job id tags every
// event the merge emits.
func (m *Merger) Start(ctx context.Context, req Request) (string, error) {
	if err := plan.ValidateRequest(plan.Request{
		VideoPath:     req.VideoPath,
		ExternalPath:  req.ExternalPath,
		ExternalTrack: req.ExternalTrack,
		OutputPath:    req.OutputPath,
	}); err != nil {
		return "", err
	}

	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return "", ErrMergeInFlight
	}
	m.busy = true
	m.mu.Unlock()

	if m.lock != nil {
		ok, err := m.lock.TryLock()
		if err != nil {
			m.setIdle()
			return "", fmt.Errorf("acquire merge lock: %w", err)
		}
		if !ok {
			m.setIdle()
			return "", ErrMergeInFlight
		}
	}

	jobID := uuid.NewString()
	streams := append([]ffprobe.AudioStream(nil), req.ExternalStreams...)
	req.ExternalStreams = streams

	go m.run(ctx, jobID, req)
	return jobID, nil
}

// Busy reports whether a merge is currently running.
func (m *Merger) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// Poll removes and returns the oldest pending event. It never blocks;
// ok is false when the queue is empty.
func (m *Merger) Poll() (Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return Event{}, false
	}
	event := m.events[0]
	m.events = m.events[1:]
	return event, true
}

func (m *Merger) run(ctx context.Context, jobID string, req Request) {
	defer func() {
		if m.lock != nil {
			if err := m.lock.Unlock(); err != nil {
				m.logger.Warn("release merge lock", logging.Error(err))
			}
		}
		m.setIdle()
	}()

	m.emitLog(jobID, fmt.Sprintf("searching %s for a %q audio track", req.VideoPath, m.opts.PreferredLanguage))
	videoStreams := m.prober.AudioStreams(ctx, req.VideoPath)

	usedFallback := false
	if index, ok := plan.SelectPreferredTrack(videoStreams, m.opts.PreferredLanguage); ok {
		m.emitLog(jobID, fmt.Sprintf("found %q at container index %d", m.opts.PreferredLanguage, index))
	} else {
		usedFallback = true
		m.emitLog(jobID, fmt.Sprintf("no %q track in video; using fallback audio index %d", m.opts.PreferredLanguage, m.opts.FallbackAudioIndex))
	}

	resolved, err := plan.Build(videoStreams, req.ExternalStreams, plan.Request{
		VideoPath:     req.VideoPath,
		ExternalPath:  req.ExternalPath,
		ExternalTrack: req.ExternalTrack,
		OutputPath:    req.OutputPath,
	}, m.opts)
	if err != nil {
		m.emitLog(jobID, fmt.Sprintf("merge aborted: %v", err))
		m.finish(jobID, Result{JobID: jobID, Err: err, UsedFallback: usedFallback})
		return
	}

	m.emitLog(jobID, fmt.Sprintf("running ffmpeg: video audio 0:%d, external track 1:%d", resolved.VideoAudioIndex, resolved.ExternalTrackIndex))
	execErr := m.executor.Execute(ctx, resolved)
	if execErr != nil {
		m.emitLog(jobID, fmt.Sprintf("merge failed: %v", execErr))
	} else {
		m.emitLog(jobID, fmt.Sprintf("merge completed: %s", resolved.OutputPath))
	}
	m.finish(jobID, Result{JobID: jobID, Plan: resolved, Err: execErr, UsedFallback: usedFallback})
}

func (m *Merger) finish(jobID string, result Result) {
	m.mu.Lock()
	m.events = append(m.events, Event{Kind: EventDone, JobID: jobID, Err: result.Err})
	m.mu.Unlock()
	if m.onDone != nil {
		m.onDone(result)
	}
}

func (m *Merger) emitLog(jobID, line string) {
	m.logger.Info(line, logging.String("job_id", jobID))
	m.mu.Lock()
	m.events = append(m.events, Event{Kind: EventLog, JobID: jobID, Line: line})
	m.mu.Unlock()
}

func (m *Merger) setIdle() {
	m.mu.Lock()
	m.busy = false
	m.mu.Unlock()
}
