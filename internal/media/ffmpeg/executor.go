package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"dubmux/internal/logging"
	"dubmux/internal/media/plan"
	"dubmux/internal/platform"
)

// Runner abstracts command execution for testability.
type Runner interface {
	Run(ctx context.Context, binary string, args []string) error
}

type commandRunner struct{}

func (commandRunner) Run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	platform.HideWindow(cmd)
	return cmd.Run()
}

// Option configures the executor.
type Option func(*Executor)

// WithRunner injects a custom runner (primarily for tests).
func WithRunner(run Runner) Option {
	return func(e *Executor) {
		if run != nil {
			e.run = run
		}
	}
}

// Executor issues merge plans to ffmpeg.
type Executor struct {
	binary string
	logger *slog.Logger
	run    Runner
}

// New constructs an executor around the given ffmpeg binary.
func New(binary string, logger *slog.Logger, opts ...Option) *Executor {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	executor := &Executor{
		binary: binary,
		logger: logging.NewComponentLogger(logger, "muxer"),
		run:    commandRunner{},
	}
	for _, opt := range opts {
		opt(executor)
	}
	return executor
}

// Arguments returns the ffmpeg invocation for a plan: stream copy, no
// re-encode, silent operation, unconditional overwrite of the output.
func Arguments(p plan.Plan) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", p.VideoPath,
		"-i", p.ExternalPath,
		"-map", "0:0",
		"-map", fmt.Sprintf("0:%d", p.VideoAudioIndex),
		"-map", fmt.Sprintf("1:%d", p.ExternalTrackIndex),
		"-c", "copy",
		p.OutputPath,
	}
}

// Execute runs the plan to completion. A failure to launch ffmpeg
// surfaces as *SpawnError; a nonzero exit as *ToolError.
func (e *Executor) Execute(ctx context.Context, p plan.Plan) error {
	e.logger.Info("merging streams",
		logging.String("video", p.VideoPath),
		logging.String("external", p.ExternalPath),
		logging.Int("video_audio_index", p.VideoAudioIndex),
		logging.Int("external_track_index", p.ExternalTrackIndex),
		logging.String("output", p.OutputPath))

	err := e.run.Run(ctx, e.binary, Arguments(p))
	if err == nil {
		e.logger.Info("merge completed", logging.String("output", p.OutputPath))
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		toolErr := &ToolError{Code: exitErr.ExitCode()}
		e.logger.Error("ffmpeg reported failure", logging.Int("exit_code", toolErr.Code))
		return toolErr
	}

	spawnErr := &SpawnError{Err: err}
	e.logger.Error("unable to run ffmpeg", logging.Error(err))
	return spawnErr
}
