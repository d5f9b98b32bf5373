package ffprobe

import (
	"context"
	"encoding/json"
	"log/slog"
	"os/exec"
	"sort"
	"strings"

	"dubmux/internal/logging"
	"dubmux/internal/platform"
)

// UnknownLanguage is reported for streams carrying no language tag.
const UnknownLanguage = "unknown"

// AudioStream describes one audio stream found in a media container.
// Index is the stream's position within the whole container, not its
// position among audio streams only.
type AudioStream struct {
	Index    int
	Language string
}

// Runner abstracts command execution for testability.
type Runner interface {
	Output(ctx context.Context, binary string, args []string) ([]byte, error)
}

type commandRunner struct{}

func (commandRunner) Output(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	platform.HideWindow(cmd)
	return cmd.Output()
}

// Option configures the prober.
type Option func(*Prober)

// WithRunner injects a custom runner (primarily for tests).
func WithRunner(run Runner) Option {
	return func(p *Prober) {
		if run != nil {
			p.run = run
		}
	}
}

// Prober wraps ffprobe audio-stream inspection.
type Prober struct {
	binary string
	logger *slog.Logger
	run    Runner
}

// New constructs a prober around the given ffprobe binary.
func New(binary string, logger *slog.Logger, opts ...Option) *Prober {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	prober := &Prober{
		binary: binary,
		logger: logging.NewComponentLogger(logger, "prober"),
		run:    commandRunner{},
	}
	for _, opt := range opts {
		opt(prober)
	}
	return prober
}

type probePayload struct {
	Streams []struct {
		Index *int `json:"index"`
		Tags  struct {
			Language string `json:"language"`
		} `json:"tags"`
	} `json:"streams"`
}

// AudioStreams probes path for audio streams and returns them ordered by
// ascending container index.
//
// Failures here are expected conditions, not errors: a file with no
// audio, an absent ffprobe binary, an unsupported container, or a
// malformed payload all yield an empty slice, with the cause reported
// through the logger. The caller decides what zero streams means.
func (p *Prober) AudioStreams(ctx context.Context, path string) []AudioStream {
	p.logger.Info("probing audio streams", logging.String("path", path))

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-select_streams", "a",
		"-show_entries", "stream=index:stream_tags=language",
		"-of", "json",
		path,
	}
	output, err := p.run.Output(ctx, p.binary, args)
	if err != nil {
		p.logger.Warn("ffprobe failed", logging.String("path", path), logging.Error(err))
		return nil
	}

	var payload probePayload
	if err := json.Unmarshal(output, &payload); err != nil {
		p.logger.Warn("ffprobe payload unparseable", logging.String("path", path), logging.Error(err))
		return nil
	}
	if payload.Streams == nil {
		p.logger.Warn("ffprobe payload has no stream list", logging.String("path", path))
		return nil
	}

	streams := make([]AudioStream, 0, len(payload.Streams))
	for _, entry := range payload.Streams {
		if entry.Index == nil {
			p.logger.Warn("stream entry missing index, skipping")
			continue
		}
		language := strings.TrimSpace(entry.Tags.Language)
		if language == "" {
			language = UnknownLanguage
		}
		p.logger.Info("found audio stream",
			logging.Int("index", *entry.Index),
			logging.String("language", language))
		streams = append(streams, AudioStream{Index: *entry.Index, Language: language})
	}

	sort.Slice(streams, func(i, j int) bool { return streams[i].Index < streams[j].Index })
	return streams
}
