package plan

import (
	"errors"
	"fmt"
	"strings"

	"dubmux/internal/media/ffprobe"
)

// ErrMissingSelection indicates a required input (path or track choice)
// was not supplied. It is reported before any subprocess runs.
var ErrMissingSelection = errors.New("missing selection")

// ErrTrackNotFound indicates the chosen external track index does not
// exist in the external file's probed stream list.
var ErrTrackNotFound = errors.New("track not found in external file")

// Request carries the caller's merge inputs.
type Request struct {
	VideoPath     string
	ExternalPath  string
	ExternalTrack int
	OutputPath    string
}

// Plan is the resolved set of stream mappings handed to the muxer.
// All indices are absolute container indices, exactly as ffprobe
// reports them and exactly as ffmpeg's -map input:stream consumes them.
type Plan struct {
	VideoPath          string
	ExternalPath       string
	VideoAudioIndex    int
	ExternalTrackIndex int
	OutputPath         string
}

// Options carries the selection policy knobs.
type Options struct {
	// PreferredLanguage is searched for among the video's audio streams.
	PreferredLanguage string
	// FallbackAudioIndex is mapped from the video container when no
	// preferred-language stream exists. It is not probed.
	FallbackAudioIndex int
}

// SelectPreferredTrack returns the container index of the first stream,
// by ascending index, whose language tag equals language
// case-insensitively. Ties on the same tag resolve to the lowest index.
func SelectPreferredTrack(streams []ffprobe.AudioStream, language string) (int, bool) {
	for _, stream := range streams {
		if strings.EqualFold(stream.Language, language) {
			return stream.Index, true
		}
	}
	return 0, false
}

// Build resolves a merge plan from probed streams and the caller's
// request. It performs no I/O.
//
// The video's preferred-language audio stream is mapped when present;
// otherwise the fixed fallback index is used. The external track choice
// is validated against the external probe result when that result is
// non-empty; an empty external probe cannot distinguish "no streams"
// from "probe unavailable", so the index passes through and the muxer
// reports any mapping error.
func Build(videoStreams, externalStreams []ffprobe.AudioStream, req Request, opts Options) (Plan, error) {
	if err := ValidateRequest(req); err != nil {
		return Plan{}, err
	}

	videoAudio := opts.FallbackAudioIndex
	if index, ok := SelectPreferredTrack(videoStreams, opts.PreferredLanguage); ok {
		videoAudio = index
	}

	if len(externalStreams) > 0 && !containsIndex(externalStreams, req.ExternalTrack) {
		return Plan{}, fmt.Errorf("%w: index %d", ErrTrackNotFound, req.ExternalTrack)
	}

	return Plan{
		VideoPath:          req.VideoPath,
		ExternalPath:       req.ExternalPath,
		VideoAudioIndex:    videoAudio,
		ExternalTrackIndex: req.ExternalTrack,
		OutputPath:         req.OutputPath,
	}, nil
}

// ValidateRequest rejects requests with missing selections. Callers
// that defer planning to a background worker use it to fail fast,
// before anything is spawned.
func ValidateRequest(req Request) error {
	if strings.TrimSpace(req.VideoPath) == "" {
		return fmt.Errorf("%w: video path", ErrMissingSelection)
	}
	if strings.TrimSpace(req.ExternalPath) == "" {
		return fmt.Errorf("%w: external audio path", ErrMissingSelection)
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return fmt.Errorf("%w: output path", ErrMissingSelection)
	}
	if req.ExternalTrack < 0 {
		return fmt.Errorf("%w: external track choice", ErrMissingSelection)
	}
	return nil
}

func containsIndex(streams []ffprobe.AudioStream, index int) bool {
	for _, stream := range streams {
		if stream.Index == index {
			return true
		}
	}
	return false
}
