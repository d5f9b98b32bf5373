package ffprobe_test

import (
	"context"
	"errors"
	"testing"

	"dubmux/internal/logging"
	"dubmux/internal/media/ffprobe"
)

type stubRunner struct {
	output []byte
	err    error
	args   []string
	calls  int
}

func (s *stubRunner) Output(ctx context.Context, binary string, args []string) ([]byte, error) {
	s.calls++
	s.args = args
	return s.output, s.err
}

func newProber(run *stubRunner) *ffprobe.Prober {
	return ffprobe.New("ffprobe", logging.NewNop(), ffprobe.WithRunner(run))
}

func TestAudioStreamsParsesIndexAndLanguage(t *testing.T) {
	run := &stubRunner{output: []byte(`{
		"streams": [
			{"index": 1, "tags": {"language": "spa"}},
			{"index": 3, "tags": {"language": "eng"}},
			{"index": 4}
		]
	}`)}

	streams := newProber(run).AudioStreams(context.Background(), "movie.mkv")
	if len(streams) != 3 {
		t.Fatalf("expected 3 streams, got %d", len(streams))
	}
	want := []ffprobe.AudioStream{
		{Index: 1, Language: "spa"},
		{Index: 3, Language: "eng"},
		{Index: 4, Language: ffprobe.UnknownLanguage},
	}
	for i, stream := range streams {
		if stream != want[i] {
			t.Fatalf("stream %d: got %+v want %+v", i, stream, want[i])
		}
	}
}

func TestAudioStreamsOrdersByAscendingIndex(t *testing.T) {
	run := &stubRunner{output: []byte(`{
		"streams": [
			{"index": 5, "tags": {"language": "eng"}},
			{"index": 0, "tags": {"language": "eng"}},
			{"index": 2, "tags": {"language": "por"}}
		]
	}`)}

	streams := newProber(run).AudioStreams(context.Background(), "movie.mkv")
	for i := 1; i < len(streams); i++ {
		if streams[i-1].Index >= streams[i].Index {
			t.Fatalf("streams not ascending: %+v", streams)
		}
	}
}

func TestAudioStreamsToleratesMalformedPayload(t *testing.T) {
	cases := map[string][]byte{
		"garbage":        []byte("not json at all"),
		"empty":          nil,
		"missingStreams": []byte(`{"format": {}}`),
		"nullStreams":    []byte(`{"streams": null}`),
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			run := &stubRunner{output: payload}
			streams := newProber(run).AudioStreams(context.Background(), "movie.mkv")
			if len(streams) != 0 {
				t.Fatalf("expected no streams, got %+v", streams)
			}
		})
	}
}

func TestAudioStreamsToleratesProbeFailure(t *testing.T) {
	run := &stubRunner{err: errors.New("executable file not found")}
	streams := newProber(run).AudioStreams(context.Background(), "movie.mkv")
	if len(streams) != 0 {
		t.Fatalf("expected no streams, got %+v", streams)
	}
}

func TestAudioStreamsSkipsEntriesWithoutIndex(t *testing.T) {
	run := &stubRunner{output: []byte(`{
		"streams": [
			{"tags": {"language": "eng"}},
			{"index": 2, "tags": {"language": "por"}}
		]
	}`)}

	streams := newProber(run).AudioStreams(context.Background(), "movie.mkv")
	if len(streams) != 1 || streams[0].Index != 2 {
		t.Fatalf("expected only indexed entry, got %+v", streams)
	}
}

func TestAudioStreamsRequestsAudioOnlyJSON(t *testing.T) {
	run := &stubRunner{output: []byte(`{"streams": []}`)}
	newProber(run).AudioStreams(context.Background(), "movie.mkv")
	joined := ""
	for _, arg := range run.args {
		joined += arg + " "
	}
	for _, want := range []string{"-select_streams", "stream=index:stream_tags=language", "json", "movie.mkv"} {
		found := false
		for _, arg := range run.args {
			if arg == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected argument %q in %q", want, joined)
		}
	}
}
