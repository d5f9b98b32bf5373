// Package ffmpeg executes merge plans through the ffmpeg binary.
//
// The executor only copies streams; it never re-encodes. Outcomes are
// classified into spawn failures (binary missing or unlaunchable) and
// tool failures (nonzero exit), so callers can tell "install ffmpeg"
// apart from "ffmpeg rejected this file".
package ffmpeg
