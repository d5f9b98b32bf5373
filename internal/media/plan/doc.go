// Package plan decides which stream mappings a merge should request
// from the muxer.
//
// It is the pure half of the merge pipeline: given probe results and
// the caller's choices it produces an immutable Plan, with no
// subprocess invocation, so the selection policy is testable without
// ffprobe or ffmpeg installed.
package plan
