// Package ffprobe turns ffprobe's JSON stream listing into typed audio
// stream descriptors.
//
// The prober asks ffprobe for audio streams only, restricted to each
// stream's container index and language tag. Parsing is deliberately
// forgiving: every failure mode resolves to zero streams plus a logged
// diagnostic, never an error, because "no usable streams" is an
// expected outcome for files without audio or hosts without ffprobe.
package ffprobe
