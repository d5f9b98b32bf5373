// Package worker runs merges on a single background goroutine.
//
// The caller-facing contract mirrors a GUI event loop: Start launches
// at most one merge, progress comes back as ordered events drained with
// a non-blocking Poll, and the terminal done event tells the caller to
// clear its busy state. A second Start while a merge is active fails
// synchronously instead of queueing, and an optional file lock extends
// the single-flight guarantee across processes. There is no
// cancellation once ffmpeg starts.
package worker
