package ffmpeg

import "fmt"

// SpawnError reports that ffmpeg could not be launched at all, usually
// because the binary is missing from PATH.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn ffmpeg: %v", e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ToolError reports that ffmpeg ran and exited nonzero.
type ToolError struct {
	Code int
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("ffmpeg exited with code %d", e.Code)
}
