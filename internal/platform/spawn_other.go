//go:build !windows

package platform

import "os/exec"

// HideWindow is a no-op outside Windows; other platforms do not attach
// console windows to child processes.
func HideWindow(cmd *exec.Cmd) {}
