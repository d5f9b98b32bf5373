//go:build windows

package platform

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/windows"
)

// ElevatedFlag marks a process relaunched through EnsureElevated so a
// denied elevation cannot relaunch forever.
const ElevatedFlag = "--elevated"

// IsElevated reports whether the current process token carries
// administrator rights.
func IsElevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}

// EnsureElevated relaunches the current executable through the shell
// "runas" verb when the process is not elevated. args are the original
// command-line arguments (without the program name); the relaunched
// process receives them plus ElevatedFlag. It returns true when a
// relaunch was issued and the caller should exit.
func EnsureElevated(args []string) (bool, error) {
	for _, arg := range args {
		if arg == ElevatedFlag {
			return false, nil
		}
	}
	if IsElevated() {
		return false, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return false, fmt.Errorf("locate executable: %w", err)
	}

	params := strings.Join(append(append([]string{}, args...), ElevatedFlag), " ")
	verb, err := windows.UTF16PtrFromString("runas")
	if err != nil {
		return false, fmt.Errorf("encode verb: %w", err)
	}
	file, err := windows.UTF16PtrFromString(exe)
	if err != nil {
		return false, fmt.Errorf("encode executable path: %w", err)
	}
	argp, err := windows.UTF16PtrFromString(params)
	if err != nil {
		return false, fmt.Errorf("encode arguments: %w", err)
	}

	if err := windows.ShellExecute(0, verb, file, argp, nil, windows.SW_SHOWNORMAL); err != nil {
		return false, fmt.Errorf("relaunch elevated: %w", err)
	}
	return true, nil
}
