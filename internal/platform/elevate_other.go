//go:build !windows

package platform

// ElevatedFlag marks a process relaunched through EnsureElevated.
const ElevatedFlag = "--elevated"

// IsElevated always reports true outside Windows; dubmux needs no
// special rights there.
func IsElevated() bool { return true }

// EnsureElevated is a no-op outside Windows.
func EnsureElevated(args []string) (bool, error) { return false, nil }
