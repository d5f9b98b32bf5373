// Package platform isolates the OS-specific glue dubmux needs: hiding
// subprocess console windows and acquiring elevated rights on Windows.
//
// Everything above this package is portable; the Windows behavior lives
// behind build tags with no-op counterparts elsewhere, so the probing
// and planning core carries zero OS-specific code.
package platform
