// Package assert holds precondition checks for the kernel core.
//
// Checks compile to nothing unless the binary is built with the qconvdebug
// build tag, so release kernels carry no validation cost. An out-of-contract
// call in a release build is undefined behaviour.
package assert

import "fmt"

// That panics with the formatted message when cond is false and debug checks
// are enabled.
func That(cond bool, format string, args ...any) {
	if Enabled && !cond {
		panic(fmt.Sprintf("qconv: assertion failed: "+format, args...))
	}
}
