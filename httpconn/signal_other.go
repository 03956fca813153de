//go:build !unix

package httpconn

import (
	"errors"
	"syscall"
)

// suppressSIGPIPE is a no-op: there's no SIGPIPE to suppress.
func suppressSIGPIPE() (restore func()) { return func() {} }

func isPeerReset(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
