//go:build unix

package httpconn

import (
	"errors"
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"
)

// guards the process-wide SIGPIPE disposition between suppressSIGPIPE and its restore.
var sigpipeMu sync.Mutex

// suppressSIGPIPE keeps SIGPIPE from ending the process until the returned restore func is called.
// Always call restore, on every path.
//
// Existing signal.Notify registrations for SIGPIPE are left alone: restore stops only the channel registered here.
func suppressSIGPIPE() (restore func()) {
	sigpipeMu.Lock()
	if signal.Ignored(unix.SIGPIPE) { // already ignored: nothing to change or restore.
		return sigpipeMu.Unlock
	}
	sink := make(chan os.Signal, 1) // never read: a SIGPIPE during the write is dropped on the floor.
	signal.Notify(sink, unix.SIGPIPE)
	return func() {
		signal.Stop(sink)
		sigpipeMu.Unlock()
	}
}

// isPeerReset reports whether err means the peer went away mid-write.
func isPeerReset(err error) bool {
	return errors.Is(err, unix.EPIPE) || errors.Is(err, unix.ECONNRESET)
}
