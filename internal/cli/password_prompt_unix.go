//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package cli

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// disableEcho turns off terminal echo on stdin and returns the function that
// restores the previous mode. It fails when stdin is not a terminal.
func disableEcho(stdin *os.File) (func(), error) {
	if stdin == nil {
		return nil, errors.New("stdin unavailable")
	}

	fd := int(stdin.Fd())
	termios, err := unix.IoctlGetTermios(fd, termiosReadRequest)
	if err != nil {
		return nil, err
	}
	original := *termios
	silent := original
	silent.Lflag &^= unix.ECHO

	if err := unix.IoctlSetTermios(fd, termiosWriteRequest, &silent); err != nil {
		return nil, err
	}
	return func() {
		_ = unix.IoctlSetTermios(fd, termiosWriteRequest, &original)
	}, nil
}
