//go:build unix

package qrexec

import (
	"fmt"
	"os"
	"syscall"
)

// pollableFile duplicates f and puts the duplicate in non-blocking mode,
// which registers it with the runtime poller so Close interrupts a pending
// Read. The mode is shared with f through the open file description and is
// restored when the duplicate is closed.
func pollableFile(f *os.File) (*pollFile, error) {
	orig := int(f.Fd())

	fd, err := syscall.Dup(orig)
	if err != nil {
		return nil, fmt.Errorf("duplicate %s: %w", f.Name(), err)
	}

	syscall.CloseOnExec(fd)

	if err := syscall.SetNonblock(fd, true); err != nil {
		_ = syscall.Close(fd)

		return nil, fmt.Errorf("set %s non-blocking: %w", f.Name(), err)
	}

	return &pollFile{File: os.NewFile(uintptr(fd), f.Name()), orig: f}, nil
}

// pollFile is a non-blocking duplicate of orig.
type pollFile struct {
	*os.File
	orig *os.File
}

// Close closes the duplicate and returns the shared descriptor to blocking mode.
func (p *pollFile) Close() error {
	err := p.File.Close()

	if fd := int(p.orig.Fd()); fd >= 0 {
		_ = syscall.SetNonblock(fd, false)
	}

	return err
}
