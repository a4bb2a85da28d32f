//go:build !unix

package qrexec

import "os"

// pollableFile returns f unchanged; Close then waits for a pending Read.
func pollableFile(f *os.File) (*os.File, error) {
	return f, nil
}
