// Package subprocess provides the process channel behind the client transport.
//
// A Channel spawns the qrexec bridge (or any program) with its standard
// input, output and error captured as pipes, and owns the child process
// exclusively. Closing the channel kills and reaps the child; Close never
// fails, so it can be deferred on every exit path.
package subprocess
