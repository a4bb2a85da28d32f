// Package frame implements the length-prefixed framing used on qrexec pipes.
//
// A frame is an 8-byte big-endian body length followed by exactly that many
// body bytes. The header never counts itself, and a stream is a plain
// concatenation of frames with no separators, version bytes or checksums:
//
//	[ header: 8 bytes, uint64 body length, big-endian ]
//	[ body:   <header value> bytes ]
//
// Writer assembles each frame in a buffer allocated once at construction and
// hands it to the underlying stream in a single Write call, rejecting frames
// that do not fit before touching the buffer or the stream. Reader consumes
// exactly one frame per call and never returns a partial body.
//
// Neither type is safe for concurrent use. A Reader and a Writer over
// different streams are independent.
package frame
