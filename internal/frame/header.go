package frame

import "encoding/binary"

// HeaderLen is the width of the length prefix in bytes.
const HeaderLen = 8

// Header is the fixed-width length prefix preceding a frame body.
type Header [HeaderLen]byte

// EncodeHeader returns the header announcing a body of n bytes.
func EncodeHeader(n uint64) Header {
	var h Header

	binary.BigEndian.PutUint64(h[:], n)

	return h
}

// DecodeHeader returns the body length announced by h.
// Every bit pattern decodes to some length.
func DecodeHeader(h Header) uint64 {
	return binary.BigEndian.Uint64(h[:])
}
