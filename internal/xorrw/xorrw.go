// Package xorrw provides XOR-based encoding and decoding for data streams
package xorrw

import (
	"io"
)

// XorReaderWriter is a wrapper around a Reader/Writer that applies XOR encoding/decoding.
// Reads and writes keep separate key positions so one goroutine may read
// while another writes, as a multiplexed session does.
type XorReaderWriter struct {
	rw       io.ReadWriter // The underlying ReadWriter
	key      []byte        // XOR key
	readPos  int
	writePos int
}

// NewXorReaderWriter creates a new XorReaderWriter with the given ReadWriter and key.
// It panics if key is empty.
func NewXorReaderWriter(rw io.ReadWriter, key []byte) *XorReaderWriter {
	if len(key) == 0 {
		panic("xorrw: empty key")
	}
	return &XorReaderWriter{
		rw:  rw,
		key: append([]byte(nil), key...),
	}
}

// Read reads data from the underlying reader and applies XOR decoding
func (x *XorReaderWriter) Read(p []byte) (int, error) {
	n, err := x.rw.Read(p)
	x.readPos = x.apply(p[:n], x.readPos)
	return n, err
}

// Write writes XOR encoded data to the underlying writer
func (x *XorReaderWriter) Write(p []byte) (int, error) {
	encoded := make([]byte, len(p))
	copy(encoded, p)

	pos := x.apply(encoded, x.writePos)
	n, err := x.rw.Write(encoded)

	// Only the bytes that went out consume key material
	if n == len(p) {
		x.writePos = pos
	} else {
		x.writePos = (x.writePos + n) % len(x.key)
	}
	return n, err
}

// Close implements the Closer interface for cleanup
func (x *XorReaderWriter) Close() error {
	if closer, ok := x.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (x *XorReaderWriter) apply(b []byte, pos int) int {
	for i := range b {
		b[i] ^= x.key[pos]
		pos = (pos + 1) % len(x.key)
	}
	return pos
}
