// Package jsonbody buffers request bodies and decodes them as JSON.
package jsonbody

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	ErrMalformed = errors.New("malformed JSON body")
	ErrTooLarge  = errors.New("body exceeds size limit")
)

const chunkSize = 32 << 10 // 32 KB

var emptyObject = json.RawMessage(`{}`)

type result struct {
	data []byte
	err  error
}

// Read accumulates r until EOF and returns the buffered bytes. It does not
// return before EOF unless ctx is done, the limit is exceeded or r fails.
// A limit <= 0 disables the size check.
func Read(ctx context.Context, r io.Reader, limit int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, nil
	}

	done := make(chan result, 1)
	go func() {
		data, err := drain(r, limit)
		done <- result{data: data, err: err}
	}()

	select {
	case res := <-done:
		return res.data, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func drain(r io.Reader, limit int64) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, chunkSize)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if limit > 0 && int64(buf.Len()+n) > limit {
				return nil, ErrTooLarge
			}
			buf.Write(chunk[:n])
		}
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// Decode validates raw as JSON text. An empty or whitespace-only body
// decodes to an empty object so handlers can always unmarshal it.
func Decode(raw []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return emptyObject, nil
	}
	if !json.Valid(trimmed) {
		return nil, ErrMalformed
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a body produced by Decode into dst. A nil body is
// treated as an empty object.
func Unmarshal(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		raw = emptyObject
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
