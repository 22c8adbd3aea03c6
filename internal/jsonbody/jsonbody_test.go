package jsonbody

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

// chunkedReader hands out its data a few bytes at a time.
type chunkedReader struct {
	data []byte
	step int
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := c.step
	if n > len(c.data) {
		n = len(c.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, c.data[:n])
	c.data = c.data[n:]
	return n, nil
}

func TestReadAccumulatesChunks(t *testing.T) {
	body := []byte(`{"title":"Buy milk","description":"two litres"}`)

	for _, step := range []int{1, 3, 7, len(body)} {
		r := &chunkedReader{data: append([]byte(nil), body...), step: step}
		data, err := Read(context.Background(), r, 0)
		if err != nil {
			t.Fatalf("step %d: unexpected error: %v", step, err)
		}
		if !bytes.Equal(data, body) {
			t.Errorf("step %d: got %q, want %q", step, data, body)
		}
	}
}

func TestReadEmptyBody(t *testing.T) {
	data, err := Read(context.Background(), strings.NewReader(""), 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Expected no data, got %q", data)
	}

	data, err = Read(context.Background(), nil, 0)
	if err != nil || data != nil {
		t.Errorf("Expected nil data and error for nil reader, got %q, %v", data, err)
	}
}

func TestReadWaitsForEOF(t *testing.T) {
	pr, pw := io.Pipe()
	done := make(chan []byte, 1)

	go func() {
		data, _ := Read(context.Background(), pr, 0)
		done <- data
	}()

	pw.Write([]byte(`{"title":`))
	select {
	case <-done:
		t.Fatal("Read returned before the stream completed")
	case <-time.After(50 * time.Millisecond):
	}

	pw.Write([]byte(`"x"}`))
	pw.Close()

	select {
	case data := <-done:
		if string(data) != `{"title":"x"}` {
			t.Errorf("Unexpected body: %q", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Read did not return after EOF")
	}
}

func TestReadCanceled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := Read(ctx, pr, 0)
		errCh <- err
	}()

	pw.Write([]byte("partial"))
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Read did not return after cancellation")
	}
}

func TestReadTimeout(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Read(ctx, pr, 0)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}
}

func TestReadLimit(t *testing.T) {
	r := &chunkedReader{data: bytes.Repeat([]byte("a"), 100), step: 10}
	if _, err := Read(context.Background(), r, 50); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}

	r = &chunkedReader{data: bytes.Repeat([]byte("a"), 50), step: 10}
	data, err := Read(context.Background(), r, 50)
	if err != nil {
		t.Fatalf("Body at the limit should be accepted: %v", err)
	}
	if len(data) != 50 {
		t.Errorf("Expected 50 bytes, got %d", len(data))
	}
}

func TestReadPropagatesReaderError(t *testing.T) {
	r := io.MultiReader(strings.NewReader("abc"), &failingReader{err: io.ErrUnexpectedEOF})
	if _, err := Read(context.Background(), r, 0); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Expected ErrUnexpectedEOF, got %v", err)
	}
}

type failingReader struct {
	err error
}

func (f *failingReader) Read(p []byte) (int, error) {
	return 0, f.err
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "empty", raw: "", want: "{}"},
		{name: "whitespace", raw: " \n\t", want: "{}"},
		{name: "object", raw: `{ "title" : "a" }`, want: `{"title":"a"}`},
		{name: "array", raw: `[1, 2]`, want: `[1,2]`},
		{name: "truncated", raw: `{"title":`, wantErr: true},
		{name: "garbage", raw: `title=a`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformed) {
					t.Errorf("Expected ErrMalformed, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestUnmarshal(t *testing.T) {
	var dst struct {
		Title string `json:"title"`
	}

	if err := Unmarshal(nil, &dst); err != nil {
		t.Errorf("nil body should decode as empty object: %v", err)
	}

	if err := Unmarshal([]byte(`{"title":"a"}`), &dst); err != nil || dst.Title != "a" {
		t.Errorf("Expected title 'a', got %q (err %v)", dst.Title, err)
	}

	if err := Unmarshal([]byte(`{"title":5}`), &dst); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed for wrong field type, got %v", err)
	}
}
