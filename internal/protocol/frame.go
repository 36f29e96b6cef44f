package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxFrameBytes is the largest accepted line, newline excluded
const DefaultMaxFrameBytes = 64 * 1024

// ErrFrameTooLong is returned when a line exceeds the reader's limit. The
// stream cannot be resynchronised after this.
var ErrFrameTooLong = errors.New("frame too long")

// FrameReader splits a stream into newline-terminated frames
type FrameReader struct {
	scanner *bufio.Scanner
}

// NewFrameReader creates a FrameReader that rejects frames over maxBytes
func NewFrameReader(r io.Reader, maxBytes int) *FrameReader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFrameBytes
	}
	scanner := bufio.NewScanner(r)
	// Scanner needs room for the terminating newline as well
	scanner.Buffer(make([]byte, 0, min(maxBytes+1, 4096)), maxBytes+1)
	return &FrameReader{scanner: scanner}
}

// Next returns the next non-blank frame. It returns io.EOF once the stream
// ends cleanly. The returned slice is only valid until the next call.
func (f *FrameReader) Next() ([]byte, error) {
	for f.scanner.Scan() {
		line := f.scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		return line, nil
	}
	err := f.scanner.Err()
	switch {
	case err == nil:
		return nil, io.EOF
	case errors.Is(err, bufio.ErrTooLong):
		return nil, ErrFrameTooLong
	default:
		return nil, err
	}
}

// FrameWriter writes one JSON value per line
type FrameWriter struct {
	w   io.Writer
	buf bytes.Buffer
}

// NewFrameWriter creates a FrameWriter
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// Write encodes v and writes it as a single frame in one call to the
// underlying writer
func (f *FrameWriter) Write(v any) error {
	f.buf.Reset()
	// Encoder.Encode appends the newline terminator
	if err := json.NewEncoder(&f.buf).Encode(v); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if _, err := f.w.Write(f.buf.Bytes()); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
