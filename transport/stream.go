package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"
)

// DefaultMaxFrameSize bounds how large a single inbound frame may be
// before Receive rejects it with ErrFrameTooLarge.
const DefaultMaxFrameSize = 4 * 1024 * 1024

// Stream adapts an io.Reader/io.Writer pair into a Transport using
// newline-delimited framing: every frame is one line, and a trailing
// newline is appended to every outbound frame.
type Stream struct {
	w      io.Writer
	closer io.Closer

	maxFrame int

	frames  chan []byte
	readErr error // set before frames is closed

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

// StreamOption configures a Stream transport.
type StreamOption func(*Stream)

// WithMaxFrameSize sets the maximum size of a single inbound frame.
func WithMaxFrameSize(n int) StreamOption {
	return func(s *Stream) {
		s.maxFrame = n
	}
}

// WithCloser sets a closer invoked when the transport is closed. Used to
// tear down an underlying connection that the reader and writer share.
func WithCloser(c io.Closer) StreamOption {
	return func(s *Stream) {
		s.closer = c
	}
}

// NewStream creates a line-framed transport over r and w and starts
// reading frames immediately.
func NewStream(r io.Reader, w io.Writer, opts ...StreamOption) *Stream {
	s := &Stream{
		w:        w,
		maxFrame: DefaultMaxFrameSize,
		frames:   make(chan []byte),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.readLoop(r)

	return s
}

func (s *Stream) readLoop(r io.Reader) {
	scanner := bufio.NewScanner(r)
	// Scanner caps tokens at the larger of max and the initial buffer, so
	// the buffer must not exceed the frame limit.
	bufSize := 64 * 1024
	if s.maxFrame < bufSize {
		bufSize = s.maxFrame
	}
	scanner.Buffer(make([]byte, bufSize), s.maxFrame)

	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		frame := make([]byte, len(scanner.Bytes()))
		copy(frame, scanner.Bytes())

		select {
		case s.frames <- frame:
		case <-s.done:
			return
		}
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			err = ErrFrameTooLarge
		}
		s.readErr = err
	}
	close(s.frames)
}

// Receive returns the next inbound frame.
func (s *Stream) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrClosed
	case frame, ok := <-s.frames:
		if !ok {
			if s.readErr != nil && !s.closed() {
				return nil, s.readErr
			}
			return nil, ErrClosed
		}
		return frame, nil
	}
}

// Send writes one outbound frame followed by a newline.
func (s *Stream) Send(ctx context.Context, frame []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	default:
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.w.Write(frame); err != nil {
		return err
	}
	_, err := s.w.Write([]byte{'\n'})
	return err
}

// Close tears down the stream. Any closer configured via WithCloser is
// closed as well, which unblocks the read loop on connection-backed
// streams.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if s.closer != nil {
			err = s.closer.Close()
		}
	})
	return err
}

func (s *Stream) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
