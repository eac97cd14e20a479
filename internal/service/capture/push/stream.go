package push

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrStreamReleased is returned when writing to or attaching to a released
// stream.
var ErrStreamReleased = errors.New("input stream released")

// consumer receives every frame written to a stream.
type consumer interface {
	consume(ctx context.Context, frame []byte)
}

// Stream is an acquired input stream.
type Stream struct {
	id     string
	device *Device

	mu        sync.Mutex
	released  bool
	consumers []consumer
}

// ID returns the stream id.
func (s *Stream) ID() string {
	return s.id
}

// Release detaches all consumers and frees the stream. Idempotent.
func (s *Stream) Release() error {
	return s.release()
}

// Released reports whether Release has been called.
func (s *Stream) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

func (s *Stream) release() error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil
	}
	s.released = true
	s.consumers = nil
	s.mu.Unlock()

	s.device.released(s)
	return nil
}

func (s *Stream) attach(c consumer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrStreamReleased
	}
	s.consumers = append(s.consumers, c)
	return nil
}

func (s *Stream) detach(c consumer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consumers = slices.DeleteFunc(s.consumers, func(x consumer) bool { return x == c })
}

func (s *Stream) write(ctx context.Context, frame []byte) error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return ErrStreamReleased
	}
	consumers := slices.Clone(s.consumers)
	s.mu.Unlock()

	for _, c := range consumers {
		c.consume(ctx, frame)
	}
	return nil
}
