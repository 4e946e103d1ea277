// Package mic defines the microphone source contract and a channel-backed
// implementation. The capture side (an audio session's reader goroutine)
// pushes chunks; the turn controller is the only drainer, so the queue is the
// sole shared-mutable resource between producer and consumer.
package mic

import (
	"time"

	"github.com/voiceloop/turn-engine/internal/audio"
)

// Source is the microphone collaborator consumed by the turn controller.
type Source interface {
	Start() error
	Stop() error

	// Read returns the next chunk, waiting at most timeout. A miss returns
	// (zero chunk, false) and is "no data this tick", never an error.
	Read(timeout time.Duration) (audio.Chunk, bool)

	// ClearPending drops queued chunks, keeping turn alignment tight after
	// agent speech (bot echo, stale backlog).
	ClearPending()
}

// QueueSource is a Source backed by a bounded channel. Push is called from
// the capture goroutine; Read and ClearPending from the controller loop.
type QueueSource struct {
	queue   chan audio.Chunk
	started bool
}

// NewQueueSource creates a source with the given queue depth.
func NewQueueSource(depth int) *QueueSource {
	if depth <= 0 {
		depth = 100
	}
	return &QueueSource{queue: make(chan audio.Chunk, depth)}
}

// Start marks the source active.
func (s *QueueSource) Start() error {
	s.started = true
	return nil
}

// Stop marks the source inactive.
func (s *QueueSource) Stop() error {
	s.started = false
	return nil
}

// Push enqueues a captured chunk, dropping it if the queue is full so the
// capture side never blocks.
func (s *QueueSource) Push(chunk audio.Chunk) bool {
	select {
	case s.queue <- chunk:
		return true
	default:
		return false
	}
}

// Read returns the next chunk with a bounded wait.
func (s *QueueSource) Read(timeout time.Duration) (audio.Chunk, bool) {
	if timeout <= 0 {
		select {
		case c := <-s.queue:
			return c, true
		default:
			return audio.Chunk{}, false
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case c := <-s.queue:
		return c, true
	case <-timer.C:
		return audio.Chunk{}, false
	}
}

// ClearPending drains the queue without blocking.
func (s *QueueSource) ClearPending() {
	for {
		select {
		case <-s.queue:
		default:
			return
		}
	}
}
