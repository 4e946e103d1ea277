package tts

import "time"

// Playback is a handle for one asynchronous synthesis run.
type Playback struct {
	// Started delivers the moment the first audio byte reached the player,
	// then is closed. One-shot; receivers should pair it with a grace
	// timeout in case the synthesizer never starts playback.
	Started <-chan time.Time

	// Done is closed when playback finishes or is stopped.
	Done <-chan struct{}
}

// Player consumes synthesized PCM (16-bit LE mono at the engine sample rate).
type Player interface {
	Play(pcm []byte) error
}

// Synthesizer converts text to speech and plays it asynchronously.
type Synthesizer interface {
	// Speak starts synthesis and playback of text.
	Speak(text string) (*Playback, error)

	// Stop cancels pending playback. Idempotent; no further audio is
	// emitted after it returns.
	Stop() error

	// IsActive returns whether the synthesizer is currently speaking.
	IsActive() bool

	// Close closes the client and cleans up resources.
	Close() error
}
