package stt

import "context"

// Transcriber converts one finalized utterance to text. Calls are synchronous
// and blocking; an empty string means the audio was unintelligible.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32) (string, error)

	// Close releases client resources.
	Close() error
}
