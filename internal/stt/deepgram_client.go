package stt

import (
	"bytes"
	"context"
	"fmt"
	"time"

	restv1api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/voiceloop/turn-engine/internal/audio"
	"github.com/voiceloop/turn-engine/internal/config"
	"github.com/voiceloop/turn-engine/internal/observability"
	"github.com/voiceloop/turn-engine/internal/resilience"
)

// DeepgramClient implements Transcriber using Deepgram's prerecorded API.
// Each finalized utterance is WAV-wrapped and sent as one request.
type DeepgramClient struct {
	config         *config.Config
	client         *restv1api.Client
	circuitBreaker *resilience.CircuitBreaker
}

// NewDeepgramClient creates a prerecorded transcription client.
func NewDeepgramClient(cfg *config.Config) *DeepgramClient {
	rest := listenClient.NewREST(cfg.DeepgramAPIKey, &interfaces.ClientOptions{})

	return &DeepgramClient{
		config: cfg,
		client: restv1api.New(rest),
		circuitBreaker: resilience.NewCircuitBreaker(
			"deepgram",
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
	}
}

// Transcribe sends the utterance audio to Deepgram and returns the best
// alternative's transcript.
func (d *DeepgramClient) Transcribe(ctx context.Context, samples []float32) (string, error) {
	if d.config.DeepgramAPIKey == "" {
		return "", fmt.Errorf("deepgram API key is not configured")
	}

	wav := audio.EncodeWAV(samples, d.config.SampleRate)

	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       d.config.DeepgramModel,
		Language:    d.config.DeepgramLanguage,
		SmartFormat: true,
	}

	var transcript string
	err := d.circuitBreaker.Call(func() error {
		res, err := d.client.FromStream(ctx, bytes.NewReader(wav), options)
		if err != nil {
			return fmt.Errorf("deepgram request failed: %w", err)
		}

		if res == nil || len(res.Results.Channels) == 0 ||
			len(res.Results.Channels[0].Alternatives) == 0 {
			// Unintelligible audio yields an empty transcript, not an error.
			transcript = ""
			return nil
		}
		transcript = res.Results.Channels[0].Alternatives[0].Transcript
		return nil
	})

	observability.UpdateCircuitBreakerState("deepgram", int(d.circuitBreaker.GetState()))
	if err != nil {
		observability.IncrementCircuitBreakerFailures("deepgram")
		return "", err
	}

	return transcript, nil
}

// Close releases client resources.
func (d *DeepgramClient) Close() error {
	return nil
}
