package stt

import (
	"context"
	"testing"

	"github.com/voiceloop/turn-engine/internal/config"
)

func TestDeepgramClient_Transcribe_MissingKey(t *testing.T) {
	cfg := &config.Config{
		SampleRate:                 16000,
		DeepgramModel:              "nova-2",
		DeepgramLanguage:           "en",
		CircuitBreakerMaxFailures:  5,
		CircuitBreakerResetTimeout: 30,
	}
	client := NewDeepgramClient(cfg)

	_, err := client.Transcribe(context.Background(), make([]float32, 1600))
	if err == nil {
		t.Error("Expected error without an API key")
	}
}
