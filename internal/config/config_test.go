package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
	}
	if cfg.SampleRate != 16000 {
		t.Errorf("Expected default SampleRate 16000, got %d", cfg.SampleRate)
	}
	if cfg.VADWindowSec != 0.4 {
		t.Errorf("Expected default VADWindowSec 0.4, got %f", cfg.VADWindowSec)
	}
	if cfg.SilenceTimeoutSec != 0.35 {
		t.Errorf("Expected default SilenceTimeoutSec 0.35, got %f", cfg.SilenceTimeoutSec)
	}
	if cfg.BargeInEnabled {
		t.Error("Expected barge-in disabled by default")
	}
	if cfg.VerifyMaxAttempts != 2 {
		t.Errorf("Expected default VerifyMaxAttempts 2, got %d", cfg.VerifyMaxAttempts)
	}
	if cfg.DeepgramModel != "nova-2" {
		t.Errorf("Expected default DeepgramModel 'nova-2', got '%s'", cfg.DeepgramModel)
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Errorf("Expected default GeminiModel 'gemini-2.5-flash', got '%s'", cfg.GeminiModel)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("SAMPLE_RATE", "8000")
	t.Setenv("BARGE_IN_ENABLED", "true")
	t.Setenv("DEEPGRAM_API_KEY", "dg-key")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}
	if cfg.SampleRate != 8000 {
		t.Errorf("Expected SampleRate 8000, got %d", cfg.SampleRate)
	}
	if !cfg.BargeInEnabled {
		t.Error("Expected barge-in enabled")
	}
	if cfg.DeepgramAPIKey != "dg-key" {
		t.Errorf("Expected DeepgramAPIKey 'dg-key', got '%s'", cfg.DeepgramAPIKey)
	}
}

func TestLoadFromEnv_Validation(t *testing.T) {
	t.Setenv("SAMPLE_RATE", "0")
	if _, err := LoadFromEnv(); err == nil {
		t.Error("Expected error for non-positive sample rate")
	}

	t.Setenv("SAMPLE_RATE", "16000")
	t.Setenv("MAX_UTTERANCE_SEC", "0.2")
	if _, err := LoadFromEnv(); err == nil {
		t.Error("Expected error when max utterance does not exceed minimum")
	}
}

func TestConfig_DerivedValues(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if got := cfg.WindowSamples(); got != 6400 {
		t.Errorf("Expected 6400 window samples, got %d", got)
	}
	if got := cfg.MinWindowSamples(); got != 4000 {
		t.Errorf("Expected 4000 minimum window samples, got %d", got)
	}
	if got := cfg.MinUtteranceSamples(); got != 5600 {
		t.Errorf("Expected 5600 minimum utterance samples, got %d", got)
	}
	if got := cfg.SilenceTimeout(); got != 350*time.Millisecond {
		t.Errorf("Expected 350ms silence timeout, got %v", got)
	}
	if got := cfg.MaxUtterance(); got != 10*time.Second {
		t.Errorf("Expected 10s max utterance, got %v", got)
	}
	if got := cfg.BargeInMinDelay(); got != 800*time.Millisecond {
		t.Errorf("Expected 800ms barge-in delay, got %v", got)
	}
	if got := cfg.SpeakingWindow(); got != 1500*time.Millisecond {
		t.Errorf("Expected 1.5s speaking window, got %v", got)
	}
}

func TestConfig_Lists(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	noise := cfg.NoisePhraseList()
	if len(noise) != 5 || noise[0] != "thank you" {
		t.Errorf("Unexpected noise phrases %v", noise)
	}

	fillers := cfg.FillerPhraseList()
	if len(fillers) != 3 || fillers[0] != "Hmm, " {
		t.Errorf("Expected fillers to keep casing and separators, got %v", fillers)
	}

	sensitive := cfg.SensitiveTermList()
	if len(sensitive) != 7 || sensitive[4] != "date of birth" {
		t.Errorf("Unexpected sensitive terms %v", sensitive)
	}
}

func TestConfig_ListOverrides(t *testing.T) {
	t.Setenv("NOISE_PHRASES", "Hmm , uh huh ,  ")
	t.Setenv("FILLER_PHRASES", "Acha, |Theek, ")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	noise := cfg.NoisePhraseList()
	if len(noise) != 2 || noise[0] != "hmm" || noise[1] != "uh huh" {
		t.Errorf("Expected folded and trimmed noise phrases, got %v", noise)
	}

	fillers := cfg.FillerPhraseList()
	if len(fillers) != 2 || fillers[1] != "Theek, " {
		t.Errorf("Expected raw filler entries, got %v", fillers)
	}
}
