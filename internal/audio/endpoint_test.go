package audio

import (
	"testing"
	"time"
)

// stubClassifier returns a fixed verdict regardless of window contents.
type stubClassifier struct {
	speech bool
}

func (s *stubClassifier) IsSpeech([]float32) bool {
	return s.speech
}

func endpointTestConfig() EndpointConfig {
	return EndpointConfig{
		SampleRate:          16000,
		WindowSamples:       6400, // 0.4s
		MinWindowSamples:    4000, // 0.25s
		MinUtteranceSamples: 5600, // 0.35s
		SilenceTimeout:      350 * time.Millisecond,
		MaxUtterance:        10 * time.Second,
		StartRMS:            0.003,
		MinRMS:              0.001,
	}
}

func TestEndpointDetector_Process_OnsetFromChunkEnergy(t *testing.T) {
	clf := &stubClassifier{speech: false}
	d := NewEndpointDetector(endpointTestConfig(), clf)
	t0 := time.Now()

	// Loud enough to trigger the energy fallback even though the
	// classifier says no.
	utterance, decision := d.Process(makeChunk(1600, 0.1), t0)
	if utterance != nil || decision != DecisionNone {
		t.Fatalf("Expected no decision on first chunk, got %v", decision)
	}
	if !d.Recording() {
		t.Error("Expected recording to start from chunk energy alone")
	}
}

func TestEndpointDetector_Process_SilenceFinalizes(t *testing.T) {
	clf := &stubClassifier{speech: false}
	d := NewEndpointDetector(endpointTestConfig(), clf)
	t0 := time.Now()

	for i := 0; i < 5; i++ {
		at := t0.Add(time.Duration(i*100) * time.Millisecond)
		if _, decision := d.Process(makeChunk(1600, 0.1), at); decision != DecisionNone {
			t.Fatalf("Unexpected decision %v during speech", decision)
		}
	}

	var utterance *Utterance
	var decision Decision
	for i := 5; i <= 8; i++ {
		at := t0.Add(time.Duration(i*100) * time.Millisecond)
		utterance, decision = d.Process(makeChunk(1600, 0), at)
		if decision != DecisionNone {
			break
		}
	}

	if decision != DecisionFinalized {
		t.Fatalf("Expected utterance finalized after silence timeout, got %v", decision)
	}
	if utterance == nil {
		t.Fatal("Expected a non-nil utterance")
	}
	// Five speech chunks plus the trailing silent chunks up to the timeout.
	if len(utterance.Samples) != 9*1600 {
		t.Errorf("Expected 14400 samples including trailing audio, got %d", len(utterance.Samples))
	}
	if utterance.Forced {
		t.Error("Expected silence-finalized utterance to not be forced")
	}
	if !utterance.StartedAt.Equal(t0) {
		t.Errorf("Expected utterance start %v, got %v", t0, utterance.StartedAt)
	}
	if d.Recording() {
		t.Error("Expected detector idle after finalize")
	}
}

func TestEndpointDetector_Process_RejectsShortUtterance(t *testing.T) {
	clf := &stubClassifier{speech: false}
	d := NewEndpointDetector(endpointTestConfig(), clf)
	t0 := time.Now()

	d.Process(makeChunk(1600, 0.1), t0)
	utterance, decision := d.Process(makeChunk(1600, 0), t0.Add(400*time.Millisecond))

	if decision != DecisionRejectedShort {
		t.Fatalf("Expected short rejection, got %v", decision)
	}
	if utterance != nil {
		t.Error("Expected nil utterance on rejection")
	}
	if d.Recording() {
		t.Error("Expected buffers cleared after rejection")
	}
}

func TestEndpointDetector_Process_RejectsQuietUtterance(t *testing.T) {
	clf := &stubClassifier{speech: true}
	d := NewEndpointDetector(endpointTestConfig(), clf)
	t0 := time.Now()

	// Silent audio below the per-chunk energy floor; onset comes from the
	// classifier once the window is deep enough.
	for i := 0; i < 6; i++ {
		at := t0.Add(time.Duration(i*100) * time.Millisecond)
		if _, decision := d.Process(makeChunk(1600, 0), at); decision != DecisionNone {
			t.Fatalf("Unexpected decision %v during classifier speech", decision)
		}
	}
	if !d.Recording() {
		t.Fatal("Expected recording started from classifier verdict")
	}

	clf.speech = false
	var decision Decision
	for i := 6; i <= 10; i++ {
		at := t0.Add(time.Duration(i*100) * time.Millisecond)
		if _, decision = d.Process(makeChunk(1600, 0), at); decision != DecisionNone {
			break
		}
	}

	if decision != DecisionRejectedQuiet {
		t.Fatalf("Expected quiet rejection, got %v", decision)
	}
	if d.Recording() {
		t.Error("Expected buffers cleared after rejection")
	}
}

func TestEndpointDetector_Process_MaxDurationForcesFinalize(t *testing.T) {
	cfg := endpointTestConfig()
	clf := &stubClassifier{speech: false}
	d := NewEndpointDetector(cfg, clf)
	t0 := time.Now()

	d.Process(makeChunk(1600, 0.1), t0)
	utterance, decision := d.Process(makeChunk(1600, 0.1), t0.Add(cfg.MaxUtterance))

	if decision != DecisionFinalized {
		t.Fatalf("Expected forced finalize at max duration, got %v", decision)
	}
	if utterance == nil || !utterance.Forced {
		t.Fatal("Expected utterance marked as forced")
	}
	// Forced finalize skips the length gate; two chunks are below the
	// minimum yet still emitted.
	if len(utterance.Samples) != 2*1600 {
		t.Errorf("Expected 3200 samples, got %d", len(utterance.Samples))
	}
}

func TestEndpointDetector_Seed_StartsUtteranceFromChunk(t *testing.T) {
	clf := &stubClassifier{speech: false}
	d := NewEndpointDetector(endpointTestConfig(), clf)
	t0 := time.Now()

	d.Seed(makeChunk(1600, 0.2), t0)
	if !d.Recording() {
		t.Fatal("Expected recording active after seed")
	}

	for i := 1; i <= 3; i++ {
		at := t0.Add(time.Duration(i*100) * time.Millisecond)
		d.Process(makeChunk(1600, 0.1), at)
	}
	utterance, decision := d.Process(makeChunk(1600, 0), t0.Add(700*time.Millisecond))

	if decision != DecisionFinalized {
		t.Fatalf("Expected finalized utterance after seed, got %v", decision)
	}
	if len(utterance.Samples) != 5*1600 {
		t.Fatalf("Expected 8000 samples, got %d", len(utterance.Samples))
	}
	if utterance.Samples[0] != 0.2 {
		t.Errorf("Expected seeded chunk at the front of the utterance, got %f", utterance.Samples[0])
	}
	if !utterance.StartedAt.Equal(t0) {
		t.Errorf("Expected utterance start at seed time %v, got %v", t0, utterance.StartedAt)
	}
}

func TestEndpointDetector_Process_CleanCycleAfterRejection(t *testing.T) {
	clf := &stubClassifier{speech: false}
	d := NewEndpointDetector(endpointTestConfig(), clf)
	t0 := time.Now()

	// First cycle: too short, rejected.
	d.Process(makeChunk(1600, 0.1), t0)
	_, decision := d.Process(makeChunk(1600, 0), t0.Add(400*time.Millisecond))
	if decision != DecisionRejectedShort {
		t.Fatalf("Expected short rejection, got %v", decision)
	}

	// Second cycle: a full utterance must come out clean, untainted by
	// the rejected one.
	t1 := t0.Add(time.Second)
	for i := 0; i < 5; i++ {
		d.Process(makeChunk(1600, 0.1), t1.Add(time.Duration(i*100)*time.Millisecond))
	}
	var utterance *Utterance
	for i := 5; i <= 8; i++ {
		utterance, decision = d.Process(makeChunk(1600, 0), t1.Add(time.Duration(i*100)*time.Millisecond))
		if decision != DecisionNone {
			break
		}
	}

	if decision != DecisionFinalized {
		t.Fatalf("Expected finalized second utterance, got %v", decision)
	}
	if !utterance.StartedAt.Equal(t1) {
		t.Errorf("Expected second utterance to start at %v, got %v", t1, utterance.StartedAt)
	}
}
