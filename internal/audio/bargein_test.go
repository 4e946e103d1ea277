package audio

import (
	"testing"
	"time"
)

func bargeInTestConfig() BargeInConfig {
	return BargeInConfig{
		WindowSamples:    6400,
		MinWindowSamples: 4000,
		MinDelay:         800 * time.Millisecond,
		MinRMS:           0.01,
	}
}

func TestBargeInMonitor_Observe_IgnoresEarlyAudio(t *testing.T) {
	clf := &stubClassifier{speech: true}
	m := NewBargeInMonitor(bargeInTestConfig(), clf)
	t0 := time.Now()
	m.Begin(t0)

	// Loud speech inside the initial delay must not trigger.
	for i := 0; i < 5; i++ {
		at := t0.Add(time.Duration(i*100) * time.Millisecond)
		if m.Observe(makeChunk(1600, 0.2), at) {
			t.Fatalf("Expected no trigger at %dms, inside the delay window", i*100)
		}
	}
}

func TestBargeInMonitor_Observe_IgnoresQuietAudio(t *testing.T) {
	clf := &stubClassifier{speech: true}
	m := NewBargeInMonitor(bargeInTestConfig(), clf)
	t0 := time.Now()
	m.Begin(t0)

	// Past the delay but below the energy floor.
	at := t0.Add(time.Second)
	for i := 0; i < 5; i++ {
		if m.Observe(makeChunk(1600, 0.001), at.Add(time.Duration(i*100)*time.Millisecond)) {
			t.Fatal("Expected quiet audio to never trigger")
		}
	}
}

func TestBargeInMonitor_Observe_WaitsForMinimumWindow(t *testing.T) {
	clf := &stubClassifier{speech: true}
	m := NewBargeInMonitor(bargeInTestConfig(), clf)
	t0 := time.Now()
	m.Begin(t0)

	at := t0.Add(time.Second)
	// 1600 then 3200 buffered samples, both below the 4000 minimum.
	if m.Observe(makeChunk(1600, 0.2), at) {
		t.Fatal("Expected no trigger before the window is deep enough")
	}
	if m.Observe(makeChunk(1600, 0.2), at.Add(100*time.Millisecond)) {
		t.Fatal("Expected no trigger before the window is deep enough")
	}

	// Third chunk crosses the minimum and the classifier confirms.
	if !m.Observe(makeChunk(1600, 0.2), at.Add(200*time.Millisecond)) {
		t.Error("Expected trigger once the window is full and classified as speech")
	}
}

func TestBargeInMonitor_Observe_RequiresClassifierVerdict(t *testing.T) {
	clf := &stubClassifier{speech: false}
	m := NewBargeInMonitor(bargeInTestConfig(), clf)
	t0 := time.Now()
	m.Begin(t0)

	at := t0.Add(time.Second)
	for i := 0; i < 5; i++ {
		if m.Observe(makeChunk(1600, 0.2), at.Add(time.Duration(i*100)*time.Millisecond)) {
			t.Fatal("Expected loud non-speech audio to never trigger")
		}
	}
}

func TestBargeInMonitor_Reset(t *testing.T) {
	clf := &stubClassifier{speech: true}
	m := NewBargeInMonitor(bargeInTestConfig(), clf)
	t0 := time.Now()
	m.Begin(t0)

	at := t0.Add(time.Second)
	m.Observe(makeChunk(1600, 0.2), at)
	m.Observe(makeChunk(1600, 0.2), at.Add(100*time.Millisecond))
	m.Reset()

	// After a reset the window refills from empty.
	m.Begin(at.Add(200 * time.Millisecond))
	if m.Observe(makeChunk(1600, 0.2), at.Add(1500*time.Millisecond)) {
		t.Error("Expected empty window after reset, not an immediate trigger")
	}
}
