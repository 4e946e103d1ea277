package audio

import (
	"time"
)

// BargeInConfig holds the thresholds for interruption detection.
type BargeInConfig struct {
	WindowSamples    int
	MinWindowSamples int
	MinDelay         time.Duration // ignore audio this long after speech start
	MinRMS           float64       // ignore chunks quieter than this
}

// BargeInMonitor watches live microphone chunks while the agent is speaking.
// It keeps its own rolling window and runs the same classification as the
// endpoint detector; a positive verdict signals an interruption. The initial
// delay prevents the agent's own voice bleed from self-triggering.
type BargeInMonitor struct {
	cfg         BargeInConfig
	classifier  Classifier
	window      *RollingWindow
	speechStart time.Time
}

// NewBargeInMonitor creates a monitor around the given classifier.
func NewBargeInMonitor(cfg BargeInConfig, classifier Classifier) *BargeInMonitor {
	return &BargeInMonitor{
		cfg:        cfg,
		classifier: classifier,
		window:     NewRollingWindow(cfg.WindowSamples),
	}
}

// Begin arms the monitor at the start of agent speech.
func (m *BargeInMonitor) Begin(now time.Time) {
	m.window.Clear()
	m.speechStart = now
}

// Observe feeds one live chunk and reports whether the user interrupted.
func (m *BargeInMonitor) Observe(chunk Chunk, now time.Time) bool {
	if now.Sub(m.speechStart) < m.cfg.MinDelay {
		return false
	}
	if chunk.RMS() < m.cfg.MinRMS {
		return false
	}

	m.window.Push(chunk)
	if m.window.Samples() < m.cfg.MinWindowSamples {
		return false
	}

	return m.classifier.IsSpeech(m.window.Snapshot())
}

// Reset clears the monitor's window.
func (m *BargeInMonitor) Reset() {
	m.window.Clear()
	m.speechStart = time.Time{}
}
