package audio

// Classifier decides whether an audio window contains speech. Implementations
// are stateless per call and are given windows of at least the configured
// minimum duration. The production classifier is an external acoustic model;
// EnergyClassifier is the local fallback.
type Classifier interface {
	IsSpeech(samples []float32) bool
}

// EnergyClassifier is a pure energy-threshold speech classifier with
// hysteresis between its start and stop thresholds to avoid flickering at
// the boundary.
type EnergyClassifier struct {
	speechThreshold  float64 // RMS level to call a window speech
	silenceThreshold float64 // RMS level below which an active window goes silent
	inSpeech         bool
}

// NewEnergyClassifier creates a classifier with the given start threshold.
// The stop threshold is half the start threshold.
func NewEnergyClassifier(threshold float64) *EnergyClassifier {
	return &EnergyClassifier{
		speechThreshold:  threshold,
		silenceThreshold: threshold / 2,
	}
}

// IsSpeech reports whether the window's energy clears the active threshold.
func (e *EnergyClassifier) IsSpeech(samples []float32) bool {
	level := RMS(samples)
	if e.inSpeech {
		if level < e.silenceThreshold {
			e.inSpeech = false
		}
	} else {
		if level >= e.speechThreshold {
			e.inSpeech = true
		}
	}
	return e.inSpeech
}

// Reset clears the hysteresis state.
func (e *EnergyClassifier) Reset() {
	e.inSpeech = false
}
