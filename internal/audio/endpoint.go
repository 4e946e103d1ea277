package audio

import (
	"time"
)

// EndpointConfig holds the thresholds driving endpoint detection.
type EndpointConfig struct {
	SampleRate          int
	WindowSamples       int           // rolling classification window capacity
	MinWindowSamples    int           // classifier runs only past this fill level
	MinUtteranceSamples int           // shorter utterances are rejected as noise
	SilenceTimeout      time.Duration // trailing silence that ends an utterance
	MaxUtterance        time.Duration // hard cutoff from recording start
	StartRMS            float64       // per-chunk energy fallback for onset
	MinRMS              float64       // whole-utterance energy gate
}

// Utterance is the audio collected from speech start to speech end for one
// user turn.
type Utterance struct {
	Samples   []float32
	StartedAt time.Time
	Forced    bool // finalized by the max-duration cutoff rather than silence
}

// Duration returns the utterance length at the given sample rate.
func (u *Utterance) Duration(sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(u.Samples)) / float64(sampleRate) * float64(time.Second))
}

// RMS returns the whole-utterance energy.
func (u *Utterance) RMS() float64 {
	return RMS(u.Samples)
}

// Decision is the outcome of feeding one chunk to the detector.
type Decision int

const (
	DecisionNone          Decision = iota // nothing finalized this chunk
	DecisionFinalized                     // utterance emitted for transcription
	DecisionRejectedShort                 // finalized but below the minimum sample count
	DecisionRejectedQuiet                 // finalized but below the energy gate
)

// EndpointDetector consumes chunks plus classifier verdicts and decides
// speech-start, speech-end, and max-duration cutoff. The energy fallback on
// onset exists because short bursts, like the first syllable of an
// interruption, may be too short for reliable classification.
type EndpointDetector struct {
	cfg        EndpointConfig
	classifier Classifier

	window *RollingWindow

	// Utterance accumulation, separate from the classification window.
	utterance        []Chunk
	utteranceSamples int

	recording      bool
	speechActive   bool
	lastSpeechTime time.Time
	recordingStart time.Time
}

// NewEndpointDetector creates a detector around the given classifier.
func NewEndpointDetector(cfg EndpointConfig, classifier Classifier) *EndpointDetector {
	return &EndpointDetector{
		cfg:        cfg,
		classifier: classifier,
		window:     NewRollingWindow(cfg.WindowSamples),
	}
}

// Process feeds one chunk. It returns a non-nil utterance only on
// DecisionFinalized; rejections clear all buffers identically to a normal
// finalize so the next chunk starts a clean cycle.
func (d *EndpointDetector) Process(chunk Chunk, now time.Time) (*Utterance, Decision) {
	d.window.Push(chunk)

	speechNow := chunk.RMS() >= d.cfg.StartRMS
	if !speechNow && d.window.Samples() >= d.cfg.MinWindowSamples {
		speechNow = d.classifier.IsSpeech(d.window.Snapshot())
	}

	if speechNow {
		d.speechActive = true
		d.lastSpeechTime = now
		if !d.recording {
			d.recording = true
			d.recordingStart = now
			d.utterance = nil
			d.utteranceSamples = 0
		}
		d.append(chunk)
	} else {
		if d.recording {
			// Keep trailing breath and final consonants.
			d.append(chunk)
		}
		if d.speechActive && !d.lastSpeechTime.IsZero() && now.Sub(d.lastSpeechTime) >= d.cfg.SilenceTimeout {
			return d.finalize(false)
		}
	}

	// Independent of energy: bound worst-case latency and memory.
	if d.recording && !d.recordingStart.IsZero() && now.Sub(d.recordingStart) >= d.cfg.MaxUtterance {
		return d.finalize(true)
	}

	return nil, DecisionNone
}

// Seed starts a fresh utterance from an interrupting chunk so no audio is
// lost across the barge-in boundary.
func (d *EndpointDetector) Seed(chunk Chunk, now time.Time) {
	d.Reset()
	d.window.Push(chunk)
	d.utterance = []Chunk{chunk}
	d.utteranceSamples = chunk.Len()
	d.recording = true
	d.speechActive = true
	d.recordingStart = now
	d.lastSpeechTime = now
}

// Reset clears all buffers and detection state.
func (d *EndpointDetector) Reset() {
	d.window.Clear()
	d.utterance = nil
	d.utteranceSamples = 0
	d.recording = false
	d.speechActive = false
	d.lastSpeechTime = time.Time{}
	d.recordingStart = time.Time{}
}

// Recording reports whether an utterance is currently being accumulated.
func (d *EndpointDetector) Recording() bool {
	return d.recording
}

func (d *EndpointDetector) append(chunk Chunk) {
	d.utterance = append(d.utterance, chunk)
	d.utteranceSamples += chunk.Len()
}

func (d *EndpointDetector) finalize(forced bool) (*Utterance, Decision) {
	startedAt := d.recordingStart
	samples := make([]float32, 0, d.utteranceSamples)
	for _, c := range d.utterance {
		samples = append(samples, c.Samples...)
	}
	d.Reset()

	if !forced {
		if len(samples) < d.cfg.MinUtteranceSamples {
			return nil, DecisionRejectedShort
		}
		// Whole-utterance gate against false triggers from room noise.
		if RMS(samples) < d.cfg.MinRMS {
			return nil, DecisionRejectedQuiet
		}
	}

	return &Utterance{Samples: samples, StartedAt: startedAt, Forced: forced}, DecisionFinalized
}
