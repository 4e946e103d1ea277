// Package telemetry collects per-turn latency checkpoints and running
// aggregate statistics.
package telemetry

import (
	"sort"
	"time"
)

// Checkpoint names one timestamp of interest within a turn.
type Checkpoint string

const (
	CheckpointUserStop       Checkpoint = "user_stop"
	CheckpointASREnd         Checkpoint = "asr_end"
	CheckpointLLMStart       Checkpoint = "llm_start"
	CheckpointTTSStart       Checkpoint = "tts_start"
	CheckpointAudioFirstByte Checkpoint = "audio_first_byte"
)

var required = []Checkpoint{
	CheckpointUserStop,
	CheckpointASREnd,
	CheckpointLLMStart,
	CheckpointTTSStart,
	CheckpointAudioFirstByte,
}

// Log holds one turn's checkpoints. Created fresh each turn, consumed once.
type Log map[Checkpoint]time.Time

// NewLog returns an empty checkpoint log.
func NewLog() Log {
	return make(Log)
}

// Mark stamps a checkpoint.
func (l Log) Mark(cp Checkpoint, t time.Time) {
	l[cp] = t
}

// Complete reports whether all five checkpoints are present.
func (l Log) Complete() bool {
	for _, cp := range required {
		if _, ok := l[cp]; !ok {
			return false
		}
	}
	return true
}

// TurnMetrics are the derived millisecond intervals for one turn.
type TurnMetrics struct {
	TurnMS       float64 // user stop -> TTS start
	ASRToLLMMS   float64 // ASR end -> LLM start
	LLMToTTSMS   float64 // LLM start -> TTS start
	TTSStartupMS float64 // TTS start -> first audio byte
}

// Summary is the running aggregate over completed turns.
type Summary struct {
	TurnAvgMS       float64
	TurnP95MS       float64
	ASRToLLMAvgMS   float64
	LLMToTTSAvgMS   float64
	TTSStartupAvgMS float64
	TurnCount       int
}

// Tracker accumulates turn metrics. Partial turns, such as those ending in
// an interruption, are silently excluded.
type Tracker struct {
	turnMS       []float64
	asrToLLMMS   []float64
	llmToTTSMS   []float64
	ttsStartupMS []float64
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record derives the turn intervals and appends them to the running series.
// It returns nil when any checkpoint is missing.
func (t *Tracker) Record(log Log) *TurnMetrics {
	if !log.Complete() {
		return nil
	}

	m := &TurnMetrics{
		TurnMS:       ms(log[CheckpointTTSStart].Sub(log[CheckpointUserStop])),
		ASRToLLMMS:   ms(log[CheckpointLLMStart].Sub(log[CheckpointASREnd])),
		LLMToTTSMS:   ms(log[CheckpointTTSStart].Sub(log[CheckpointLLMStart])),
		TTSStartupMS: ms(log[CheckpointAudioFirstByte].Sub(log[CheckpointTTSStart])),
	}

	t.turnMS = append(t.turnMS, m.TurnMS)
	t.asrToLLMMS = append(t.asrToLLMMS, m.ASRToLLMMS)
	t.llmToTTSMS = append(t.llmToTTSMS, m.LLMToTTSMS)
	t.ttsStartupMS = append(t.ttsStartupMS, m.TTSStartupMS)

	return m
}

// Summary returns running means and the nearest-rank 95th percentile of the
// turn-latency series. Empty series yield zeros.
func (t *Tracker) Summary() Summary {
	return Summary{
		TurnAvgMS:       mean(t.turnMS),
		TurnP95MS:       p95(t.turnMS),
		ASRToLLMAvgMS:   mean(t.asrToLLMMS),
		LLMToTTSAvgMS:   mean(t.llmToTTSMS),
		TTSStartupAvgMS: mean(t.ttsStartupMS),
		TurnCount:       len(t.turnMS),
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// p95 uses nearest-rank on the sorted series, no interpolation.
func p95(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(float64(len(sorted)-1)*0.95 + 0.5)
	return sorted[idx]
}
