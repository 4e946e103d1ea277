package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "turn_engine_active_sessions",
		Help: "Number of active audio sessions",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "turn_engine_sessions_total",
		Help: "Total number of sessions handled",
	})

	// Turn metrics
	turnsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "turn_engine_turns_total",
		Help: "Total number of completed conversation turns",
	})

	utterancesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "turn_engine_utterances_rejected_total",
		Help: "Utterances discarded before producing a response",
	}, []string{"reason"}) // too_short, low_energy, short_transcript, noise_phrase

	bargeIns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "turn_engine_barge_ins_total",
		Help: "User interruptions detected during agent speech",
	})

	verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "turn_engine_verifications_total",
		Help: "Identity verification outcomes",
	}, []string{"result"}) // matched, mismatched, failed

	// Per-stage latency
	turnLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "turn_engine_turn_latency_seconds",
		Help:    "User-stop to TTS-start latency per turn",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	})

	asrToLLMLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "turn_engine_asr_to_llm_seconds",
		Help:    "Time from transcript availability to response generation start",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
	})

	ttsStartupLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "turn_engine_tts_startup_seconds",
		Help:    "Synthesis request to first audio byte",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "turn_engine_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "turn_engine_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "turn_engine_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})
)

// SessionMetrics records metrics for a single session's turns.
type SessionMetrics struct {
	sessionID string
}

// NewSessionMetrics creates a metrics recorder for a session and counts it active.
func NewSessionMetrics(sessionID string) *SessionMetrics {
	activeSessions.Inc()
	totalSessions.Inc()
	return &SessionMetrics{sessionID: sessionID}
}

// RecordSessionEnd marks the session as finished.
func (m *SessionMetrics) RecordSessionEnd() {
	activeSessions.Dec()
}

// RecordTurn records one completed turn with its stage latencies in milliseconds.
func (m *SessionMetrics) RecordTurn(turnMS, asrToLLMMS, ttsStartupMS float64) {
	turnsTotal.Inc()
	turnLatency.Observe(turnMS / 1000.0)
	asrToLLMLatency.Observe(asrToLLMMS / 1000.0)
	ttsStartupLatency.Observe(ttsStartupMS / 1000.0)
}

// RecordRejection records a discarded utterance.
func (m *SessionMetrics) RecordRejection(reason string) {
	utterancesRejected.WithLabelValues(reason).Inc()
}

// RecordBargeIn records a detected interruption.
func (m *SessionMetrics) RecordBargeIn() {
	bargeIns.Inc()
}

// RecordVerification records an identity verification outcome.
func (m *SessionMetrics) RecordVerification(result string) {
	verifications.WithLabelValues(result).Inc()
}

// RecordError records an error.
func (m *SessionMetrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// UpdateCircuitBreakerState updates the circuit breaker state metric.
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments the circuit breaker failure counter.
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}
