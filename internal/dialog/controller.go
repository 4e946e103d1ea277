package dialog

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/voiceloop/turn-engine/internal/audio"
	"github.com/voiceloop/turn-engine/internal/config"
	"github.com/voiceloop/turn-engine/internal/faq"
	"github.com/voiceloop/turn-engine/internal/llm"
	"github.com/voiceloop/turn-engine/internal/mic"
	"github.com/voiceloop/turn-engine/internal/observability"
	"github.com/voiceloop/turn-engine/internal/stt"
	"github.com/voiceloop/turn-engine/internal/telemetry"
	"github.com/voiceloop/turn-engine/internal/tts"
	"github.com/voiceloop/turn-engine/internal/verify"
)

// playbackStartGrace bounds the wait for the synthesizer's playback-started
// signal before falling back to wall-clock time.
const playbackStartGrace = 200 * time.Millisecond

// bargePollWait is the bounded mic read inside the speaking watch loop.
const bargePollWait = 10 * time.Millisecond

// Collaborators are the external interfaces the controller orchestrates.
type Collaborators struct {
	Mic         mic.Source
	Transcriber stt.Transcriber
	Synthesizer tts.Synthesizer
	Responder   llm.Responder
	FAQ         *faq.Store
	Users       *verify.Directory
}

// Controller is the real-time turn-taking loop binding the rolling buffer,
// endpoint detector, and state machine to the collaborators. All loop state
// lives on this struct; one controller serves one session and all mutation
// happens on its Run goroutine. The mic queue has exactly one drainer: this
// loop, whether it is collecting an utterance or watching for barge-in.
type Controller struct {
	cfg     *config.Config
	machine *Machine

	detector *audio.EndpointDetector
	barge    *audio.BargeInMonitor

	col     Collaborators
	metrics *observability.SessionMetrics
	tracker *telemetry.Tracker
	log     zerolog.Logger

	fillers      *fillerCycle
	noisePhrases map[string]struct{}

	// Per-conversation scratch state.
	session         verify.Session
	pending         *audio.Utterance
	responseText    string
	lastListenState State
	hasLastListen   bool
	nextState       State
	hasNextState    bool
	latency         telemetry.Log

	// Injected clock, overridden in tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// NewController wires a controller from config and collaborators. The
// classifier factory is called once per audio window; endpoint detection
// and barge-in monitoring must not share a classifier, since a stateful
// one would leak verdicts between the two windows.
func NewController(
	cfg *config.Config,
	newClassifier func() audio.Classifier,
	col Collaborators,
	metrics *observability.SessionMetrics,
	log zerolog.Logger,
) *Controller {
	noise := make(map[string]struct{})
	for _, p := range cfg.NoisePhraseList() {
		noise[p] = struct{}{}
	}

	return &Controller{
		cfg:     cfg,
		machine: NewMachine(log),
		detector: audio.NewEndpointDetector(audio.EndpointConfig{
			SampleRate:          cfg.SampleRate,
			WindowSamples:       cfg.WindowSamples(),
			MinWindowSamples:    cfg.MinWindowSamples(),
			MinUtteranceSamples: cfg.MinUtteranceSamples(),
			SilenceTimeout:      cfg.SilenceTimeout(),
			MaxUtterance:        cfg.MaxUtterance(),
			StartRMS:            cfg.StartRMS,
			MinRMS:              cfg.MinRMS,
		}, newClassifier()),
		barge: audio.NewBargeInMonitor(audio.BargeInConfig{
			WindowSamples:    cfg.WindowSamples(),
			MinWindowSamples: cfg.MinWindowSamples(),
			MinDelay:         cfg.BargeInMinDelay(),
			MinRMS:           cfg.BargeInMinRMS,
		}, newClassifier()),
		col:          col,
		metrics:      metrics,
		tracker:      telemetry.NewTracker(),
		log:          log,
		fillers:      newFillerCycle(cfg.FillerPhraseList(), cfg.SensitiveTermList()),
		noisePhrases: noise,
		latency:      telemetry.NewLog(),
		now:          time.Now,
		sleep:        time.Sleep,
	}
}

// Machine exposes the state machine, mainly for session introspection.
func (c *Controller) Machine() *Machine {
	return c.machine
}

// Tracker exposes the latency aggregates.
func (c *Controller) Tracker() *telemetry.Tracker {
	return c.tracker
}

// Run drives the conversation until ctx is cancelled. Every recoverable
// failure resolves to a valid next state inside one loop iteration; only
// cancellation terminates.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.col.Mic.Start(); err != nil {
		return fmt.Errorf("failed to start microphone: %w", err)
	}
	defer c.col.Mic.Stop()

	c.machine.OnStart()

	// Greeting turn: welcome the caller, then collect their mobile number.
	c.responseText = c.cfg.WelcomePrompt
	c.setNextState(StateVerifyMobile)
	c.machine.TransitionTo(StateSpeaking)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		switch state := c.machine.State(); {
		case state.IsListening():
			c.tickListening(ctx)
		case state == StateProcessing:
			c.process(ctx)
		case state == StateSpeaking:
			c.speak(ctx)
		default:
			c.sleep(10 * time.Millisecond)
		}
	}
}

// tickListening drains one mic chunk into the endpoint detector.
func (c *Controller) tickListening(ctx context.Context) {
	chunk, ok := c.col.Mic.Read(c.cfg.MicReadTimeout())
	if !ok {
		// No data this tick; keeps the loop responsive to shutdown.
		return
	}

	utterance, decision := c.detector.Process(chunk, c.now())
	switch decision {
	case audio.DecisionRejectedShort:
		c.metrics.RecordRejection("too_short")
		c.log.Debug().Msg("ignored short utterance")
	case audio.DecisionRejectedQuiet:
		c.metrics.RecordRejection("low_energy")
		c.log.Debug().Msg("ignored low-energy audio")
	case audio.DecisionFinalized:
		if utterance.Forced {
			c.log.Warn().Msg("max utterance length reached, processing partial audio")
		}
		c.pending = utterance
		c.lastListenState = c.machine.State()
		c.hasLastListen = true
		c.latency = telemetry.NewLog()
		c.latency.Mark(telemetry.CheckpointUserStop, c.now())
		c.machine.OnUserFinishedSpeaking()
	}
}

// process transcribes the finalized utterance and picks a response branch.
func (c *Controller) process(ctx context.Context) {
	utterance := c.pending
	c.pending = nil
	if utterance == nil {
		c.machine.TransitionTo(c.returnState())
		return
	}

	text, err := c.col.Transcriber.Transcribe(ctx, utterance.Samples)
	c.latency.Mark(telemetry.CheckpointASREnd, c.now())
	if err != nil {
		c.log.Warn().Err(err).Msg("transcription failed")
		c.metrics.RecordError("transcribe_error", "stt")
		c.machine.TransitionTo(c.returnState())
		return
	}

	trimmed := strings.TrimSpace(text)
	c.log.Info().Str("text", trimmed).Msg("user said")

	// Hard rejection filter: noise and known ASR hallucinations produce no
	// turn at all.
	if utf8.RuneCountInString(trimmed) < c.cfg.MinTranscriptChars {
		c.metrics.RecordRejection("short_transcript")
		c.log.Debug().Msg("ignoring noise or short transcript")
		c.machine.TransitionTo(c.returnState())
		return
	}
	if _, known := c.noisePhrases[strings.ToLower(trimmed)]; known {
		c.metrics.RecordRejection("noise_phrase")
		c.log.Debug().Msg("ignoring hallucinated phrase")
		c.machine.TransitionTo(c.returnState())
		return
	}

	c.latency.Mark(telemetry.CheckpointLLMStart, c.now())

	switch c.lastListenState {
	case StateVerifyMobile, StateVerifyFailed:
		c.handleMobileStep(trimmed)
	case StateVerifySecondary:
		c.handleSecondaryStep(trimmed)
	default:
		c.handleChat(ctx, trimmed)
	}
}

func (c *Controller) handleMobileStep(text string) {
	if mobile, ok := verify.ExtractMobile(text); ok {
		c.session.PendingMobile = mobile
		c.responseText = "Thanks. Please tell me the last 4 digits or your date of birth."
		c.setNextState(StateVerifySecondary)
	} else {
		c.responseText = "Sorry, I didn't catch your mobile number. Please repeat it."
		c.setNextState(StateVerifyMobile)
	}
	c.machine.TransitionTo(StateSpeaking)
}

func (c *Controller) handleSecondaryStep(text string) {
	last4, _ := verify.ExtractLast4(text)
	dob, _ := verify.ExtractDOB(text)

	if user, ok := c.col.Users.Match(c.session.PendingMobile, last4, dob); ok {
		c.log.Info().Str("user", user.Name).Msg("caller verified")
		c.metrics.RecordVerification("matched")
		c.session.Reset()
		c.responseText = "Verified. How can I help you today?"
		c.setNextState(StateListening)
	} else {
		c.session.Attempts++
		c.session.PendingMobile = ""
		if c.session.Attempts >= c.cfg.VerifyMaxAttempts {
			c.metrics.RecordVerification("failed")
			c.responseText = "Sorry, I couldn't verify. Please try again later."
			c.setNextState(StateVerifyFailed)
		} else {
			c.metrics.RecordVerification("mismatched")
			c.responseText = "I couldn't verify that. Please tell me your mobile number again."
			c.setNextState(StateVerifyMobile)
		}
	}
	c.machine.TransitionTo(StateSpeaking)
}

func (c *Controller) handleChat(ctx context.Context, text string) {
	if answer, ok := c.col.FAQ.Match(text); ok {
		c.responseText = answer
	} else {
		reply, err := c.col.Responder.Generate(ctx, text, c.cfg.PersonaInstructions)
		if err != nil {
			c.log.Warn().Err(err).Msg("responder failed")
			c.metrics.RecordError("responder_error", "llm")
		}
		if reply == "" {
			reply = c.cfg.FallbackResponse
		}
		c.responseText = reply
	}
	c.responseText = c.fillers.Apply(c.responseText)
	c.machine.OnProcessingDone()
}

// speak synthesizes the pending response, watching the mic for interruption
// while the agent talks.
func (c *Controller) speak(ctx context.Context) {
	if c.responseText == "" {
		c.responseText = "Hmm... let me check that for you."
	}
	c.log.Info().Str("text", c.responseText).Msg("agent speaking")

	ttsStart := c.now()
	c.latency.Mark(telemetry.CheckpointTTSStart, ttsStart)

	target, hasTarget := c.nextState, c.hasNextState
	c.clearNextState()

	playback, err := c.col.Synthesizer.Speak(c.responseText)
	if err != nil {
		c.log.Error().Err(err).Msg("synthesis failed")
		c.metrics.RecordError("tts_error", "tts")
		c.latency.Mark(telemetry.CheckpointAudioFirstByte, c.now())
		c.completeTurn(target, hasTarget)
		return
	}

	// One-shot playback-start notification; fall back to wall clock after a
	// short grace so a stuck synthesizer cannot wedge the turn.
	select {
	case ts, ok := <-playback.Started:
		if !ok || ts.IsZero() {
			ts = c.now()
		}
		c.latency.Mark(telemetry.CheckpointAudioFirstByte, ts)
	case <-time.After(playbackStartGrace):
		c.latency.Mark(telemetry.CheckpointAudioFirstByte, c.now())
	}

	if !c.cfg.BargeInEnabled {
		// No need to hold the full speaking window when interruption
		// handling is off.
		c.sleep(120 * time.Millisecond)
		c.completeTurn(target, hasTarget)
		return
	}

	c.barge.Begin(ttsStart)
	deadline := ttsStart.Add(c.cfg.SpeakingWindow())
	for c.now().Before(deadline) {
		select {
		case <-ctx.Done():
			c.barge.Reset()
			return
		case <-playback.Done:
			c.barge.Reset()
			c.completeTurn(target, hasTarget)
			return
		default:
		}

		chunk, ok := c.col.Mic.Read(bargePollWait)
		if !ok {
			continue
		}

		if c.barge.Observe(chunk, c.now()) {
			c.metrics.RecordBargeIn()
			if stopErr := c.col.Synthesizer.Stop(); stopErr != nil {
				c.log.Error().Err(stopErr).Msg("failed to stop synthesis")
			}

			resumeAt := StateListening
			if hasTarget {
				resumeAt = target
			}
			c.machine.OnBargeIn(resumeAt)

			// The interrupting chunk seeds the next utterance so no audio
			// is lost at the boundary. Telemetry for this turn is dropped.
			c.detector.Seed(chunk, c.now())
			c.barge.Reset()
			c.responseText = ""
			return
		}
	}

	c.barge.Reset()
	c.completeTurn(target, hasTarget)
}

// completeTurn emits telemetry, advances past Speaking, and clears per-turn
// scratch state.
func (c *Controller) completeTurn(target State, hasTarget bool) {
	if m := c.tracker.Record(c.latency); m != nil {
		c.metrics.RecordTurn(m.TurnMS, m.ASRToLLMMS, m.TTSStartupMS)
		c.log.Info().
			Float64("turn_ms", m.TurnMS).
			Float64("asr_to_llm_ms", m.ASRToLLMMS).
			Float64("llm_to_tts_ms", m.LLMToTTSMS).
			Float64("tts_startup_ms", m.TTSStartupMS).
			Msg("turn latency")

		s := c.tracker.Summary()
		c.log.Info().
			Int("turn_count", s.TurnCount).
			Float64("turn_avg_ms", s.TurnAvgMS).
			Float64("turn_p95_ms", s.TurnP95MS).
			Msg("latency aggregate")
	}

	if hasTarget {
		c.machine.TransitionTo(target)
	} else {
		c.machine.OnTTSFinished()
	}

	// Purge stale queued audio (bot echo, old backlog) before listening again.
	c.col.Mic.ClearPending()
	c.responseText = ""
	c.latency = telemetry.NewLog()
}

func (c *Controller) returnState() State {
	if c.hasLastListen {
		return c.lastListenState
	}
	return StateListening
}

func (c *Controller) setNextState(s State) {
	c.nextState = s
	c.hasNextState = true
}

func (c *Controller) clearNextState() {
	c.nextState = StateIdle
	c.hasNextState = false
}
