package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the turn-taking engine
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Audio format. The engine works on mono float PCM; sessions deliver
	// 16-bit LE frames at this rate.
	SampleRate int `envconfig:"SAMPLE_RATE" default:"16000"`

	// Endpoint detection thresholds
	VADWindowSec      float64 `envconfig:"VAD_WINDOW_SEC" default:"0.4"`       // Rolling classification window length
	VADMinSec         float64 `envconfig:"VAD_MIN_SEC" default:"0.25"`         // Minimum window before the classifier runs
	MinUtteranceSec   float64 `envconfig:"MIN_UTTERANCE_SEC" default:"0.35"`   // Shorter utterances are rejected as noise
	SilenceTimeoutSec float64 `envconfig:"SILENCE_TIMEOUT_SEC" default:"0.35"` // Trailing silence that finalizes an utterance
	MaxUtteranceSec   float64 `envconfig:"MAX_UTTERANCE_SEC" default:"10.0"`   // Hard cutoff, bounds latency and memory
	MinRMS            float64 `envconfig:"MIN_RMS" default:"0.001"`            // Whole-utterance energy gate
	StartRMS          float64 `envconfig:"START_RMS" default:"0.003"`          // Per-chunk energy fallback for speech onset

	// Barge-in configuration
	BargeInEnabled     bool    `envconfig:"BARGE_IN_ENABLED" default:"false"`
	BargeInMinDelaySec float64 `envconfig:"BARGE_IN_MIN_DELAY_SEC" default:"0.8"` // Ignore mic this long after TTS starts (own-voice bleed)
	BargeInMinRMS      float64 `envconfig:"BARGE_IN_MIN_RMS" default:"0.01"`
	SpeakingWindowSec  float64 `envconfig:"SPEAKING_WINDOW_SEC" default:"1.5"` // Bounded barge-in watch per agent turn

	// Dialogue configuration
	MinTranscriptChars  int    `envconfig:"MIN_TRANSCRIPT_CHARS" default:"4"`
	NoisePhrases        string `envconfig:"NOISE_PHRASES" default:"thank you,you,yeah,okay,hello"` // Known ASR hallucinations, comma-separated
	FillerPhrases       string `envconfig:"FILLER_PHRASES" default:"Hmm, |Haan, |Ek second, "`     // Pipe-separated, rotated per response
	SensitiveTerms      string `envconfig:"SENSITIVE_TERMS" default:"otp,mobile,number,dob,date of birth,last 4,digits"`
	VerifyMaxAttempts   int    `envconfig:"VERIFY_MAX_ATTEMPTS" default:"2"`
	PersonaInstructions string `envconfig:"PERSONA_INSTRUCTIONS" default:"You are a helpful insurance support assistant. Reply in Hinglish (Hindi + English mix) with a natural, friendly tone. Use small fillers like 'haan', 'hmm', 'theek hai', 'acha' to sound human. If the user's question is unclear or incomplete, ask a brief clarifying question."`
	FallbackResponse    string `envconfig:"FALLBACK_RESPONSE" default:"Haan, main help kar sakta hoon. Thoda aur detail share karoge?"`
	WelcomePrompt       string `envconfig:"WELCOME_PROMPT" default:"Welcome. Please tell me your mobile number."`

	// Data sources
	FAQPath   string `envconfig:"FAQ_PATH" default:"data/faq.json"`
	UsersPath string `envconfig:"USERS_PATH" default:"data/users.json"`

	// Deepgram STT API configuration
	DeepgramAPIKey   string `envconfig:"DEEPGRAM_API_KEY" default:""`
	DeepgramModel    string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"`
	DeepgramLanguage string `envconfig:"DEEPGRAM_LANGUAGE" default:"en"`

	// Cartesia TTS API configuration
	CartesiaAPIKey  string `envconfig:"CARTESIA_API_KEY" default:""`
	CartesiaVoiceID string `envconfig:"CARTESIA_VOICE_ID" default:"sonic-english"`
	CartesiaModelID string `envconfig:"CARTESIA_MODEL_ID" default:"sonic"`

	// Gemini responder configuration
	GeminiAPIKey    string  `envconfig:"GEMINI_API_KEY" default:""`
	GeminiBaseURL   string  `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`
	GeminiModel     string  `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	GeminiTimeout   int     `envconfig:"GEMINI_TIMEOUT_SEC" default:"30"` // seconds
	GeminiTemp      float64 `envconfig:"GEMINI_TEMPERATURE" default:"0.4"`
	GeminiMaxTokens int     `envconfig:"GEMINI_MAX_TOKENS" default:"256"`

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // seconds
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"` // milliseconds

	// Mic queue
	MicReadTimeoutSec float64 `envconfig:"MIC_READ_TIMEOUT_SEC" default:"1.0"` // Bounded wait; a miss is "no data", not an error
	MicQueueDepth     int     `envconfig:"MIC_QUEUE_DEPTH" default:"100"`

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load reads configuration from environment variables.
// It first attempts to load a .env file if one exists, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load a .env file (useful for containerized deployments).
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("SAMPLE_RATE must be positive")
	}
	if cfg.SilenceTimeoutSec <= 0 {
		return nil, fmt.Errorf("SILENCE_TIMEOUT_SEC must be positive")
	}
	if cfg.MaxUtteranceSec <= cfg.MinUtteranceSec {
		return nil, fmt.Errorf("MAX_UTTERANCE_SEC must exceed MIN_UTTERANCE_SEC")
	}

	return &cfg, nil
}

// WindowSamples returns the rolling classification window capacity in samples.
func (c *Config) WindowSamples() int {
	return int(float64(c.SampleRate) * c.VADWindowSec)
}

// MinWindowSamples returns the minimum samples required before classification.
func (c *Config) MinWindowSamples() int {
	return int(float64(c.SampleRate) * c.VADMinSec)
}

// MinUtteranceSamples returns the minimum sample count for a valid utterance.
func (c *Config) MinUtteranceSamples() int {
	return int(float64(c.SampleRate) * c.MinUtteranceSec)
}

// SilenceTimeout returns the trailing-silence duration that ends an utterance.
func (c *Config) SilenceTimeout() time.Duration {
	return time.Duration(c.SilenceTimeoutSec * float64(time.Second))
}

// MaxUtterance returns the hard utterance cutoff duration.
func (c *Config) MaxUtterance() time.Duration {
	return time.Duration(c.MaxUtteranceSec * float64(time.Second))
}

// BargeInMinDelay returns how long after speech start the monitor ignores audio.
func (c *Config) BargeInMinDelay() time.Duration {
	return time.Duration(c.BargeInMinDelaySec * float64(time.Second))
}

// SpeakingWindow returns the bounded barge-in watch duration.
func (c *Config) SpeakingWindow() time.Duration {
	return time.Duration(c.SpeakingWindowSec * float64(time.Second))
}

// MicReadTimeout returns the bounded mic read wait.
func (c *Config) MicReadTimeout() time.Duration {
	return time.Duration(c.MicReadTimeoutSec * float64(time.Second))
}

// NoisePhraseList returns the hallucination filter phrases, lowercased.
func (c *Config) NoisePhraseList() []string {
	return splitList(c.NoisePhrases, ",", true)
}

// FillerPhraseList returns the filler rotation. Fillers keep their original
// casing and trailing separator ("Hmm, ").
func (c *Config) FillerPhraseList() []string {
	return splitList(c.FillerPhrases, "|", false)
}

// SensitiveTermList returns the terms that suppress filler injection.
func (c *Config) SensitiveTermList() []string {
	return splitList(c.SensitiveTerms, ",", true)
}

func splitList(raw, sep string, fold bool) []string {
	parts := strings.Split(raw, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if fold {
			p = strings.ToLower(strings.TrimSpace(p))
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
