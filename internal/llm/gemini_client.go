package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/voiceloop/turn-engine/internal/config"
	"github.com/voiceloop/turn-engine/internal/observability"
	"github.com/voiceloop/turn-engine/internal/resilience"
)

// GeminiClient implements Responder against the Gemini generateContent API.
type GeminiClient struct {
	config         *config.Config
	baseURL        string
	httpClient     *http.Client
	circuitBreaker *resilience.CircuitBreaker
	log            zerolog.Logger
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// NewGeminiClient creates a Gemini responder client.
func NewGeminiClient(cfg *config.Config, log zerolog.Logger) *GeminiClient {
	return &GeminiClient{
		config:  cfg,
		baseURL: strings.TrimRight(cfg.GeminiBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.GeminiTimeout) * time.Second,
		},
		circuitBreaker: resilience.NewCircuitBreaker(
			"gemini",
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
		log: log,
	}
}

// Generate produces a reply for userText under systemText persona
// instructions. A missing API key or any terminal failure returns an empty
// string without an error; the caller's local fallback covers it.
func (g *GeminiClient) Generate(ctx context.Context, userText, systemText string) (string, error) {
	if g.config.GeminiAPIKey == "" {
		g.log.Warn().Msg("missing GEMINI_API_KEY, skipping responder call")
		return "", nil
	}

	payload := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: userText}}},
		},
		GenerationConfig: &generationConfig{
			Temperature:     g.config.GeminiTemp,
			MaxOutputTokens: g.config.GeminiMaxTokens,
		},
	}
	if systemText != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemText}}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.config.GeminiModel)

	retryConfig := &resilience.RetryConfig{
		MaxAttempts:       g.config.RetryMaxAttempts,
		InitialBackoff:    time.Duration(g.config.RetryInitialBackoff) * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}

	var text string
	err = g.circuitBreaker.Call(func() error {
		return resilience.Retry(func() error {
			var reqErr error
			text, reqErr = g.doRequest(ctx, url, body)
			return reqErr
		}, retryConfig, resilience.IsRetryableNetworkError)
	})

	observability.UpdateCircuitBreakerState("gemini", int(g.circuitBreaker.GetState()))
	if err != nil {
		observability.IncrementCircuitBreakerFailures("gemini")
		g.log.Warn().Err(err).Msg("responder call failed")
		return "", nil
	}

	return text, nil
}

func (g *GeminiClient) doRequest(ctx context.Context, url string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.config.GeminiAPIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read gemini response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &resilience.HTTPStatusError{Service: "gemini", Code: resp.StatusCode}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}

	return strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text), nil
}
