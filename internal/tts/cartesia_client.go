package tts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/voiceloop/turn-engine/internal/config"
)

// playChunkBytes is the PCM slice size streamed to the player per write;
// small enough that Stop takes effect within ~100ms of audio.
const playChunkBytes = 3200

// CartesiaClient implements Synthesizer using Cartesia's TTS API. Synthesis
// runs on its own goroutine, streaming decoded PCM to the injected player.
type CartesiaClient struct {
	config     *config.Config
	apiKey     string
	apiURL     string
	voiceID    string
	httpClient *http.Client
	player     Player
	log        zerolog.Logger

	mu       sync.Mutex
	isActive bool
	stop     chan struct{}

	// playMu serializes writes to the player so Stop can wait out an
	// in-flight write before returning.
	playMu sync.Mutex
}

// CartesiaRequest represents the request payload for the Cartesia TTS API.
type CartesiaRequest struct {
	Text         string  `json:"text"`
	VoiceID      string  `json:"voice_id"`
	ModelID      string  `json:"model_id,omitempty"`
	OutputFormat string  `json:"output_format,omitempty"`
	SampleRate   int     `json:"sample_rate,omitempty"`
	Speed        float64 `json:"speed,omitempty"`
}

// NewCartesiaClient creates a Cartesia TTS client playing through player.
func NewCartesiaClient(cfg *config.Config, player Player, log zerolog.Logger) *CartesiaClient {
	return &CartesiaClient{
		config:     cfg,
		apiKey:     cfg.CartesiaAPIKey,
		apiURL:     "https://api.cartesia.ai/v1/tts",
		voiceID:    cfg.CartesiaVoiceID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		player:     player,
		log:        log,
	}
}

// Speak starts synthesis and playback of text.
func (c *CartesiaClient) Speak(text string) (*Playback, error) {
	c.mu.Lock()
	if c.isActive {
		c.mu.Unlock()
		return nil, fmt.Errorf("cartesia client is already synthesizing")
	}
	c.isActive = true
	c.stop = make(chan struct{})
	stop := c.stop
	c.mu.Unlock()

	reqBody := CartesiaRequest{
		Text:         text,
		VoiceID:      c.voiceID,
		ModelID:      c.config.CartesiaModelID,
		OutputFormat: "pcm",
		SampleRate:   c.config.SampleRate,
		Speed:        1.0,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		c.finish()
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		c.finish()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.finish()
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		c.finish()
		return nil, fmt.Errorf("cartesia API returned status %d", resp.StatusCode)
	}

	started := make(chan time.Time, 1)
	done := make(chan struct{})

	go func() {
		defer func() {
			resp.Body.Close()
			close(started)
			close(done)
			c.finish()
		}()

		buf := make([]byte, playChunkBytes)
		first := true
		for {
			n, readErr := io.ReadFull(resp.Body, buf)
			if n > 0 {
				c.playMu.Lock()
				select {
				case <-stop:
					// Stop won the race; drop the chunk without writing.
					c.playMu.Unlock()
					return
				default:
				}
				if first {
					started <- time.Now()
					first = false
				}
				playErr := c.player.Play(buf[:n])
				c.playMu.Unlock()
				if playErr != nil {
					c.log.Error().Err(playErr).Msg("playback write failed")
					return
				}
			}
			if readErr != nil {
				if readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
					c.log.Error().Err(readErr).Msg("error reading cartesia audio response")
				}
				return
			}
		}
	}()

	return &Playback{Started: started, Done: done}, nil
}

// Stop cancels any ongoing synthesis. It returns only after any player
// write already in flight has completed, so no audio is emitted once it
// returns. Idempotent.
func (c *CartesiaClient) Stop() error {
	c.mu.Lock()
	if !c.isActive {
		c.mu.Unlock()
		return nil
	}

	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
	c.isActive = false
	c.mu.Unlock()

	// Synthesis checks the stop channel under playMu before every write,
	// so once we hold the lock no further write can start.
	c.playMu.Lock()
	c.playMu.Unlock()
	return nil
}

// IsActive returns whether the client is currently synthesizing.
func (c *CartesiaClient) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isActive
}

// Close closes the client and cleans up resources.
func (c *CartesiaClient) Close() error {
	return c.Stop()
}

func (c *CartesiaClient) finish() {
	c.mu.Lock()
	c.isActive = false
	c.mu.Unlock()
}
