package session

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/voiceloop/turn-engine/internal/audio"
	"github.com/voiceloop/turn-engine/internal/config"
	"github.com/voiceloop/turn-engine/internal/dialog"
	"github.com/voiceloop/turn-engine/internal/faq"
	"github.com/voiceloop/turn-engine/internal/llm"
	"github.com/voiceloop/turn-engine/internal/mic"
	"github.com/voiceloop/turn-engine/internal/observability"
	"github.com/voiceloop/turn-engine/internal/stt"
	"github.com/voiceloop/turn-engine/internal/tts"
	"github.com/voiceloop/turn-engine/internal/verify"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// In production, validate origin against known client hosts
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Session binds one WebSocket connection to one conversation. Inbound binary
// frames carry 16-bit little-endian PCM from the caller's microphone;
// outbound binary frames carry the agent's synthesized PCM at the same rate.
type Session struct {
	conn      *websocket.Conn
	sessionID string

	cfg        *config.Config
	micSource  *mic.QueueSource
	controller *dialog.Controller

	transcriber stt.Transcriber
	synthesizer tts.Synthesizer

	metrics *observability.SessionMetrics
	logger  zerolog.Logger

	writeMu  sync.Mutex
	mu       sync.RWMutex
	isActive bool
}

// wsPlayer writes synthesized PCM back to the caller as binary frames.
// gorilla/websocket permits one concurrent writer, hence the shared lock.
type wsPlayer struct {
	s *Session
}

func (p *wsPlayer) Play(pcm []byte) error {
	p.s.writeMu.Lock()
	defer p.s.writeMu.Unlock()
	return p.s.conn.WriteMessage(websocket.BinaryMessage, pcm)
}

// New assembles a session and its per-connection clients.
func New(conn *websocket.Conn, cfg *config.Config, faqStore *faq.Store, users *verify.Directory) *Session {
	sessionID := observability.NewSessionID()
	logger := observability.SessionLogger(sessionID)

	s := &Session{
		conn:      conn,
		sessionID: sessionID,
		cfg:       cfg,
		micSource: mic.NewQueueSource(cfg.MicQueueDepth),
		metrics:   observability.NewSessionMetrics(sessionID),
		logger:    logger,
		isActive:  true,
	}

	s.transcriber = stt.NewDeepgramClient(cfg)
	s.synthesizer = tts.NewCartesiaClient(cfg, &wsPlayer{s: s}, logger)

	newClassifier := func() audio.Classifier {
		return audio.NewEnergyClassifier(cfg.StartRMS)
	}
	s.controller = dialog.NewController(cfg, newClassifier, dialog.Collaborators{
		Mic:         s.micSource,
		Transcriber: s.transcriber,
		Synthesizer: s.synthesizer,
		Responder:   llm.NewGeminiClient(cfg, logger),
		FAQ:         faqStore,
		Users:       users,
	}, s.metrics, logger)

	return s
}

// ID returns the session correlation id.
func (s *Session) ID() string {
	return s.sessionID
}

// Run pumps the connection until the client disconnects or ctx is cancelled.
func (s *Session) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.cleanup()

	s.logger.Info().Msg("session started")

	go s.readLoop(cancel)

	if err := s.controller.Run(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error().Err(err).Msg("conversation loop failed")
		s.metrics.RecordError("controller_error", "dialog")
	}
}

// readLoop feeds inbound audio frames into the mic queue.
func (s *Session) readLoop(cancel context.CancelFunc) {
	defer cancel()

	for {
		s.mu.RLock()
		active := s.isActive
		s.mu.RUnlock()
		if !active {
			return
		}

		msgType, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Msg("websocket read error")
			}
			s.mu.Lock()
			s.isActive = false
			s.mu.Unlock()
			return
		}

		if msgType != websocket.BinaryMessage {
			// Only audio frames are expected; anything else is ignored.
			s.logger.Debug().Int("type", msgType).Msg("ignoring non-binary frame")
			continue
		}

		samples := audio.DecodePCM16(payload)
		if len(samples) == 0 {
			continue
		}
		if !s.micSource.Push(audio.Chunk{Samples: samples}) {
			s.logger.Warn().Msg("mic queue full, dropping audio frame")
		}
	}
}

func (s *Session) cleanup() {
	s.mu.Lock()
	s.isActive = false
	s.mu.Unlock()

	if err := s.synthesizer.Close(); err != nil {
		s.logger.Error().Err(err).Msg("error closing synthesizer")
	}
	if err := s.transcriber.Close(); err != nil {
		s.logger.Error().Err(err).Msg("error closing transcriber")
	}
	s.metrics.RecordSessionEnd()
	s.logger.Info().Msg("session ended")
}

// Handler upgrades /session requests and runs one conversation per connection.
func Handler(cfg *config.Config, faqStore *faq.Store, users *verify.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger := observability.GetLogger()
			logger.Error().Err(err).Msg("websocket upgrade failed")
			return
		}
		defer conn.Close()

		sess := New(conn, cfg, faqStore, users)
		sess.Run(r.Context())
	}
}
