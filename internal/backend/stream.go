package backend

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Stream consumes the backend's WebSocket event feed (bot lifecycle changes,
// errors, log lines) and forwards events to a callback. It reconnects on
// drop until stopped.
type Stream struct {
	url  string
	conn *websocket.Conn

	onEvent func(Event)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewStream creates an event stream client for the given WebSocket URL
func NewStream(wsURL string) *Stream {
	return &Stream{
		url:    wsURL,
		stopCh: make(chan struct{}),
	}
}

// SetEventCallback sets the callback invoked for each backend event
func (s *Stream) SetEventCallback(cb func(Event)) {
	s.onEvent = cb
}

// Start connects and begins streaming events
func (s *Stream) Start() {
	s.running = true
	go s.run()

	log.Info().Str("url", s.url).Msg("📡 Backend event stream started")
}

// Stop closes the stream
func (s *Stream) Stop() {
	s.running = false
	close(s.stopCh)

	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.mu.Unlock()
}

func (s *Stream) run() {
	for s.running {
		if err := s.connect(); err != nil {
			log.Error().Err(err).Msg("Event stream connection failed")
			time.Sleep(5 * time.Second)
			continue
		}

		s.readMessages()

		if s.running {
			log.Warn().Msg("Event stream disconnected, reconnecting...")
			time.Sleep(1 * time.Second)
		}
	}
}

func (s *Stream) connect() error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.Dial(s.url, nil)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	return nil
}

func (s *Stream) readMessages() {
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		_, message, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var event Event
		if err := json.Unmarshal(message, &event); err != nil {
			log.Debug().Err(err).Msg("Malformed stream event, skipped")
			continue
		}

		if s.onEvent != nil {
			s.onEvent(event)
		}
	}
}
