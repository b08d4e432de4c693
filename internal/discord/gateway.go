package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/0xtito/network-state-bot/internal/observability"
)

// Gateway opcodes.
const (
	opDispatch       = 0
	opHeartbeat      = 1
	opIdentify       = 2
	opReconnect      = 7
	opInvalidSession = 9
	opHello          = 10
	opHeartbeatACK   = 11
)

type gatewayPayload struct {
	Op       int             `json:"op"`
	Data     json.RawMessage `json:"d,omitempty"`
	Sequence *int64          `json:"s,omitempty"`
	Type     string          `json:"t,omitempty"`
}

type helloData struct {
	HeartbeatInterval int `json:"heartbeat_interval"`
}

type identifyData struct {
	Token      string             `json:"token"`
	Intents    int                `json:"intents"`
	Properties identifyProperties `json:"properties"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

type readyData struct {
	User User `json:"user"`
}

// MessageCreateHandler receives every MESSAGE_CREATE dispatch. It is called
// from the session's read loop and must not block.
type MessageCreateHandler func(*Message)

// Session is a Discord gateway connection: it identifies with the bot token,
// keeps the heartbeat alive and dispatches MESSAGE_CREATE events to the
// registered handler.
type Session struct {
	rest    *Client
	token   string
	intents int

	gatewayURL string

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	seq     atomic.Int64
	done    chan struct{}

	onMessageCreate MessageCreateHandler
}

// NewSession builds a gateway session on top of the REST client.
func NewSession(rest *Client, token string) *Session {
	return &Session{
		rest:    rest,
		token:   token,
		intents: IntentGuilds | IntentGuildMessages | IntentMessageContent,
	}
}

// WithGatewayURL pins the websocket URL instead of discovering it via REST,
// used by tests.
func (s *Session) WithGatewayURL(url string) *Session {
	s.gatewayURL = url
	return s
}

// HandleMessageCreate registers the MESSAGE_CREATE handler. Must be called
// before Open.
func (s *Session) HandleMessageCreate(h MessageCreateHandler) {
	s.onMessageCreate = h
}

// Open connects to the gateway, identifies and starts the read and
// heartbeat loops. It returns once the connection is established.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return errors.New("gateway session already open")
	}

	gatewayURL := s.gatewayURL
	if gatewayURL == "" {
		discovered, err := s.rest.GatewayBot(ctx)
		if err != nil {
			return fmt.Errorf("discover gateway: %w", err)
		}
		gatewayURL = discovered + "/?v=10&encoding=json"
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, gatewayURL, nil)
	if err != nil {
		return fmt.Errorf("dial gateway: %w", err)
	}

	// The first payload must be HELLO with the heartbeat interval.
	var hello gatewayPayload
	if err := conn.ReadJSON(&hello); err != nil {
		conn.Close()
		return fmt.Errorf("read hello: %w", err)
	}
	if hello.Op != opHello {
		conn.Close()
		return fmt.Errorf("expected hello opcode, got %d", hello.Op)
	}
	var helloPayload helloData
	if err := json.Unmarshal(hello.Data, &helloPayload); err != nil {
		conn.Close()
		return fmt.Errorf("decode hello: %w", err)
	}

	s.conn = conn
	s.done = make(chan struct{})

	if err := s.sendIdentify(); err != nil {
		s.closeLocked()
		return fmt.Errorf("identify: %w", err)
	}

	go s.heartbeatLoop(s.done, time.Duration(helloPayload.HeartbeatInterval)*time.Millisecond)
	go s.readLoop(conn, s.done)

	return nil
}

// Close stops the loops and closes the socket.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
	return nil
}

func (s *Session) closeLocked() {
	if s.conn == nil {
		return
	}
	close(s.done)
	s.writeMu.Lock()
	s.conn.Close()
	s.conn = nil
	s.writeMu.Unlock()
}

func (s *Session) sendIdentify() error {
	data, err := json.Marshal(identifyData{
		Token:   s.token,
		Intents: s.intents,
		Properties: identifyProperties{
			OS:      "linux",
			Browser: "network-state-bot",
			Device:  "network-state-bot",
		},
	})
	if err != nil {
		return err
	}
	return s.send(gatewayPayload{Op: opIdentify, Data: data})
}

func (s *Session) send(p gatewayPayload) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.conn == nil {
		return errors.New("gateway connection closed")
	}
	return s.conn.WriteJSON(p)
}

func (s *Session) sendHeartbeat() {
	seq := s.seq.Load()
	data, _ := json.Marshal(seq)
	if err := s.send(gatewayPayload{Op: opHeartbeat, Data: data}); err != nil {
		log.Printf("gateway heartbeat failed: %v", err)
	}
}

func (s *Session) heartbeatLoop(done chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.sendHeartbeat()
		}
	}
}

func (s *Session) readLoop(conn *websocket.Conn, done chan struct{}) {
	for {
		var payload gatewayPayload
		if err := conn.ReadJSON(&payload); err != nil {
			select {
			case <-done:
			default:
				log.Printf("gateway read error: %v", err)
				s.reconnect()
			}
			return
		}

		if payload.Sequence != nil {
			s.seq.Store(*payload.Sequence)
		}

		switch payload.Op {
		case opDispatch:
			s.handleDispatch(payload)
		case opHeartbeat:
			s.sendHeartbeat()
		case opHeartbeatACK:
			// nothing to do
		case opReconnect, opInvalidSession:
			log.Printf("gateway requested reconnect (op=%d)", payload.Op)
			s.reconnect()
			return
		}
	}
}

func (s *Session) handleDispatch(payload gatewayPayload) {
	observability.IncGatewayEvent(payload.Type)

	switch payload.Type {
	case "READY":
		var ready readyData
		if err := json.Unmarshal(payload.Data, &ready); err != nil {
			log.Printf("gateway ready decode failed: %v", err)
			return
		}
		log.Printf("logged in as %s", ready.User.Tag())
	case "MESSAGE_CREATE":
		if s.onMessageCreate == nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(payload.Data, &msg); err != nil {
			log.Printf("gateway message decode failed: %v", err)
			return
		}
		s.onMessageCreate(&msg)
	}
}

// reconnect tears the connection down and re-identifies with a fresh
// session. Resume is not implemented; dropped dispatches during the gap are
// accepted, matching the fire-and-forget delivery model.
func (s *Session) reconnect() {
	s.mu.Lock()
	s.closeLocked()
	s.mu.Unlock()

	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := s.Open(ctx)
		cancel()
		if err == nil {
			log.Printf("gateway reconnected after %d attempt(s)", attempt)
			return
		}
		log.Printf("gateway reconnect failed (attempt %d): %v", attempt, err)
		time.Sleep(time.Duration(attempt) * time.Second)
		if attempt >= 10 {
			log.Printf("gateway giving up after %d attempts", attempt)
			return
		}
	}
}
