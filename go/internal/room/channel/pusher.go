package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	pusherProtocolVersion = "7"
	pusherClientName      = "salapix-go"
	pusherClientVersion   = "1.0.0"
)

// PusherConfig holds settings for a Pusher-protocol websocket server such as
// Laravel Reverb or Soketi.
type PusherConfig struct {
	Key              string
	Host             string
	Port             int
	TLSPort          int
	ForceTLS         bool
	ActivityTimeout  time.Duration // client ping after this much silence
	PongTimeout      time.Duration
	WriteTimeout     time.Duration
	HandshakeTimeout time.Duration
	ReconnectWait    time.Duration
	MaxReconnects    int // -1 for unlimited
}

// DefaultPusherConfig returns the Pusher client defaults.
func DefaultPusherConfig() PusherConfig {
	return PusherConfig{
		Host:             "localhost",
		Port:             8080,
		TLSPort:          443,
		ActivityTimeout:  120 * time.Second,
		PongTimeout:      30 * time.Second,
		WriteTimeout:     10 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		ReconnectWait:    2 * time.Second,
		MaxReconnects:    -1,
	}
}

type pusherFrame struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type pusherChannelData struct {
	Channel string `json:"channel"`
}

type pusherEstablished struct {
	SocketID        string `json:"socket_id"`
	ActivityTimeout int    `json:"activity_timeout"`
}

// PusherTransport multiplexes room channels over one Pusher websocket. It
// reconnects after a lost connection and resubscribes every channel, so
// handlers can see the same event more than once.
type PusherTransport struct {
	cfg    PusherConfig
	dialer *websocket.Dialer

	mu       sync.Mutex
	conn     *websocket.Conn
	ready    bool
	socketID string
	channels map[string]map[uint64]DeliverFunc
	nextID   uint64
	closed   bool

	writeMu sync.Mutex
}

// NewPusherTransport creates a transport. Call Run to connect.
func NewPusherTransport(cfg PusherConfig) *PusherTransport {
	return &PusherTransport{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		channels: make(map[string]map[uint64]DeliverFunc),
	}
}

// URL returns the websocket endpoint for the configured app key.
func (p *PusherTransport) URL() string {
	scheme, port := "ws", p.cfg.Port
	if p.cfg.ForceTLS {
		scheme, port = "wss", p.cfg.TLSPort
	}
	host := p.cfg.Host
	if port > 0 {
		host = net.JoinHostPort(host, strconv.Itoa(port))
	}

	q := url.Values{}
	q.Set("protocol", pusherProtocolVersion)
	q.Set("client", pusherClientName)
	q.Set("version", pusherClientVersion)
	q.Set("flash", "false")

	u := url.URL{Scheme: scheme, Host: host, Path: "/app/" + p.cfg.Key, RawQuery: q.Encode()}
	return u.String()
}

// Run keeps the connection up until ctx is cancelled or the reconnect budget
// is spent.
func (p *PusherTransport) Run(ctx context.Context) error {
	log.Info().Str("url", p.URL()).Msg("pusher transport started")

	attempts := 0
	for {
		established, err := p.session(ctx)
		if ctx.Err() != nil {
			log.Info().Msg("pusher transport shutting down")
			return nil
		}
		if established {
			attempts = 0
		}
		attempts++
		if p.cfg.MaxReconnects >= 0 && attempts > p.cfg.MaxReconnects {
			return fmt.Errorf("pusher: giving up after %d reconnect attempts: %w", attempts-1, err)
		}

		log.Warn().Err(err).Int("attempt", attempts).Dur("wait", p.cfg.ReconnectWait).Msg("pusher connection lost, reconnecting")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(p.cfg.ReconnectWait):
		}
	}
}

func (p *PusherTransport) session(ctx context.Context) (bool, error) {
	conn, _, err := p.dialer.DialContext(ctx, p.URL(), nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}

	p.mu.Lock()
	p.conn = conn
	p.mu.Unlock()

	stop := make(chan struct{})
	defer func() {
		close(stop)
		p.mu.Lock()
		p.conn = nil
		p.ready = false
		p.socketID = ""
		p.mu.Unlock()
		conn.Close()
	}()

	go func() {
		select {
		case <-ctx.Done():
			p.write(conn, websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
		case <-stop:
		}
	}()
	go p.keepalive(conn, stop)

	established := false
	readWindow := p.cfg.ActivityTimeout + p.cfg.PongTimeout
	conn.SetReadDeadline(time.Now().Add(readWindow))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return established, fmt.Errorf("read: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(readWindow))
		if p.handleFrame(conn, data) {
			established = true
		}
	}
}

func (p *PusherTransport) keepalive(conn *websocket.Conn, stop <-chan struct{}) {
	if p.cfg.ActivityTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(p.cfg.ActivityTimeout)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := p.send(conn, "pusher:ping", struct{}{}); err != nil {
				log.Debug().Err(err).Msg("pusher ping failed")
				return
			}
		}
	}
}

// handleFrame processes one server frame; it returns true when the frame
// established the connection.
func (p *PusherTransport) handleFrame(conn *websocket.Conn, raw []byte) bool {
	var f pusherFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		log.Warn().Err(err).Msg("undecodable pusher frame")
		return false
	}
	data := unwrapPusherData(f.Data)

	switch f.Event {
	case "pusher:connection_established":
		var est pusherEstablished
		if err := json.Unmarshal(data, &est); err != nil {
			log.Warn().Err(err).Msg("bad connection_established payload")
		}
		p.mu.Lock()
		p.ready = true
		p.socketID = est.SocketID
		channels := make([]string, 0, len(p.channels))
		for ch := range p.channels {
			channels = append(channels, ch)
		}
		p.mu.Unlock()

		log.Info().Str("socket_id", est.SocketID).Int("channels", len(channels)).Msg("pusher connection established")
		for _, ch := range channels {
			if err := p.send(conn, "pusher:subscribe", pusherChannelData{Channel: ch}); err != nil {
				log.Warn().Err(err).Str("channel", ch).Msg("resubscribe failed")
			}
		}
		return true

	case "pusher:ping":
		if err := p.send(conn, "pusher:pong", struct{}{}); err != nil {
			log.Debug().Err(err).Msg("pusher pong failed")
		}
	case "pusher:pong":
	case "pusher:error":
		log.Warn().RawJSON("data", data).Msg("pusher error frame")
	case "pusher_internal:subscription_succeeded":
		log.Debug().Str("channel", f.Channel).Msg("pusher subscription succeeded")
	default:
		if f.Channel == "" {
			log.Debug().Str("event", f.Event).Msg("pusher frame without channel, ignoring")
			return false
		}
		p.mu.Lock()
		targets := make([]DeliverFunc, 0, len(p.channels[f.Channel]))
		for _, d := range p.channels[f.Channel] {
			targets = append(targets, d)
		}
		p.mu.Unlock()
		for _, d := range targets {
			d(f.Event, data)
		}
	}
	return false
}

// unwrapPusherData returns the event body. Pusher servers send data as a
// JSON-encoded string; some send the object inline.
func unwrapPusherData(raw json.RawMessage) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return []byte(s)
		}
	}
	return trimmed
}

func (p *PusherTransport) send(conn *websocket.Conn, event string, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}
	frame, err := json.Marshal(pusherFrame{Event: event, Data: body})
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	return p.write(conn, websocket.TextMessage, frame)
}

func (p *PusherTransport) write(conn *websocket.Conn, messageType int, data []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(p.cfg.WriteTimeout))
	return conn.WriteMessage(messageType, data)
}

func (p *PusherTransport) Subscribe(channel string, deliver DeliverFunc) (func(), error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrTransportClosed
	}
	p.nextID++
	id := p.nextID
	if p.channels[channel] == nil {
		p.channels[channel] = make(map[uint64]DeliverFunc)
	}
	p.channels[channel][id] = deliver
	first := len(p.channels[channel]) == 1
	conn, ready := p.conn, p.ready
	p.mu.Unlock()

	if first && ready {
		if err := p.send(conn, "pusher:subscribe", pusherChannelData{Channel: channel}); err != nil {
			// The channel stays registered and is resubscribed on reconnect.
			log.Warn().Err(err).Str("channel", channel).Msg("pusher subscribe failed")
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { p.release(channel, id) })
	}, nil
}

func (p *PusherTransport) release(channel string, id uint64) {
	p.mu.Lock()
	subs, ok := p.channels[channel]
	if !ok {
		p.mu.Unlock()
		return
	}
	delete(subs, id)
	last := len(subs) == 0
	if last {
		delete(p.channels, channel)
	}
	conn, ready := p.conn, p.ready
	p.mu.Unlock()

	if last && ready {
		if err := p.send(conn, "pusher:unsubscribe", pusherChannelData{Channel: channel}); err != nil {
			log.Debug().Err(err).Str("channel", channel).Msg("pusher unsubscribe failed")
		}
	}
}

// Connected reports whether the server acknowledged the current connection.
func (p *PusherTransport) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

// Close rejects further subscriptions. Cancel Run's context to drop the connection.
func (p *PusherTransport) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}
