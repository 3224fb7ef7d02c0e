package channel

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSConfig holds configuration for the NATS push transport.
type NATSConfig struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns default NATS transport configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Name:          "salapix-room-watcher",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// NATSTransport receives room events published on "<channel>.<event>" subjects.
type NATSTransport struct {
	nc *nats.Conn
}

// NewNATSTransport connects to NATS.
func NewNATSTransport(cfg NATSConfig) (*NATSTransport, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSTransport{nc: nc}, nil
}

// Subject is the NATS subject an event for channel is published on.
func Subject(channel string, event EventType) string {
	return channel + "." + string(event)
}

func eventFromSubject(subject string) string {
	if i := strings.LastIndexByte(subject, '.'); i >= 0 {
		return subject[i+1:]
	}
	return subject
}

func (t *NATSTransport) Subscribe(channel string, deliver DeliverFunc) (func(), error) {
	if t.nc == nil || t.nc.IsClosed() {
		return nil, ErrTransportClosed
	}
	sub, err := t.nc.Subscribe(channel+".*", func(msg *nats.Msg) {
		deliver(eventFromSubject(msg.Subject), msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := sub.Unsubscribe(); err != nil {
				log.Debug().Err(err).Str("channel", channel).Msg("NATS unsubscribe failed")
			}
		})
	}, nil
}

// Close drains and closes the NATS connection.
func (t *NATSTransport) Close() {
	if t.nc == nil {
		return
	}
	if err := t.nc.Drain(); err != nil {
		log.Debug().Err(err).Msg("NATS drain failed")
		t.nc.Close()
	}
}
