package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/salapix/go/internal/config"
	"github.com/mcdev12/salapix/go/internal/room/channel"
)

// setupTransport builds the push transport named by the configuration. A nil
// transport is valid: rooms then run on the REST snapshot alone.
func setupTransport(ctx context.Context, cfg *config.Config) (channel.Transport, func(), error) {
	switch cfg.Transport {
	case config.TransportPusher:
		t := channel.NewPusherTransport(cfg.PusherConfig())
		go func() {
			if err := t.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Str("url", t.URL()).Msg("pusher transport stopped")
			}
		}()
		log.Info().Str("url", t.URL()).Msg("pusher transport started")
		return t, t.Close, nil

	case config.TransportNATS:
		t, err := channel.NewNATSTransport(cfg.NATSConfig())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info().Str("url", cfg.NATSURL).Msg("connected to NATS")
		return t, t.Close, nil

	case config.TransportNone:
		log.Warn().Msg("no push transport configured, live updates disabled")
		return nil, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}
