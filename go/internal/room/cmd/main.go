package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/salapix/go/clients/salapix_client"
	"github.com/mcdev12/salapix/go/internal/archive"
	"github.com/mcdev12/salapix/go/internal/config"
	"github.com/mcdev12/salapix/go/internal/pref"
	"github.com/mcdev12/salapix/go/internal/room/channel"
	"github.com/mcdev12/salapix/go/internal/room/chat"
	"github.com/mcdev12/salapix/go/internal/room/view"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(getEnv("ROOM_CONFIG", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	session, err := cfg.Session(uuid.New().String())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid session configuration")
	}

	log.Info().
		Str("api", cfg.APIBaseURL).
		Str("transport", cfg.Transport).
		Str("room_id", cfg.RoomID).
		Str("role", session.Role.String()).
		Str("instance_id", session.InstanceID).
		Msg("starting room watcher")

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport, closeTransport, err := setupTransport(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up push transport")
	}
	defer closeTransport()

	// One connection manager for the whole session
	manager := channel.NewManager(transport)

	var onResolved func(view.Resolution)
	if cfg.ArchiveEnabled {
		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("failed to ping database")
		}
		log.Info().Str("database", cfg.Database.Database).Msg("draw archive enabled")
		onResolved = archiveOutcome(archive.NewRepository(db), session.InstanceID)
	}

	roomView := view.New(view.Deps{
		API:        salapix_client.NewSalapixClient(cfg.APIBaseURL, cfg.AuthToken, session.UserID),
		Channels:   manager,
		Notifier:   chat.NewNotifier(setupChimer(cfg)),
		Mute:       setupMuteStore(cfg),
		Session:    session,
		Draw:       cfg.Draw,
		OnResolved: onResolved,
	})

	go func() {
		if err := roomView.Run(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("room view stopped")
		}
	}()

	if cfg.RoomID != "" {
		mountCtx, mountCancel := context.WithTimeout(ctx, 10*time.Second)
		if err := roomView.Mount(mountCtx, cfg.RoomID); err != nil {
			log.Error().Err(err).Str("room_id", cfg.RoomID).Msg("failed to mount room")
		}
		mountCancel()
	} else {
		log.Warn().Msg("ROOM_ID not set, waiting without a mounted room")
	}

	server := setupServer(cfg, roomView, manager)

	// Start HTTP server
	go func() {
		log.Info().Str("addr", server.Addr).Msg("status server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("status server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("status server shutdown failed")
	}
	if err := roomView.Unmount(shutdownCtx); err != nil {
		log.Debug().Err(err).Msg("unmount on shutdown")
	}

	// Cancel the root context to stop the view loop and transport
	cancel()

	log.Info().Msg("room watcher shutdown complete")
}

func archiveOutcome(repo *archive.Repository, sessionID string) func(view.Resolution) {
	return func(res view.Resolution) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_, err := repo.RecordOutcome(ctx, archive.OutcomeRecord{
			Room:         res.Room,
			WinnerName:   res.Outcome.WinnerName,
			Prize:        res.Prize,
			Participants: res.Participants,
			SessionID:    sessionID,
			ResolvedAt:   res.Outcome.ResolvedAt,
		})
		if err != nil {
			log.Error().Err(err).Str("room_id", res.RoomID).Msg("failed to archive draw outcome")
		}
	}
}

func setupMuteStore(cfg *config.Config) pref.Store {
	if cfg.MutePrefPath == "" {
		return &pref.MemoryStore{}
	}
	return pref.NewFileStore(cfg.MutePrefPath, nil)
}

func setupChimer(cfg *config.Config) chat.Chimer {
	bell := chat.NewBellChimer(os.Stderr)
	if cfg.ChimeCommand == "" {
		return bell
	}
	player, err := chat.ParseCommandPlayer(cfg.ChimeCommand)
	if err != nil {
		log.Warn().Err(err).Msg("invalid chime command, using terminal bell")
		return bell
	}
	return chat.NewToneChimer(chat.DefaultTone(), player, bell)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
