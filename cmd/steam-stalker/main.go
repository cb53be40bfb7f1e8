package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/bwmarrin/discordgo"

	"github.com/sglre6355/steam-stalker/internal/infrastructure"
	"github.com/sglre6355/steam-stalker/internal/infrastructure/database"
	"github.com/sglre6355/steam-stalker/internal/infrastructure/filestore"
	"github.com/sglre6355/steam-stalker/internal/infrastructure/steam"
	"github.com/sglre6355/steam-stalker/internal/presentation"
	"github.com/sglre6355/steam-stalker/internal/usecase"
)

func run() int {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		return 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.slogLevel()}))
	slog.SetDefault(logger)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		slog.Error("failed to open state store", slog.Any("error", err))
		return 1
	}
	defer closeStore()

	registry := usecase.NewGuildRegistry(store)
	if err := registry.LoadExisting(context.Background()); err != nil {
		slog.Error("failed to restore tracked guilds", slog.Any("error", err))
		return 1
	}

	steamClient, err := steam.NewClient(
		cfg.SteamAPIKey,
		steam.WithBaseURL(cfg.SteamAPIBaseURL),
		steam.WithTimeout(cfg.SteamHTTPTimeout),
	)
	if err != nil {
		slog.Error("failed to create steam client", slog.Any("error", err))
		return 1
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		slog.Error("failed to create Discord session", slog.Any("error", err))
		return 1
	}

	publisher := presentation.NewDiscordCardPublisher(session, logger)
	engine := usecase.NewUpdateEngine(registry, steamClient, publisher, usecase.WithEngineLogger(logger))

	scheduler, err := usecase.NewPollScheduler(
		engine.RunUpdate,
		usecase.WithDefaultInterval(cfg.DefaultUpdateInterval),
		usecase.WithSchedulerLogger(logger),
	)
	if err != nil {
		slog.Error("failed to create scheduler", slog.Any("error", err))
		return 1
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			slog.Error("failed to stop scheduler", slog.Any("error", err))
		}
	}()

	var health *infrastructure.HealthServer
	if cfg.HealthAddress != "" {
		health, err = infrastructure.NewHealthServer(cfg.HealthAddress)
		if err != nil {
			slog.Error("failed to create health server", slog.Any("error", err))
			return 1
		}
		go func() {
			if err := health.Serve(); err != nil {
				slog.Error("health server failed", slog.Any("error", err))
			}
		}()
		defer health.Stop()
		slog.Info("health server listening", slog.String("address", health.Addr().String()))
	}

	statusSetter := presentation.NewDiscordStatusSetter(session)
	rotator := usecase.NewStatusRotator(statusSetter, func() []string {
		return usecase.StatusLabels(registry.TrackedCount(), statusSetter.GuildCount())
	}, logger)

	tracking := usecase.NewTrackingService(registry, engine, scheduler, logger)

	// Resuming and the presence rotation need the gateway, so both wait for Ready.
	// Ready fires again after a reconnect; Resume and Every are only applied once.
	var resumeOnce sync.Once
	onReady := func() {
		if health != nil {
			health.SetServing(true)
		}
		resumeOnce.Do(func() {
			if err := scheduler.Every("status-rotation", cfg.StatusRotationInterval, rotator.Rotate); err != nil {
				slog.Error("failed to schedule status rotation", slog.Any("error", err))
			}
			if err := scheduler.Resume(registry.GuildIDs()); err != nil {
				slog.Error("failed to resume tracked guilds", slog.Any("error", err))
			}
		})
	}

	bot, err := presentation.NewStalkerBot(
		session,
		tracking,
		presentation.WithBotLogger(logger),
		presentation.WithReadyHook(onReady),
	)
	if err != nil {
		slog.Error("failed to create bot", slog.Any("error", err))
		return 1
	}

	if err := bot.Start(); err != nil {
		bot.Stop()
		slog.Error("failed to start bot", slog.Any("error", err))
		return 1
	}
	defer bot.Stop()

	if err := bot.RegisterCommands(); err != nil {
		slog.Error("failed to register commands", slog.Any("error", err))
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("Termination signal received, shutting down...")
	if health != nil {
		health.SetServing(false)
	}

	return 0
}

// openStore picks the SQL store when DATABASE_DSN is set, the JSON file otherwise.
func openStore(cfg config) (usecase.GuildStateStore, func(), error) {
	if cfg.DatabaseDSN == "" {
		store, err := filestore.NewJSONStore(cfg.DataFile)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using state file", slog.String("path", store.Path()))
		return store, func() {}, nil
	}

	db, err := database.Open(cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("failed to close database connection", slog.Any("error", err))
		}
	}

	store := database.NewGuildStateStore(db)
	if err := store.AutoMigrate(context.Background()); err != nil {
		closeDB()
		return nil, nil, err
	}
	slog.Info("using database state store")
	return store, closeDB, nil
}

func main() {
	os.Exit(run())
}
