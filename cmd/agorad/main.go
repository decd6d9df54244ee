package main

import (
	"context"
	"os"
	"time"

	"github.com/openagora/agora/api"
	"github.com/openagora/agora/api/handlers"
	"github.com/openagora/agora/config"
	"github.com/openagora/agora/engine"
	"github.com/openagora/agora/events"
	"github.com/openagora/agora/llm"
	"github.com/openagora/agora/secrets"
	"github.com/openagora/agora/storage"
	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	storeCfg := storage.DefaultConfig(cfg.DataDir)
	storeCfg.InMemory = cfg.InMemory
	store, err := storage.Open(storeCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer store.Close()

	llm.RegisterDefaults()

	resolver, err := secrets.NewResolver(cfg.MasterKey)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid master key")
	}
	eng := engine.NewEngine(store, resolver, log)
	eng.SetCycleTimeout(cfg.CycleTimeout)
	eng.Gate().SetCooldown(cfg.WakeCooldown)

	var messenger *events.Messenger
	if cfg.NATSURL != "" {
		messenger, err = events.NewMessenger(cfg.NATSURL)
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.NATSURL).Msg("failed to connect to NATS")
		}
		defer messenger.Close()
	}
	eng.SetEventSink(events.NewEngineSink(messenger, log))

	scheduler := engine.NewScheduler(eng, store, log)
	if cfg.SchedulerEnabled {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go scheduler.Run(ctx, cfg.SchedulerInterval)
		log.Info().Dur("interval", cfg.SchedulerInterval).Msg("scheduler started")
	}

	h := &handlers.Handler{
		Engine:    eng,
		Scheduler: scheduler,
		Store:     store,
		MasterKey: cfg.MasterKey,
		Log:       log,
	}

	log.Info().Int("port", cfg.Port).Msg("starting API server")
	if err := api.StartServer(h, cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
