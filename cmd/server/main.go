package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/christophecraig/coinchette/internal/config"
	"github.com/christophecraig/coinchette/internal/eventlog"
	"github.com/christophecraig/coinchette/internal/logging"
	"github.com/christophecraig/coinchette/internal/publish"
	"github.com/christophecraig/coinchette/internal/room"
	"github.com/christophecraig/coinchette/internal/server"
)

var mainLogger = logging.GetZeroLogger("main", nil)

var (
	configFile = flag.String("config", "", "YAML config file; overrides COINCHETTE_CONFIG")
	webDist    = flag.String("web", "web/dist", "Directory with the web client build")
)

func main() {
	flag.Parse()

	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		mainLogger.Warn().Err(err).Msg("Could not read .env")
	}

	path := *configFile
	if path == "" {
		path = os.Getenv(config.EnvConfigFile)
	}
	cfg, err := config.Load(path)
	if err != nil {
		mainLogger.Fatal().Err(err).Msg("Invalid configuration")
	}
	level := logging.SetGlobalLevel(cfg.Server.LogLevel)
	if level > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	mainLogger.Info().Str("level", level.String()).Msg("Configuration loaded")

	opts := room.Options{
		Rules:            cfg.EngineRules(),
		CodeLength:       cfg.Room.CodeLength,
		IdleTimeout:      cfg.Room.IdleTimeout,
		TurnTimeout:      cfg.Room.TurnTimeout,
		BotDelay:         cfg.Room.BotDelay,
		ChatPerSecond:    cfg.Room.ChatPerSecond,
		ChatBurst:        cfg.Room.ChatBurst,
		ChatMaxLength:    cfg.Room.ChatMaxLength,
		SubscriberBuffer: cfg.Room.SubscriberBuffer,
		ActionCacheSize:  cfg.Room.ActionCacheSize,
	}

	if cfg.Server.NatsURL != "" {
		pub, err := publish.Connect(cfg.Server.NatsURL)
		if err != nil {
			mainLogger.Error().Err(err).Msg("Running without NATS")
		} else {
			defer pub.Close()
			opts.Sinks = append(opts.Sinks, pub)
		}
	}

	if cfg.Server.RedisAddr != "" {
		store := eventlog.NewRedisStore(cfg.Server.RedisAddr, cfg.Server.RedisDB, cfg.Server.EventLogTTL)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := store.Ping(ctx)
		cancel()
		if err != nil {
			mainLogger.Error().Err(err).Msgf("Redis at %s is not reachable; event log disabled", cfg.Server.RedisAddr)
			store.Close()
		} else {
			defer store.Close()
			opts.Sinks = append(opts.Sinks, eventlog.NewRecorder(store))
			mainLogger.Info().Msgf("Recording games to Redis at %s", cfg.Server.RedisAddr)
		}
	}

	reg := room.NewRegistry(opts)
	srv := server.New(reg, staticDir(*webDist))
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Handler(),
	}

	go func() {
		mainLogger.Info().Msgf("Listening on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			mainLogger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	mainLogger.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		mainLogger.Error().Err(err).Msg("HTTP shutdown")
	}
	srv.Shutdown(ctx)
}

func staticDir(dir string) string {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		mainLogger.Warn().Msgf("No web client at %s", dir)
		return ""
	}
	return dir
}
