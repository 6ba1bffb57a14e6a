// Command server runs the room chat WebSocket server.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"github.com/Tyrowin/gochat-rooms/internal/chat"
	"github.com/Tyrowin/gochat-rooms/internal/journal"
	"github.com/Tyrowin/gochat-rooms/internal/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML configuration file")
	flag.Parse()

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	server.SetConfig(cfg)
	active := server.CurrentConfig()

	logger := server.NewLogger(active.Log.Level, active.Log.Format, os.Stdout)
	slog.SetDefault(logger)
	logger.Info("starting chat server", "port", active.Port, "origins", active.AllowedOrigins)

	opts := chat.Options{
		Logger:            logger,
		MaxNicknameLength: active.Rooms.MaxNicknameLength,
		MaxRoomNameLength: active.Rooms.MaxRoomNameLength,
	}

	var natsJournal *journal.NATS
	if active.NATS.URL != "" {
		natsJournal, err = journal.ConnectNATS(active.NATS.URL, active.NATS.Subject, logger)
		if err != nil {
			logger.Error("failed to connect lifecycle journal", "url", active.NATS.URL, "error", err)
			os.Exit(1)
		}
		opts.Journal = natsJournal
		logger.Info("lifecycle journal enabled", "url", active.NATS.URL, "subject", active.NATS.Subject)
	}

	hub := server.NewHub(logger, opts)
	server.StartHub(hub)

	httpServer := server.CreateServer(active.Port, server.SetupRoutes(hub))
	go func() {
		if err := server.StartServer(logger, httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		active.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"chat-server": func(ctx context.Context) error {
				if err := server.ShutdownServer(ctx, logger, httpServer); err != nil {
					return err
				}
				if err := hub.Shutdown(active.ShutdownTimeout); err != nil {
					return err
				}
				if natsJournal != nil {
					return natsJournal.Close(ctx)
				}
				return nil
			},
		},
	)

	exitCode := <-wait
	logger.Info("server exited", "code", exitCode)
	os.Exit(exitCode)
}
