package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/mama165/sdk-go/logs"

	"github.com/Tyrowin/gochat-relay/internal/registry"
	"github.com/Tyrowin/gochat-relay/internal/relay"
	"github.com/Tyrowin/gochat-relay/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := server.NewConfigFromEnv()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	gin.SetMode(config.GinMode)

	hub := server.NewHub(*config, log)
	chat := relay.New(registry.New(), hub, log)
	hub.SetHandler(chat)
	go hub.Run()

	handlers := server.NewHandlers(hub, chat, *config, log)
	httpServer := server.CreateServer(config.Addr(), server.SetupRoutes(handlers, log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.StartServer(httpServer, log)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	}

	// Clients hear about the shutdown before their sessions are closed.
	chat.Shutdown()

	var shutdownErr error
	if err := hub.Shutdown(config.ShutdownTimeout); err != nil {
		shutdownErr = fmt.Errorf("hub shutdown: %w", err)
	}
	if err := server.ShutdownServer(httpServer, config.ShutdownTimeout, log); err != nil {
		shutdownErr = errors.Join(shutdownErr, fmt.Errorf("http shutdown: %w", err))
	}
	if shutdownErr != nil {
		return shutdownErr
	}

	log.Info("Program stopped cleanly")
	return nil
}
