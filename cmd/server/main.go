package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"rag-orchestrator/internal/di"
	"rag-orchestrator/internal/infra/config"
	"rag-orchestrator/internal/infra/logger"
)

func main() {
	// 1. Load Config
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	// 2. Initialize Logger
	log := logger.New()
	slog.SetDefault(log)

	// 3. Wire Components
	app := di.New(cfg, log)
	if err := app.Orchestrator.Start(context.Background()); err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}

	// 4. Initialize Echo
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	app.HTTPServer.Register(e)

	// 5. Start Server
	go func() {
		log.Info("starting server", "addr", cfg.Server.ListenAddr)
		if err := e.Start(cfg.Server.ListenAddr); err != nil && err != http.ErrServerClosed {
			log.Error("server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
	}
}
