package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/vk/promptworks/internal/ctxlog"
)

// shutdownGrace bounds how long in-flight HTTP requests get to finish.
const shutdownGrace = 10 * time.Second

// Run starts the HTTP server and blocks until the context is cancelled or
// an interrupt arrives. Shutdown drains HTTP first, then waits for any
// scheduled analysis executions to finish.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:    a.config.Listen,
		Handler: a.server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("🚀 HTTP server listening.", "addr", a.config.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down.")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("HTTP shutdown did not finish cleanly.", "error", err)
	}

	a.service.Shutdown(true)
	if err := a.llm.Close(); err != nil {
		a.logger.Warn("Closing the LLM client failed.", "error", err)
	}
	a.logger.Info("🏁 Shutdown complete.")
	return nil
}
