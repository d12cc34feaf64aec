// Package app wires configuration into live dependencies and runs the bot.
package app

import (
	"context"
	"log/slog"

	"github.com/Jasuni69/mean-reversion/internal/config"
)

// App owns the application lifecycle: dependency wiring, the bot loop, and
// teardown.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New creates an App from validated configuration.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// Run wires all dependencies and runs the bot until the context is
// cancelled. Dependencies close in reverse wiring order on return.
func (a *App) Run(ctx context.Context) error {
	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer cleanup()

	bot := NewBot(a.cfg, deps, a.logger)
	return bot.Run(ctx)
}
