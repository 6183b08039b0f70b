package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/keywordgo/internal/ctxlog"
	"github.com/vk/keywordgo/internal/hcl"
	"github.com/vk/keywordgo/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	suite    *hcl.Suite
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and registry.
// A suite that fails to load is a fatal startup error and panics; the CLI
// boundary recovers it into a clean exit.
func NewApp(outW io.Writer, cfg *Config, loader *hcl.Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	suite, err := loader.Load(ctx, cfg.SuitePath)
	if err != nil {
		panic(fmt.Errorf("failed to load suite: %w", err))
	}
	logger.Debug("Suite files loaded and translated.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All keyword libraries registered.", "count", len(modules))

	for _, def := range suite.UserKeywords {
		reg.RegisterUserKeyword(def)
	}
	logger.Debug("User keywords registered.", "count", len(suite.UserKeywords))

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		suite:    suite,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Suite returns the loaded suite. This is primarily for testing.
func (a *App) Suite() *hcl.Suite {
	return a.suite
}
