package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/promptworks/internal/analysis"
	"github.com/vk/promptworks/internal/config"
	"github.com/vk/promptworks/internal/ctxlog"
	"github.com/vk/promptworks/internal/httpapi"
	"github.com/vk/promptworks/internal/llm"
	"github.com/vk/promptworks/internal/runner"
	"github.com/vk/promptworks/internal/settings"
	"github.com/vk/promptworks/internal/store"
)

// Options holds the entrypoint-level configuration for an App instance.
// Non-zero fields override the corresponding configuration file values.
type Options struct {
	ConfigPath string
	Listen     string
	LogFormat  string
	LogLevel   string
	Workers    int
}

// App encapsulates the application's dependencies and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *config.Config
	registry *analysis.Registry
	service  *analysis.ExecutionService
	store    *store.Store
	llm      *llm.Client
	server   *httpapi.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// A failure to load configuration is a fatal startup error and panics; the
// entrypoint recovers it into a clean exit.
func NewApp(outW io.Writer, opts *Options, modules ...analysis.Module) *App {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	applyOverrides(cfg, opts)

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := analysis.NewRegistry()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All analysis modules registered.", "count", len(modules))

	st := store.New()
	seedProviders(ctx, st, cfg.Providers)

	llmClient := llm.NewClient()
	settingsService := settings.NewService(st)
	service := analysis.NewExecutionService(reg, cfg.Workers)
	run := runner.New(st, service)
	server := httpapi.NewServer(logger, reg, run, st, llmClient, settingsService)

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		service:  service,
		store:    st,
		llm:      llmClient,
		server:   server,
	}
}

// Registry returns the application's analysis registry. This is primarily
// for testing.
func (a *App) Registry() *analysis.Registry {
	return a.registry
}

// Store returns the application's store. This is primarily for testing.
func (a *App) Store() *store.Store {
	return a.store
}

// applyOverrides layers the entrypoint options over the file configuration.
func applyOverrides(cfg *config.Config, opts *Options) {
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}
	if opts.LogFormat != "" {
		cfg.LogFormat = opts.LogFormat
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}
}

// seedProviders populates the store from the configuration's provider
// blocks. Seeding is best effort: a duplicate block is logged and skipped
// rather than failing startup.
func seedProviders(ctx context.Context, st *store.Store, providers []config.Provider) {
	logger := ctxlog.FromContext(ctx)
	for _, seed := range providers {
		key := llm.NormalizeKey(seed.Key)
		defaults, known := llm.ProviderDefaults(key)

		name := seed.Name
		if name == "" && known {
			name = defaults.Name
		}
		if name == "" {
			name = seed.Key
		}
		baseURL := llm.NormalizeBaseURL(seed.BaseURL)
		if baseURL == "" && known {
			baseURL = defaults.BaseURL
		}
		logoEmoji := seed.LogoEmoji
		if logoEmoji == "" && known {
			logoEmoji = defaults.LogoEmoji
		}

		provider, err := st.CreateProvider(store.Provider{
			ProviderKey:      key,
			ProviderName:     name,
			BaseURL:          baseURL,
			APIKey:           seed.APIKey,
			LogoEmoji:        logoEmoji,
			IsCustom:         !known,
			DefaultModelName: seed.DefaultModel,
			Params:           seed.Params,
		})
		if err != nil {
			logger.Warn("Skipping configured provider.", "provider", name, "error", err)
			continue
		}
		for _, m := range seed.Models {
			if _, err := st.CreateModel(provider.ID, store.Model{
				Name:             m.Name,
				Capability:       m.Capability,
				ConcurrencyLimit: m.ConcurrencyLimit,
				Quota:            m.Quota,
			}); err != nil {
				logger.Warn("Skipping configured model.", "provider", name, "model", m.Name, "error", err)
			}
		}
		logger.Debug("Seeded provider from configuration.", "provider", name, "models", len(seed.Models))
	}
}
