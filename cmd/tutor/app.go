package main

import (
	"context"
	"fmt"

	"pathtutor/internal/config"
	"pathtutor/internal/logging"
	"pathtutor/internal/metrics"
	"pathtutor/internal/perception"
	"pathtutor/internal/router"
	"pathtutor/internal/store"
	"pathtutor/internal/taxonomy"
	"pathtutor/internal/usage"
)

// newLLMClient builds the raw provider client. Tests replace it with a stub.
var newLLMClient = func(ctx context.Context, cfg *config.Config) (perception.LLMClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return perception.NewClientFromConfig(ctx, perception.ProviderConfigFromConfig(cfg))
}

// app holds the components shared by the commands.
type app struct {
	cfg        *config.Config
	taxonomy   *taxonomy.Taxonomy
	client     perception.LLMClient
	classifier *perception.Classifier
	router     *router.Router
	store      *store.LocalStore
	tracker    *usage.Tracker
	metrics    *metrics.Metrics
}

// loadTaxonomy returns the configured specialist table.
func loadTaxonomy(cfg *config.Config) (*taxonomy.Taxonomy, error) {
	if cfg.Tutor.PromptsPath != "" {
		return taxonomy.LoadFile(cfg.Tutor.PromptsPath)
	}
	return taxonomy.Default()
}

// openStore opens the session database, or returns nil when disabled.
func openStore(cfg *config.Config) (*store.LocalStore, error) {
	if !cfg.Store.Enabled {
		return nil, nil
	}
	return store.NewLocalStore(cfg.Store.DatabasePath)
}

// newApp wires taxonomy, provider, persistence and metrics.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	timer := logging.StartTimer(logging.CategoryBoot, "newApp")
	defer timer.Stop()

	if err := cfg.Tutor.Validate(); err != nil {
		return nil, err
	}

	tax, err := loadTaxonomy(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}
	if missing := tax.Missing(); len(missing) > 0 {
		logging.BootWarn("No specialist configured for %v; those questions will be reported as not handled", missing)
	}

	raw, err := newLLMClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		taxonomy: tax,
		metrics:  metrics.New(),
	}

	a.store, err = openStore(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Usage.Enabled {
		a.tracker, err = usage.NewTracker(cfg.Usage.Path)
		if err != nil {
			logging.BootWarn("Usage tracking disabled: %v", err)
		}
	}

	var traces perception.TraceStore
	if a.store != nil {
		traces = a.store
	}
	a.client = perception.NewTracingLLMClient(raw, traces, a.metrics)
	a.classifier = perception.NewClassifier(a.client, tax)
	a.router = router.New(a.client, tax)

	logging.Boot("Tutor ready: provider=%s model=%s specialists=%d", cfg.LLM.Provider, cfg.LLM.Model, len(tax.Specialists()))
	return a, nil
}

// withUsage attaches the usage tracker to ctx.
func (a *app) withUsage(ctx context.Context) context.Context {
	if a.tracker == nil {
		return ctx
	}
	return usage.NewContext(ctx, a.tracker)
}

// close flushes usage and closes the store.
func (a *app) close() {
	if a.tracker != nil {
		if err := a.tracker.Save(); err != nil {
			logging.Get(logging.CategoryUsage).Warn("Failed to save usage: %v", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logging.StoreError("Failed to close store: %v", err)
		}
	}
}
