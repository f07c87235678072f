package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonwraymond/genops/config"
	"github.com/jonwraymond/genops/generation"
	"github.com/jonwraymond/genops/mock"
	"github.com/jonwraymond/genops/observe"
	"github.com/jonwraymond/genops/orchestrator"
	"github.com/jonwraymond/genops/registry"
	"github.com/jonwraymond/genops/secret"
)

// adapterFactories builds a provider factory from its declaration, keyed
// by the declaration's adapter name.
var adapterFactories = map[string]func(config.ProviderConfig) generation.Factory{
	"mock": func(p config.ProviderConfig) generation.Factory {
		return mock.Factory(p.Capabilities())
	},
}

// app is a fully wired orchestrator plus the resources it owns.
type app struct {
	cfg      *config.Config
	observer observe.Observer
	registry *registry.Registry
	orch     *orchestrator.Orchestrator
	resolver *secret.Resolver
}

type appOptions struct {
	logWriter  io.Writer
	registerer prometheus.Registerer
}

func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	obsOpts := []observe.Option{}
	if opts.logWriter != nil {
		obsOpts = append(obsOpts, observe.WithLogWriter(opts.logWriter))
	}
	if opts.registerer != nil {
		obsOpts = append(obsOpts, observe.WithPrometheusRegisterer(opts.registerer))
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe, obsOpts...)
	if err != nil {
		return nil, fmt.Errorf("observer: %w", err)
	}
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, fmt.Errorf("middleware: %w", err)
	}

	resolver := secret.DefaultResolver()
	rc := cfg.RegistryConfig()
	rc.Resolver = resolver
	rc.Logger = obs.Logger()
	rc.Metrics = mw.Metrics()
	reg := registry.New(rc)

	a := &app{cfg: cfg, observer: obs, registry: reg, resolver: resolver}
	if err := a.registerProviders(ctx); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.orch = orchestrator.New(reg,
		orchestrator.WithMiddleware(mw),
		orchestrator.WithBudgetWarning(cfg.Budget.WarningThreshold),
	)
	return a, nil
}

func (a *app) registerProviders(ctx context.Context) error {
	for _, name := range slices.Sorted(maps.Keys(a.cfg.Providers)) {
		p := a.cfg.Providers[name]
		build, ok := adapterFactories[p.Adapter]
		if !ok {
			return fmt.Errorf("provider %s: unknown adapter %q", name, p.Adapter)
		}
		if err := a.registry.Register(name, build(p), p.Options()...); err != nil {
			return err
		}
		if p.Credential != "" {
			if err := a.registry.SetCredential(ctx, name, p.Credential); err != nil {
				return err
			}
		}
	}
	for kind, name := range a.cfg.Preferred {
		if err := a.registry.SetPreferred(generation.Kind(kind), name); err != nil {
			return err
		}
	}
	return nil
}

// Close releases adapters, credentials providers and flushes telemetry.
func (a *app) Close(ctx context.Context) error {
	return errors.Join(
		a.registry.Close(),
		a.resolver.Close(),
		a.observer.Shutdown(ctx),
	)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
