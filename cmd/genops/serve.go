package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/genops/generation"
	"github.com/jonwraymond/genops/health"
	"github.com/jonwraymond/genops/observe"
	"github.com/jonwraymond/genops/orchestrator"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve provider health, budget and metrics over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			promReg := prometheus.NewRegistry()
			a, err := newApp(cmd.Context(), cfg, appOptions{registerer: promReg})
			if err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				_ = a.Close(ctx)
			}()

			server := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           newMux(a.orch, promReg),
				ReadHeaderTimeout: 5 * time.Second,
			}
			return runServer(cmd.Context(), server, a)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	return cmd
}

func newMux(orch *orchestrator.Orchestrator, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	health.RegisterHandlers(mux, orch.HealthAggregator())

	mux.HandleFunc("GET /budget", func(w http.ResponseWriter, r *http.Request) {
		health.WriteJSON(w, http.StatusOK, orch.BudgetSummary())
	})
	mux.HandleFunc("GET /providers/{name}", func(w http.ResponseWriter, r *http.Request) {
		h, err := orch.Health(r.PathValue("name"))
		if err != nil {
			code := http.StatusInternalServerError
			if generation.ClassOf(err) == generation.ClassUnknownProvider {
				code = http.StatusNotFound
			}
			health.WriteJSON(w, code, map[string]string{"error": err.Error()})
			return
		}
		health.WriteJSON(w, http.StatusOK, h)
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

func runServer(ctx context.Context, server *http.Server, a *app) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := a.observer.Logger()
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening", observe.Field{Key: "addr", Value: server.Addr})
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info(context.Background(), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			_ = server.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}
	return nil
}
