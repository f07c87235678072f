package main

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/genops/generation"
)

func generateCmd() *cobra.Command {
	var (
		provider string
		kind     string
		model    string
		project  string
		budget   float64
		params   map[string]string
	)

	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Run one generation through the orchestrator and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := generation.ParseKind(kind)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, appOptions{
				logWriter:  cmd.ErrOrStderr(),
				registerer: prometheus.NewRegistry(),
			})
			if err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				_ = a.Close(ctx)
			}()

			res, err := a.orch.Generate(cmd.Context(), generation.Request{
				Prompt:      args[0],
				Kind:        k,
				Provider:    provider,
				Model:       model,
				Parameters:  parseParams(params),
				BudgetLimit: budget,
				ProjectID:   project,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "pin the call to a provider (default: select)")
	cmd.Flags().StringVar(&kind, "kind", string(generation.KindImage), "generation kind (image, video, audio, text)")
	cmd.Flags().StringVar(&model, "model", "", "model name")
	cmd.Flags().StringVar(&project, "project", "", "project to attribute spend to")
	cmd.Flags().Float64Var(&budget, "budget", 0, "per-call budget limit in USD (0 = none)")
	cmd.Flags().StringToStringVar(&params, "param", nil, "provider parameter as key=value (repeatable)")

	return cmd
}

// parseParams keeps numeric values numeric so cost estimation sees them.
func parseParams(raw map[string]string) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			out[k] = f
			continue
		}
		if d, err := time.ParseDuration(v); err == nil {
			out[k] = d
			continue
		}
		out[k] = v
	}
	return out
}
