package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Azure/pipeline-orchestrator/internal/config"
	"github.com/Azure/pipeline-orchestrator/internal/pipelinelog"
	"github.com/Azure/pipeline-orchestrator/pkg/pipeline/engine"
	"github.com/Azure/pipeline-orchestrator/pkg/pipeline/metrics"
)

// newServeCmd runs one pipeline and exposes its metrics over HTTP instead
// of exiting, useful for dashboards that scrape a single long-lived run's
// Prometheus counters. Ambient observability only; the engine's contract
// (spec §6) is identical to `run`.
func newServeCmd() *cobra.Command {
	var cfg config.RunConfig
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a pipeline once and serve its metrics over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return servePipeline(cfg, addr)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.DefinitionPath, "definition", "", "Path to the pipeline YAML definition")
	flags.StringVar(&cfg.Workspace, "workspace", "", "Working directory for stage subprocesses")
	flags.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&addr, "addr", ":9090", "Address to serve /metrics and /result on")
	return cmd
}

func servePipeline(raw config.RunConfig, addr string) error {
	cfg := config.Resolve(raw)

	stages, err := config.LoadPipelineFile(cfg.DefinitionPath)
	if err != nil {
		return fmt.Errorf("load pipeline definition: %w", err)
	}

	log := pipelinelog.New(cfg.LogLevel)
	registry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(registry)

	observer := metrics.Fanout{pipelinelog.NewObserver(log), metrics.NewObserver(recorder)}

	eng, err := engine.New(stages, cfg.Workspace, engine.WithObserver(observer))
	if err != nil {
		return fmt.Errorf("invalid pipeline definition: %w", err)
	}

	result, err := eng.Run(context.Background())
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/result", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(result)
	})

	log.Info().Str("addr", addr).Msg("serving pipeline result and metrics")
	return http.ListenAndServe(addr, mux)
}
