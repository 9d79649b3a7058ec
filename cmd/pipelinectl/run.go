package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Azure/pipeline-orchestrator/internal/config"
	"github.com/Azure/pipeline-orchestrator/internal/pipelinelog"
	"github.com/Azure/pipeline-orchestrator/pkg/pipeline"
	"github.com/Azure/pipeline-orchestrator/pkg/pipeline/engine"
)

func newRunCmd() *cobra.Command {
	var cfg config.RunConfig

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a pipeline definition to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.DefinitionPath, "definition", "", "Path to the pipeline YAML definition")
	flags.StringVar(&cfg.Workspace, "workspace", "", "Working directory for stage subprocesses")
	flags.StringVar(&cfg.OutputPath, "output", "", "Path to write the JSON result (stdout if unset)")
	flags.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&cfg.LogFormat, "log-format", "", "Log format (accepted but not applied: logs are always written in console format)")
	return cmd
}

func runPipeline(raw config.RunConfig) error {
	cfg := config.Resolve(raw)

	stages, err := config.LoadPipelineFile(cfg.DefinitionPath)
	if err != nil {
		return fmt.Errorf("load pipeline definition: %w", err)
	}

	log := pipelinelog.New(cfg.LogLevel)
	observer := pipelinelog.NewObserver(log)

	eng, err := engine.New(stages, cfg.Workspace, engine.WithObserver(observer))
	if err != nil {
		return fmt.Errorf("invalid pipeline definition: %w", err)
	}

	result, err := eng.Run(context.Background())
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	if err := writeResult(result, cfg.OutputPath); err != nil {
		return err
	}

	if result.Aborted() {
		os.Exit(1)
	}
	return nil
}

func writeResult(result *pipeline.PipelineResult, outputPath string) error {
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if outputPath == "" {
		fmt.Println(string(encoded))
		return nil
	}
	if err := os.WriteFile(outputPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write result to %s: %w", outputPath, err)
	}
	fmt.Printf("Results written to %s\n", outputPath)
	return nil
}
