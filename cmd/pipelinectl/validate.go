package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Azure/pipeline-orchestrator/internal/config"
	"github.com/Azure/pipeline-orchestrator/pkg/pipeline/resolver"
)

func newValidateCmd() *cobra.Command {
	var definitionPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a pipeline definition without running any stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			stages, err := config.LoadPipelineFile(definitionPath)
			if err != nil {
				return fmt.Errorf("load pipeline definition: %w", err)
			}

			waves, err := resolver.Resolve(stages)
			if err != nil {
				return fmt.Errorf("invalid DAG: %w", err)
			}

			fmt.Printf("valid: %d stage(s) across %d wave(s)\n", len(stages), len(waves))
			for _, w := range waves {
				fmt.Printf("  tier %d: %v\n", w.Tier, w.Stages)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&definitionPath, "definition", "pipeline.yaml", "Path to the pipeline YAML definition")
	return cmd
}
