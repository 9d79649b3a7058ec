// Package config loads the CLI's runtime configuration and pipeline
// definition files.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Azure/pipeline-orchestrator/pkg/pipeline"
)

// stageDoc mirrors the on-disk YAML shape of one stage declaration.
type stageDoc struct {
	Name           string   `yaml:"name"`
	Tier           int      `yaml:"tier"`
	Command        string   `yaml:"command"`
	DependsOn      []string `yaml:"depends_on"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

type pipelineDoc struct {
	Stages []stageDoc `yaml:"stages"`
}

// LoadPipelineFile parses a YAML stage-set file (§6 "Stage declaration
// interface") into []pipeline.Stage. It performs only shape checks: an
// empty command is rejected, and a missing or non-positive timeout is
// defaulted to 300 seconds. DAG validity is the Dependency Resolver's job,
// invoked later by engine.New.
func LoadPipelineFile(path string) ([]pipeline.Stage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline file %s: %w", path, err)
	}

	var doc pipelineDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse pipeline file %s: %w", path, err)
	}

	stages := make([]pipeline.Stage, 0, len(doc.Stages))
	for _, d := range doc.Stages {
		if d.Command == "" {
			return nil, fmt.Errorf("stage %q: command must not be empty", d.Name)
		}
		timeout := d.TimeoutSeconds
		if timeout <= 0 {
			timeout = 300
		}
		stages = append(stages, pipeline.Stage{
			Name:           d.Name,
			Tier:           d.Tier,
			Command:        d.Command,
			DependsOn:      d.DependsOn,
			TimeoutSeconds: timeout,
			State:          pipeline.StageState{Status: pipeline.StatusPending},
		})
	}
	return stages, nil
}
