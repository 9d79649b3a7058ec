package config

import "os"

// RunConfig is the CLI's resolved runtime configuration: flags take
// precedence, falling back to environment variables, matching the
// teacher's flag-then-env resolution in cmd/root.go.
type RunConfig struct {
	DefinitionPath string
	Workspace      string
	OutputPath     string
	LogLevel       string
	LogFormat      string
}

// Resolve fills in blank fields from environment variables, then applies
// final defaults.
func Resolve(c RunConfig) RunConfig {
	if c.Workspace == "" {
		c.Workspace = envOr("PIPELINE_WORKSPACE", ".")
	}
	if c.DefinitionPath == "" {
		c.DefinitionPath = envOr("PIPELINE_DEFINITION", "pipeline.yaml")
	}
	if c.OutputPath == "" {
		c.OutputPath = os.Getenv("PIPELINE_OUTPUT")
	}
	if c.LogLevel == "" {
		c.LogLevel = envOr("PIPELINE_LOG_LEVEL", "info")
	}
	if c.LogFormat == "" {
		c.LogFormat = envOr("PIPELINE_LOG_FORMAT", "console")
	}
	return c
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
