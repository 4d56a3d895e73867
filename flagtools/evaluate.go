package flagtools

import (
	"context"
	"time"

	"github.com/flagbridge/flagbridge/bridge"
	"github.com/flagbridge/flagbridge/flagfile"
	"github.com/flagbridge/flagbridge/mcp"
)

type evaluateFlagArgs struct {
	FlagKey        string `json:"flag_key" jsonschema:"description=Key of the flag to evaluate"`
	ProjectKey     string `json:"project_key,omitempty" jsonschema:"description=Project scope (defaults to the configured project)"`
	EnvironmentKey string `json:"environment_key,omitempty" jsonschema:"description=Environment scope (defaults to the configured environment)"`
}

type evaluationReport struct {
	FlagKey     string     `json:"flagKey"`
	ProjectKey  string     `json:"projectKey"`
	Environment string     `json:"environment,omitempty"`
	Source      string     `json:"source"` // override or remote
	Value       any        `json:"value,omitempty"`
	Name        string     `json:"name,omitempty"`
	Kind        string     `json:"kind,omitempty"`
	Archived    bool       `json:"archived,omitempty"`
	Status      string     `json:"status,omitempty"`
	LastEval    *time.Time `json:"lastRequested,omitempty"`
}

func evaluateFlagTool(overrides *flagfile.Store) bridge.ToolDefinition {
	return bridge.NewTool("evaluate_flag",
		"Evaluate a feature flag. A local overrides file, when configured, takes precedence over the remote flag state.",
		func(ctx context.Context, ec *bridge.ExecutionContext, args evaluateFlagArgs, progress bridge.ProgressReporter) (*mcp.CallToolResult, error) {
			projectKey, err := ec.ProjectKey(args.ProjectKey)
			if err != nil {
				return nil, err
			}

			if overrides != nil {
				if value, ok := overrides.Lookup(args.FlagKey); ok {
					return bridge.JSONResult(evaluationReport{
						FlagKey:    args.FlagKey,
						ProjectKey: projectKey,
						Source:     "override",
						Value:      value,
					})
				}
			}

			envKey, err := ec.EnvironmentKey(args.EnvironmentKey)
			if err != nil {
				return nil, err
			}

			flag, err := ec.Client().GetFlag(ctx, projectKey, args.FlagKey)
			if err != nil {
				return nil, err
			}
			status, err := ec.Client().GetFlagStatus(ctx, projectKey, envKey, args.FlagKey)
			if err != nil {
				return nil, err
			}

			report := evaluationReport{
				FlagKey:     flag.Key,
				ProjectKey:  projectKey,
				Environment: envKey,
				Source:      "remote",
				Value:       status.Default,
				Name:        flag.Name,
				Kind:        flag.Kind,
				Archived:    flag.Archived,
				Status:      status.Name,
				LastEval:    status.LastRequested,
			}
			return bridge.JSONResult(report)
		})
}
