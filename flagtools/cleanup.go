package flagtools

import (
	"context"
	"fmt"

	"github.com/flagbridge/flagbridge/bridge"
	"github.com/flagbridge/flagbridge/mcp"
)

type cleanupFlagArgs struct {
	FlagKey    string `json:"flag_key" jsonschema:"description=Key of the flag to clean up"`
	ProjectKey string `json:"project_key,omitempty" jsonschema:"description=Project scope (defaults to the configured project)"`
	Strategy   string `json:"strategy,omitempty" jsonschema:"description=archive keeps the flag recoverable; delete removes it permanently. Default archive,enum=archive,enum=delete"`
}

func cleanupFlagTool() bridge.ToolDefinition {
	return bridge.NewTool("cleanup_flag",
		"Archive or permanently delete a feature flag. Archive is the default and is recoverable; delete is destructive. Dry-run mode simulates either.",
		func(ctx context.Context, ec *bridge.ExecutionContext, args cleanupFlagArgs, progress bridge.ProgressReporter) (*mcp.CallToolResult, error) {
			projectKey, err := ec.ProjectKey(args.ProjectKey)
			if err != nil {
				return nil, err
			}

			strategy := args.Strategy
			if strategy == "" {
				strategy = "archive"
			}
			if strategy != "archive" && strategy != "delete" {
				return nil, &bridge.ValidationError{Violations: []bridge.FieldViolation{
					{Field: "strategy", Detail: fmt.Sprintf("must be \"archive\" or \"delete\", got %q", strategy)},
				}}
			}

			progress.Report(ctx, 0, 2)

			if ec.Config().DryRun {
				progress.Report(ctx, 2, 2)
				progress.Message(ctx, fmt.Sprintf("dry run: would %s flag %q", strategy, args.FlagKey))
				return bridge.TextResult(fmt.Sprintf("Dry run: flag %q in project %q would be %sd. No remote state was changed.", args.FlagKey, projectKey, strategy)), nil
			}

			// Confirm the flag exists before mutating so a typo fails with a
			// clear not-found error instead of a silent no-op.
			flag, err := ec.Client().GetFlag(ctx, projectKey, args.FlagKey)
			if err != nil {
				return nil, err
			}
			progress.Report(ctx, 1, 2)
			progress.Message(ctx, fmt.Sprintf("%s flag %q", strategy, flag.Key))

			switch strategy {
			case "archive":
				err = ec.Client().ArchiveFlag(ctx, projectKey, flag.Key)
			case "delete":
				err = ec.Client().DeleteFlag(ctx, projectKey, flag.Key)
			}
			if err != nil {
				return nil, err
			}

			progress.Report(ctx, 2, 2)
			return bridge.TextResult(fmt.Sprintf("Flag %q in project %q has been %sd.", flag.Key, projectKey, strategy)), nil
		})
}
