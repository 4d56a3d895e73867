package flagtools

import (
	"context"
	"fmt"

	"github.com/flagbridge/flagbridge/bridge"
	"github.com/flagbridge/flagbridge/flagapi"
	"github.com/flagbridge/flagbridge/mcp"
)

type createFlagArgs struct {
	Key         string   `json:"key" jsonschema:"description=Unique flag key within the project"`
	Name        string   `json:"name,omitempty" jsonschema:"description=Human-readable flag name (defaults to the key)"`
	Description string   `json:"description,omitempty" jsonschema:"description=What the flag controls"`
	Tags        []string `json:"tags,omitempty" jsonschema:"description=Tags applied to the new flag"`
	Temporary   bool     `json:"temporary,omitempty" jsonschema:"description=Mark the flag as temporary so stale detection will flag it"`
	ProjectKey  string   `json:"project_key,omitempty" jsonschema:"description=Project to create the flag in (defaults to the configured project)"`
}

func createFlagTool() bridge.ToolDefinition {
	return bridge.NewTool("create_flag",
		"Create a feature flag in a project. In dry-run mode the creation is simulated and reported without touching remote state.",
		func(ctx context.Context, ec *bridge.ExecutionContext, args createFlagArgs, progress bridge.ProgressReporter) (*mcp.CallToolResult, error) {
			projectKey, err := ec.ProjectKey(args.ProjectKey)
			if err != nil {
				return nil, err
			}

			name := args.Name
			if name == "" {
				name = args.Key
			}

			progress.Report(ctx, 0, 1)

			if ec.Config().DryRun {
				progress.Report(ctx, 1, 1)
				progress.Message(ctx, fmt.Sprintf("dry run: would create flag %q in project %q", args.Key, projectKey))
				result := bridge.TextResult(fmt.Sprintf("Dry run: flag %q (name %q) would be created in project %q. No remote state was changed.", args.Key, name, projectKey))
				return result, nil
			}

			flag, err := ec.Client().CreateFlag(ctx, projectKey, flagapi.NewFlag{
				Key:         args.Key,
				Name:        name,
				Description: args.Description,
				Temporary:   args.Temporary,
				Tags:        args.Tags,
			})
			if err != nil {
				return nil, err
			}

			progress.Report(ctx, 1, 1)
			progress.Message(ctx, fmt.Sprintf("created flag %q in project %q", flag.Key, projectKey))

			result := bridge.TextResult(fmt.Sprintf("Created flag %q (name %q) in project %q.", flag.Key, flag.Name, projectKey))
			result.Content = append(result.Content, mcp.ContentBlock{
				Type:     mcp.ContentTypeResourceLink,
				URI:      singleFlagURI(projectKey, flag.Key),
				Name:     flag.Key,
				MimeType: jsonMIME,
			})
			return result, nil
		})
}
