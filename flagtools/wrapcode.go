package flagtools

import (
	"context"
	"fmt"

	"github.com/flagbridge/flagbridge/bridge"
	"github.com/flagbridge/flagbridge/mcp"
)

type wrapCodeArgs struct {
	FlagKey  string `json:"flag_key" jsonschema:"description=Flag key guarding the code path"`
	Language string `json:"language" jsonschema:"description=Target language for the generated guard,enum=go,enum=javascript,enum=python"`
	Snippet  string `json:"snippet,omitempty" jsonschema:"description=Code to place inside the guarded branch"`
}

func wrapCodeTool() bridge.ToolDefinition {
	return bridge.NewTool("wrap_code",
		"Generate a feature-flag guard around a code snippet in the requested language. Purely local, no remote calls.",
		func(ctx context.Context, ec *bridge.ExecutionContext, args wrapCodeArgs, progress bridge.ProgressReporter) (*mcp.CallToolResult, error) {
			snippet := args.Snippet
			if snippet == "" {
				snippet = placeholderSnippet(args.Language)
			}

			var guard string
			switch args.Language {
			case "go":
				guard = fmt.Sprintf("if client.BoolVariation(ctx, %q, false) {\n\t%s\n}\n", args.FlagKey, snippet)
			case "javascript":
				guard = fmt.Sprintf("if (await client.variation(%q, context, false)) {\n  %s\n}\n", args.FlagKey, snippet)
			case "python":
				guard = fmt.Sprintf("if client.variation(%q, context, False):\n    %s\n", args.FlagKey, snippet)
			default:
				return nil, &bridge.ValidationError{Violations: []bridge.FieldViolation{
					{Field: "language", Detail: fmt.Sprintf("unsupported language %q", args.Language)},
				}}
			}

			return bridge.TextResult(guard), nil
		})
}

func placeholderSnippet(language string) string {
	switch language {
	case "go":
		return "// new code path"
	case "python":
		return "pass  # new code path"
	default:
		return "// new code path"
	}
}
