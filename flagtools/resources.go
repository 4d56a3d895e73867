package flagtools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flagbridge/flagbridge/bridge"
	"github.com/flagbridge/flagbridge/mcp"
)

const jsonMIME = "application/json"

const (
	projectsURI         = "flagbridge://projects"
	projectFlagsPattern = "flagbridge://projects/{projectKey}/flags"
	singleFlagPattern   = "flagbridge://projects/{projectKey}/flags/{flagKey}"
)

func singleFlagURI(projectKey, flagKey string) string {
	return fmt.Sprintf("flagbridge://projects/%s/flags/%s", projectKey, flagKey)
}

func registerResources(set *bridge.ResourceSet) error {
	defs := []bridge.ResourceDefinition{
		{
			Template: mcp.ResourceTemplate{
				URITemplate: projectsURI,
				Name:        "projects",
				Description: "All flag-management projects. Supports limit, offset, and order query options.",
				MimeType:    jsonMIME,
			},
			AcceptsOptions: true,
			Reader:         readProjects,
		},
		{
			Template: mcp.ResourceTemplate{
				URITemplate: projectFlagsPattern,
				Name:        "project-flags",
				Description: "Feature flags in one project. Supports limit, offset, and order query options.",
				MimeType:    jsonMIME,
			},
			AcceptsOptions: true,
			Reader:         readProjectFlags,
		},
		{
			Template: mcp.ResourceTemplate{
				URITemplate: singleFlagPattern,
				Name:        "flag",
				Description: "One feature flag by project and flag key.",
				MimeType:    jsonMIME,
			},
			Reader: readSingleFlag,
		},
	}
	for _, def := range defs {
		if err := set.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func readProjects(ctx context.Context, ec *bridge.ExecutionContext, uri string, _ map[string]string, opts bridge.QueryOptions) (*mcp.ResourceContents, error) {
	projects, err := ec.Client().ListProjects(ctx, opts.ListOptions())
	if err != nil {
		return nil, err
	}
	return jsonContents(uri, projects)
}

func readProjectFlags(ctx context.Context, ec *bridge.ExecutionContext, uri string, vars map[string]string, opts bridge.QueryOptions) (*mcp.ResourceContents, error) {
	flags, err := ec.Client().ListFlags(ctx, vars["projectKey"], opts.ListOptions())
	if err != nil {
		return nil, err
	}
	return jsonContents(uri, flags)
}

func readSingleFlag(ctx context.Context, ec *bridge.ExecutionContext, uri string, vars map[string]string, _ bridge.QueryOptions) (*mcp.ResourceContents, error) {
	flag, err := ec.Client().GetFlag(ctx, vars["projectKey"], vars["flagKey"])
	if err != nil {
		return nil, err
	}
	return jsonContents(uri, flag)
}

func jsonContents(uri string, v any) (*mcp.ResourceContents, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode resource body: %w", err)
	}
	return &mcp.ResourceContents{URI: uri, MimeType: jsonMIME, Text: string(body)}, nil
}
