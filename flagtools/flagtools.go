// Package flagtools implements the feature-flag tools and resource readers
// exposed by the bridge. Each tool is a thin handler over the execution
// context; all validation, progress delivery, and failure shaping is owned
// by the dispatch layer.
package flagtools

import (
	"github.com/flagbridge/flagbridge/bridge"
	"github.com/flagbridge/flagbridge/flagfile"
)

// RegisterAll registers every tool and resource template. overrides may be
// nil when no local overrides file is configured.
func RegisterAll(reg *bridge.Registry, set *bridge.ResourceSet, overrides *flagfile.Store) error {
	defs := []bridge.ToolDefinition{
		createFlagTool(),
		evaluateFlagTool(overrides),
		detectStaleFlagsTool(),
		wrapCodeTool(),
		cleanupFlagTool(),
	}
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	return registerResources(set)
}
