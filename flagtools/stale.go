package flagtools

import (
	"context"
	"fmt"
	"time"

	"github.com/flagbridge/flagbridge/bridge"
	"github.com/flagbridge/flagbridge/flagapi"
	"github.com/flagbridge/flagbridge/mcp"
)

const (
	defaultMaxAgeDays = 90

	// staleScanPageSize bounds each ListFlags fetch so large projects are
	// walked page by page instead of in one unbounded request.
	staleScanPageSize = 100
)

type detectStaleFlagsArgs struct {
	ProjectKey     string `json:"project_key,omitempty" jsonschema:"description=Project to scan (defaults to the configured project)"`
	EnvironmentKey string `json:"environment_key,omitempty" jsonschema:"description=Environment whose evaluation activity is checked (defaults to the configured environment)"`
	MaxAgeDays     int    `json:"max_age_days,omitempty" jsonschema:"description=Flags not evaluated within this many days are reported stale. Default 90"`
}

type staleFlag struct {
	FlagKey       string     `json:"flagKey"`
	Name          string     `json:"name,omitempty"`
	Temporary     bool       `json:"temporary,omitempty"`
	Status        string     `json:"status,omitempty"`
	LastRequested *time.Time `json:"lastRequested,omitempty"`
	Reason        string     `json:"reason"`
}

type staleReport struct {
	ProjectKey  string      `json:"projectKey"`
	Environment string      `json:"environment"`
	MaxAgeDays  int         `json:"maxAgeDays"`
	Scanned     int         `json:"scanned"`
	Stale       []staleFlag `json:"stale"`
}

func detectStaleFlagsTool() bridge.ToolDefinition {
	return bridge.NewTool("detect_stale_flags",
		"Scan a project for flags that have not been evaluated recently and are candidates for cleanup.",
		func(ctx context.Context, ec *bridge.ExecutionContext, args detectStaleFlagsArgs, progress bridge.ProgressReporter) (*mcp.CallToolResult, error) {
			projectKey, err := ec.ProjectKey(args.ProjectKey)
			if err != nil {
				return nil, err
			}
			envKey, err := ec.EnvironmentKey(args.EnvironmentKey)
			if err != nil {
				return nil, err
			}

			maxAge := args.MaxAgeDays
			if maxAge == 0 {
				maxAge = defaultMaxAgeDays
			}
			if maxAge < 0 {
				return nil, &bridge.ValidationError{Violations: []bridge.FieldViolation{
					{Field: "max_age_days", Detail: fmt.Sprintf("must be positive, got %d", maxAge)},
				}}
			}
			cutoff := time.Now().AddDate(0, 0, -maxAge)

			progress.Report(ctx, 0, 0)
			progress.Message(ctx, fmt.Sprintf("scanning project %q for flags idle more than %d days", projectKey, maxAge))

			report := staleReport{
				ProjectKey:  projectKey,
				Environment: envKey,
				MaxAgeDays:  maxAge,
				Stale:       []staleFlag{},
			}
			// The flag count is unknown until the final short page, so the
			// per-page reports carry no total.
			for offset := 0; ; offset += staleScanPageSize {
				page, err := ec.Client().ListFlags(ctx, projectKey, flagapi.ListOptions{
					Limit:     staleScanPageSize,
					Offset:    offset,
					Ascending: true,
				})
				if err != nil {
					return nil, err
				}
				for _, flag := range page {
					report.Scanned++
					if flag.Archived {
						continue
					}
					status, err := ec.Client().GetFlagStatus(ctx, projectKey, envKey, flag.Key)
					if err != nil {
						return nil, err
					}
					if entry, stale := classify(flag, status, cutoff); stale {
						report.Stale = append(report.Stale, entry)
					}
				}
				progress.Report(ctx, float64(report.Scanned), 0)
				if len(page) < staleScanPageSize {
					break
				}
			}

			progress.Report(ctx, float64(report.Scanned), float64(report.Scanned))
			progress.Message(ctx, fmt.Sprintf("found %d stale flags out of %d", len(report.Stale), report.Scanned))
			return bridge.JSONResult(report)
		})
}

func classify(flag flagapi.FeatureFlag, status *flagapi.FlagStatus, cutoff time.Time) (staleFlag, bool) {
	entry := staleFlag{
		FlagKey:       flag.Key,
		Name:          flag.Name,
		Temporary:     flag.Temporary,
		Status:        status.Name,
		LastRequested: status.LastRequested,
	}
	switch {
	case status.Name == "launched":
		entry.Reason = "serving its final value everywhere, guard code can be removed"
		return entry, true
	case status.Name == "inactive":
		entry.Reason = "no evaluation activity recorded"
		return entry, true
	case status.LastRequested != nil && status.LastRequested.Before(cutoff):
		entry.Reason = fmt.Sprintf("last evaluated %s", status.LastRequested.Format(time.DateOnly))
		return entry, true
	}
	return staleFlag{}, false
}
