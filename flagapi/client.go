package flagapi

import "context"

// Client is the remote collaborator contract consumed by the bridge core.
// Implementations must be safe for concurrent use: the dispatcher shares one
// instance across all in-flight invocations.
type Client interface {
	// ListProjects fetches the project collection.
	ListProjects(ctx context.Context, opts ListOptions) ([]Project, error)
	// ListFlags fetches the flags scoped to one project.
	ListFlags(ctx context.Context, projectKey string, opts ListOptions) ([]FeatureFlag, error)
	// GetFlag fetches a single flag.
	GetFlag(ctx context.Context, projectKey, flagKey string) (*FeatureFlag, error)
	// GetFlagStatus fetches evaluation activity for a flag in an environment.
	GetFlagStatus(ctx context.Context, projectKey, envKey, flagKey string) (*FlagStatus, error)
	// CreateFlag creates a flag in a project.
	CreateFlag(ctx context.Context, projectKey string, flag NewFlag) (*FeatureFlag, error)
	// ArchiveFlag marks a flag archived without deleting it.
	ArchiveFlag(ctx context.Context, projectKey, flagKey string) error
	// DeleteFlag permanently removes a flag.
	DeleteFlag(ctx context.Context, projectKey, flagKey string) error
}
