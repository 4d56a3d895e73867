// Package flagapitest provides an in-memory test double for the flagapi
// Client interface. Unset function fields return zero values so tests only
// script the calls they care about; the stub also counts calls so tests can
// assert that dry-run paths never reach the remote collaborator.
package flagapitest

import (
	"context"
	"sync/atomic"

	"github.com/flagbridge/flagbridge/flagapi"
)

// Stub implements flagapi.Client via optional function fields.
type Stub struct {
	ListProjectsFn  func(ctx context.Context, opts flagapi.ListOptions) ([]flagapi.Project, error)
	ListFlagsFn     func(ctx context.Context, projectKey string, opts flagapi.ListOptions) ([]flagapi.FeatureFlag, error)
	GetFlagFn       func(ctx context.Context, projectKey, flagKey string) (*flagapi.FeatureFlag, error)
	GetFlagStatusFn func(ctx context.Context, projectKey, envKey, flagKey string) (*flagapi.FlagStatus, error)
	CreateFlagFn    func(ctx context.Context, projectKey string, flag flagapi.NewFlag) (*flagapi.FeatureFlag, error)
	ArchiveFlagFn   func(ctx context.Context, projectKey, flagKey string) error
	DeleteFlagFn    func(ctx context.Context, projectKey, flagKey string) error

	calls atomic.Int64
}

var _ flagapi.Client = (*Stub)(nil)

// Calls reports how many client methods have been invoked.
func (s *Stub) Calls() int64 { return s.calls.Load() }

func (s *Stub) ListProjects(ctx context.Context, opts flagapi.ListOptions) ([]flagapi.Project, error) {
	s.calls.Add(1)
	if s.ListProjectsFn == nil {
		return nil, nil
	}
	return s.ListProjectsFn(ctx, opts)
}

func (s *Stub) ListFlags(ctx context.Context, projectKey string, opts flagapi.ListOptions) ([]flagapi.FeatureFlag, error) {
	s.calls.Add(1)
	if s.ListFlagsFn == nil {
		return nil, nil
	}
	return s.ListFlagsFn(ctx, projectKey, opts)
}

func (s *Stub) GetFlag(ctx context.Context, projectKey, flagKey string) (*flagapi.FeatureFlag, error) {
	s.calls.Add(1)
	if s.GetFlagFn == nil {
		return &flagapi.FeatureFlag{Key: flagKey, Name: flagKey}, nil
	}
	return s.GetFlagFn(ctx, projectKey, flagKey)
}

func (s *Stub) GetFlagStatus(ctx context.Context, projectKey, envKey, flagKey string) (*flagapi.FlagStatus, error) {
	s.calls.Add(1)
	if s.GetFlagStatusFn == nil {
		return &flagapi.FlagStatus{Name: "active"}, nil
	}
	return s.GetFlagStatusFn(ctx, projectKey, envKey, flagKey)
}

func (s *Stub) CreateFlag(ctx context.Context, projectKey string, flag flagapi.NewFlag) (*flagapi.FeatureFlag, error) {
	s.calls.Add(1)
	if s.CreateFlagFn == nil {
		return &flagapi.FeatureFlag{Key: flag.Key, Name: flag.Name}, nil
	}
	return s.CreateFlagFn(ctx, projectKey, flag)
}

func (s *Stub) ArchiveFlag(ctx context.Context, projectKey, flagKey string) error {
	s.calls.Add(1)
	if s.ArchiveFlagFn == nil {
		return nil
	}
	return s.ArchiveFlagFn(ctx, projectKey, flagKey)
}

func (s *Stub) DeleteFlag(ctx context.Context, projectKey, flagKey string) error {
	s.calls.Add(1)
	if s.DeleteFlagFn == nil {
		return nil
	}
	return s.DeleteFlagFn(ctx, projectKey, flagKey)
}
