package flagapi

import "time"

// Project is a flag-management project as returned by the remote API.
type Project struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	CreationDate int64  `json:"creationDate"` // epoch milliseconds
}

// Variation is one of the values a flag can serve.
type Variation struct {
	Value any    `json:"value"`
	Name  string `json:"name,omitempty"`
}

// FeatureFlag is a flag definition scoped to a project.
type FeatureFlag struct {
	Key          string      `json:"key"`
	Name         string      `json:"name"`
	Description  string      `json:"description,omitempty"`
	Kind         string      `json:"kind,omitempty"` // boolean or multivariate
	Temporary    bool        `json:"temporary,omitempty"`
	Archived     bool        `json:"archived,omitempty"`
	Tags         []string    `json:"tags,omitempty"`
	CreationDate int64       `json:"creationDate"` // epoch milliseconds
	Variations   []Variation `json:"variations,omitempty"`
}

// FlagStatus reports evaluation activity for a flag in one environment.
type FlagStatus struct {
	// Name is one of: new, active, inactive, launched.
	Name          string     `json:"name"`
	LastRequested *time.Time `json:"lastRequested,omitempty"`
	Default       any        `json:"default,omitempty"`
}

// NewFlag is the payload for creating a flag.
type NewFlag struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Temporary   bool     `json:"temporary,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ListOptions shapes collection fetches. A zero Limit means the server-side
// default (unbounded from this layer's perspective).
type ListOptions struct {
	Limit     int
	Offset    int
	Ascending bool
}
