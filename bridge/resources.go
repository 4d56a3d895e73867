package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/flagbridge/flagbridge/flagapi"
	"github.com/flagbridge/flagbridge/mcp"
	"github.com/yosida95/uritemplate/v3"
)

// ErrResourceNotFound reports a URI that matches no registered template.
var ErrResourceNotFound = errors.New("resource not found")

// SortOrder orders collection reads by creation time.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// QueryOptions are the collection query options. A zero Limit means
// unbounded; defaults are order=asc, offset=0, limit unbounded.
type QueryOptions struct {
	Limit  int
	Offset int
	Order  SortOrder
}

// ListOptions translates the options for the remote collaborator.
func (o QueryOptions) ListOptions() flagapi.ListOptions {
	return flagapi.ListOptions{
		Limit:     o.Limit,
		Offset:    o.Offset,
		Ascending: o.Order != SortDescending,
	}
}

// ParseQueryOptions validates collection query parameters. Out-of-range
// values fail rather than being clamped, and every violation is aggregated
// into one ValidationError.
func ParseQueryOptions(q url.Values) (QueryOptions, error) {
	opts := QueryOptions{Order: SortAscending}
	var violations []FieldViolation

	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val := q.Get(key)
		switch key {
		case "limit":
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				violations = append(violations, FieldViolation{Field: "limit", Detail: fmt.Sprintf("must be a positive integer, got %q", val)})
				continue
			}
			opts.Limit = n
		case "offset":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				violations = append(violations, FieldViolation{Field: "offset", Detail: fmt.Sprintf("must be a non-negative integer, got %q", val)})
				continue
			}
			opts.Offset = n
		case "order":
			switch SortOrder(val) {
			case SortAscending, SortDescending:
				opts.Order = SortOrder(val)
			default:
				violations = append(violations, FieldViolation{Field: "order", Detail: fmt.Sprintf("must be %q or %q, got %q", SortAscending, SortDescending, val)})
			}
		default:
			violations = append(violations, FieldViolation{Field: key, Detail: "unknown query option"})
		}
	}

	if len(violations) > 0 {
		return QueryOptions{}, &ValidationError{Violations: violations}
	}
	return opts, nil
}

// ReaderFunc produces the content for one matched resource read. uri is the
// full requested URI, vars holds the extracted placeholders, opts is the
// zero value for templates that take no options. Readers fetch fresh from
// the remote collaborator on every call; there is no caching at this layer.
type ReaderFunc func(ctx context.Context, ec *ExecutionContext, uri string, vars map[string]string, opts QueryOptions) (*mcp.ResourceContents, error)

// ResourceDefinition declares one URI template and its reader.
type ResourceDefinition struct {
	// Template is the descriptor advertised in resources/templates/list.
	Template mcp.ResourceTemplate
	// AcceptsOptions marks collection-shaped templates that take query
	// options. Single-item templates leave it false and reject any query.
	AcceptsOptions bool
	Reader         ReaderFunc
}

type resourceEntry struct {
	def   ResourceDefinition
	tmpl  *uritemplate.Template
	names []string
}

// ResourceSet matches resource URIs against registered templates. More
// specific templates (more placeholders) always win over less specific
// ones, so a single-item URI can never be captured by a collection
// template. Like the registry, it is populated at startup and read-only
// while serving.
type ResourceSet struct {
	entries []resourceEntry
}

// NewResourceSet constructs an empty set.
func NewResourceSet() *ResourceSet {
	return &ResourceSet{}
}

// Register compiles and adds a template. Registration order is preserved
// among templates of equal specificity.
func (s *ResourceSet) Register(def ResourceDefinition) error {
	if def.Reader == nil {
		return fmt.Errorf("resource registration: %s needs a reader", def.Template.URITemplate)
	}
	tmpl, err := uritemplate.New(def.Template.URITemplate)
	if err != nil {
		return fmt.Errorf("resource registration: bad template %q: %w", def.Template.URITemplate, err)
	}
	s.entries = append(s.entries, resourceEntry{def: def, tmpl: tmpl, names: tmpl.Varnames()})
	sort.SliceStable(s.entries, func(i, j int) bool {
		return len(s.entries[i].names) > len(s.entries[j].names)
	})
	return nil
}

// Templates returns the registered template descriptors, most specific first.
func (s *ResourceSet) Templates() []mcp.ResourceTemplate {
	out := make([]mcp.ResourceTemplate, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.def.Template
	}
	return out
}

// Concrete returns the placeholder-free templates as listable resources
// (the collection roots).
func (s *ResourceSet) Concrete() []mcp.Resource {
	var out []mcp.Resource
	for _, e := range s.entries {
		if len(e.names) > 0 {
			continue
		}
		out = append(out, mcp.Resource{
			URI:         e.def.Template.URITemplate,
			Name:        e.def.Template.Name,
			Description: e.def.Template.Description,
			MimeType:    e.def.Template.MimeType,
		})
	}
	return out
}

// Read resolves a URI to exactly one template and invokes its reader. An
// empty extracted placeholder is a parse failure, never a match-all. Query
// options on a template that takes none are rejected.
func (s *ResourceSet) Read(ctx context.Context, ec *ExecutionContext, uri string) (*mcp.ResourceContents, error) {
	base, query, hasQuery := strings.Cut(uri, "?")

	for _, e := range s.entries {
		vals := e.tmpl.Match(base)
		if vals == nil {
			continue
		}

		vars := make(map[string]string, len(e.names))
		var violations []FieldViolation
		for _, name := range e.names {
			v := vals.Get(name).String()
			if v == "" {
				violations = append(violations, FieldViolation{Field: name, Detail: "empty identifier"})
				continue
			}
			vars[name] = v
		}
		if len(violations) > 0 {
			return nil, &ValidationError{Violations: violations}
		}

		var opts QueryOptions
		if e.def.AcceptsOptions {
			parsed, err := url.ParseQuery(query)
			if err != nil {
				return nil, &ValidationError{Violations: []FieldViolation{
					{Field: "query", Detail: "malformed query string: " + err.Error()},
				}}
			}
			opts, err = ParseQueryOptions(parsed)
			if err != nil {
				return nil, err
			}
		} else if hasQuery && query != "" {
			return nil, &ValidationError{Violations: []FieldViolation{
				{Field: "query", Detail: "this resource takes no query options"},
			}}
		}

		return e.def.Reader(ctx, ec, uri, vars, opts)
	}

	return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, uri)
}
