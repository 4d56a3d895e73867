package bridge_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/flagbridge/flagbridge/bridge"
	"github.com/flagbridge/flagbridge/mcp"
)

type readRecord struct {
	template string
	vars     map[string]string
	opts     bridge.QueryOptions
}

// recordingSet registers the three canonical template shapes with readers
// that record how they were invoked.
func recordingSet(t *testing.T, reads *[]readRecord) *bridge.ResourceSet {
	t.Helper()
	set := bridge.NewResourceSet()
	register := func(pattern string, acceptsOptions bool) {
		err := set.Register(bridge.ResourceDefinition{
			Template:       mcp.ResourceTemplate{URITemplate: pattern, Name: pattern},
			AcceptsOptions: acceptsOptions,
			Reader: func(ctx context.Context, ec *bridge.ExecutionContext, uri string, vars map[string]string, opts bridge.QueryOptions) (*mcp.ResourceContents, error) {
				*reads = append(*reads, readRecord{template: pattern, vars: vars, opts: opts})
				return &mcp.ResourceContents{URI: uri, MimeType: "application/json", Text: "{}"}, nil
			},
		})
		if err != nil {
			t.Fatalf("register %s: %v", pattern, err)
		}
	}
	// Registered least specific first on purpose; matching must still
	// prefer the most specific template.
	register("flagbridge://projects", true)
	register("flagbridge://projects/{projectKey}/flags", true)
	register("flagbridge://projects/{projectKey}/flags/{flagKey}", false)
	return set
}

func TestMostSpecificTemplateWins(t *testing.T) {
	t.Parallel()

	var reads []readRecord
	set := recordingSet(t, &reads)
	ec := newTestContext(t, nil, nil, nil)

	if _, err := set.Read(context.Background(), ec, "flagbridge://projects/proj/flags/flagX"); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(reads) != 1 {
		t.Fatalf("exactly one reader must run, observed %d", len(reads))
	}
	if reads[0].template != "flagbridge://projects/{projectKey}/flags/{flagKey}" {
		t.Errorf("matched %q, want the single-item template", reads[0].template)
	}
	if reads[0].vars["projectKey"] != "proj" || reads[0].vars["flagKey"] != "flagX" {
		t.Errorf("extracted vars = %v", reads[0].vars)
	}
}

func TestNestedCollectionMatch(t *testing.T) {
	t.Parallel()

	var reads []readRecord
	set := recordingSet(t, &reads)
	ec := newTestContext(t, nil, nil, nil)

	if _, err := set.Read(context.Background(), ec, "flagbridge://projects/proj/flags"); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(reads) != 1 || reads[0].template != "flagbridge://projects/{projectKey}/flags" {
		t.Fatalf("reads = %+v, want the nested-collection template once", reads)
	}
}

func TestCollectionDefaults(t *testing.T) {
	t.Parallel()

	var reads []readRecord
	set := recordingSet(t, &reads)
	ec := newTestContext(t, nil, nil, nil)

	if _, err := set.Read(context.Background(), ec, "flagbridge://projects"); err != nil {
		t.Fatalf("read: %v", err)
	}
	opts := reads[0].opts
	if opts.Order != bridge.SortAscending || opts.Offset != 0 || opts.Limit != 0 {
		t.Errorf("defaults = %+v, want order=asc offset=0 limit=unbounded", opts)
	}
	if lo := opts.ListOptions(); !lo.Ascending || lo.Limit != 0 || lo.Offset != 0 {
		t.Errorf("list options = %+v", lo)
	}
}

func TestCollectionQueryOptionsApplied(t *testing.T) {
	t.Parallel()

	var reads []readRecord
	set := recordingSet(t, &reads)
	ec := newTestContext(t, nil, nil, nil)

	if _, err := set.Read(context.Background(), ec, "flagbridge://projects?limit=5&offset=10&order=desc"); err != nil {
		t.Fatalf("read: %v", err)
	}
	opts := reads[0].opts
	if opts.Limit != 5 || opts.Offset != 10 || opts.Order != bridge.SortDescending {
		t.Errorf("opts = %+v", opts)
	}
	if opts.ListOptions().Ascending {
		t.Error("desc order must map to Ascending=false")
	}
}

func TestOutOfRangeOptionsFailInsteadOfClamping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name, uri, field string
	}{
		{"negative offset", "flagbridge://projects?offset=-1", "offset"},
		{"zero limit", "flagbridge://projects?limit=0", "limit"},
		{"negative limit", "flagbridge://projects?limit=-3", "limit"},
		{"bad order", "flagbridge://projects?order=sideways", "order"},
		{"unknown key", "flagbridge://projects?filter=archived", "filter"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var reads []readRecord
			set := recordingSet(t, &reads)
			ec := newTestContext(t, nil, nil, nil)

			_, err := set.Read(context.Background(), ec, tc.uri)
			var ve *bridge.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !strings.Contains(ve.Error(), tc.field) {
				t.Errorf("error %q should name %q", ve, tc.field)
			}
			if len(reads) != 0 {
				t.Error("no reader may run for invalid options")
			}
		})
	}
}

func TestQueryOptionsAggregateViolations(t *testing.T) {
	t.Parallel()

	q := url.Values{}
	q.Set("limit", "-1")
	q.Set("offset", "x")
	q.Set("bogus", "1")
	_, err := bridge.ParseQueryOptions(q)
	var ve *bridge.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Violations) != 3 {
		t.Errorf("got %d violations, want all 3 reported together: %v", len(ve.Violations), ve)
	}
}

func TestSingleItemRejectsQueryOptions(t *testing.T) {
	t.Parallel()

	var reads []readRecord
	set := recordingSet(t, &reads)
	ec := newTestContext(t, nil, nil, nil)

	_, err := set.Read(context.Background(), ec, "flagbridge://projects/proj/flags/flagX?limit=5")
	var ve *bridge.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(reads) != 0 {
		t.Error("reader must not run when options are rejected")
	}
}

func TestEmptyPlaceholderIsAParseFailure(t *testing.T) {
	t.Parallel()

	var reads []readRecord
	set := recordingSet(t, &reads)
	ec := newTestContext(t, nil, nil, nil)

	_, err := set.Read(context.Background(), ec, "flagbridge://projects/proj/flags/")
	if err == nil {
		t.Fatal("empty item identifier must never read anything")
	}
	if len(reads) != 0 {
		t.Errorf("no reader may run, observed %+v", reads)
	}
}

func TestUnmatchedURIIsNotFound(t *testing.T) {
	t.Parallel()

	var reads []readRecord
	set := recordingSet(t, &reads)
	ec := newTestContext(t, nil, nil, nil)

	_, err := set.Read(context.Background(), ec, "flagbridge://environments/prod")
	if !errors.Is(err, bridge.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestTemplatesAndConcreteListings(t *testing.T) {
	t.Parallel()

	var reads []readRecord
	set := recordingSet(t, &reads)

	templates := set.Templates()
	if len(templates) != 3 {
		t.Fatalf("got %d templates, want 3", len(templates))
	}
	// Most specific first.
	if templates[0].URITemplate != "flagbridge://projects/{projectKey}/flags/{flagKey}" {
		t.Errorf("templates[0] = %q", templates[0].URITemplate)
	}

	concrete := set.Concrete()
	if len(concrete) != 1 || concrete[0].URI != "flagbridge://projects" {
		t.Errorf("concrete = %+v, want only the projects root", concrete)
	}
}

func TestRegisterRejectsBadTemplates(t *testing.T) {
	t.Parallel()

	set := bridge.NewResourceSet()
	err := set.Register(bridge.ResourceDefinition{
		Template: mcp.ResourceTemplate{URITemplate: "flagbridge://projects"},
	})
	if err == nil {
		t.Error("definition without a reader must be rejected")
	}
}
