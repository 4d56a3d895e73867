package flagapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RESTClient implements Client against a LaunchDarkly-compatible REST API.
type RESTClient struct {
	baseURL string
	token   string
	http    *http.Client
	log     *slog.Logger
}

// RESTOption configures a RESTClient.
type RESTOption func(*RESTClient)

// WithHTTPClient replaces the underlying *http.Client (tests, custom
// transports).
func WithHTTPClient(hc *http.Client) RESTOption {
	return func(c *RESTClient) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewREST builds a REST client for the given API base URL and access token.
func NewREST(baseURL, token string, log *slog.Logger, opts ...RESTOption) *RESTClient {
	c := &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// collectionPage is the remote API's wrapper around list results.
type collectionPage[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
}

func (c *RESTClient) ListProjects(ctx context.Context, opts ListOptions) ([]Project, error) {
	var page collectionPage[Project]
	if err := c.do(ctx, http.MethodGet, "/api/v2/projects", listQuery(opts), nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (c *RESTClient) ListFlags(ctx context.Context, projectKey string, opts ListOptions) ([]FeatureFlag, error) {
	var page collectionPage[FeatureFlag]
	path := "/api/v2/flags/" + url.PathEscape(projectKey)
	if err := c.do(ctx, http.MethodGet, path, listQuery(opts), nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (c *RESTClient) GetFlag(ctx context.Context, projectKey, flagKey string) (*FeatureFlag, error) {
	var flag FeatureFlag
	path := "/api/v2/flags/" + url.PathEscape(projectKey) + "/" + url.PathEscape(flagKey)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &flag); err != nil {
		return nil, err
	}
	return &flag, nil
}

func (c *RESTClient) GetFlagStatus(ctx context.Context, projectKey, envKey, flagKey string) (*FlagStatus, error) {
	var status FlagStatus
	path := "/api/v2/flag-statuses/" + url.PathEscape(projectKey) + "/" + url.PathEscape(envKey) + "/" + url.PathEscape(flagKey)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *RESTClient) CreateFlag(ctx context.Context, projectKey string, flag NewFlag) (*FeatureFlag, error) {
	var created FeatureFlag
	path := "/api/v2/flags/" + url.PathEscape(projectKey)
	if err := c.do(ctx, http.MethodPost, path, nil, flag, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *RESTClient) ArchiveFlag(ctx context.Context, projectKey, flagKey string) error {
	patch := []map[string]any{{"op": "replace", "path": "/archived", "value": true}}
	path := "/api/v2/flags/" + url.PathEscape(projectKey) + "/" + url.PathEscape(flagKey)
	return c.do(ctx, http.MethodPatch, path, nil, patch, nil)
}

func (c *RESTClient) DeleteFlag(ctx context.Context, projectKey, flagKey string) error {
	path := "/api/v2/flags/" + url.PathEscape(projectKey) + "/" + url.PathEscape(flagKey)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// listQuery translates ListOptions into the remote API's query parameters.
func listQuery(opts ListOptions) url.Values {
	q := url.Values{}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.Ascending {
		q.Set("sort", "creationDate")
	} else {
		q.Set("sort", "-creationDate")
	}
	return q
}

// do performs one request/response exchange. Every call carries the access
// token and a fresh correlation ID; non-2xx responses become *APIError.
func (c *RESTClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	reqID := uuid.NewString()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("X-Request-Id", reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		if method == http.MethodPatch {
			req.Header.Set("Content-Type", "application/json; domain-model=patch")
		} else {
			req.Header.Set("Content-Type", "application/json")
		}
	}

	c.log.DebugContext(ctx, "remote API call",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("request_id", reqID))

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Message: err.Error(), RequestID: reqID}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFrom(resp, reqID)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{
			Status:    resp.StatusCode,
			Message:   fmt.Sprintf("decode response: %v", err),
			RequestID: reqID,
		}
	}
	return nil
}

// errorFrom shapes a non-2xx response into an *APIError, using the remote
// API's {code, message} body when one is present.
func (c *RESTClient) errorFrom(resp *http.Response, reqID string) error {
	apiErr := &APIError{Status: resp.StatusCode, RequestID: reqID}

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && json.Unmarshal(raw, &body) == nil && body.Message != "" {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
