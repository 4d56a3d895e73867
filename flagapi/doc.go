// Package flagapi is the remote feature-flag API collaborator. The bridge
// core consumes the Client interface only; the REST implementation in this
// package is one concrete provider and tests substitute the stub from
// flagapitest without touching dispatch code.
//
// All calls are context-aware and may fail with a status-carrying *APIError.
// The client performs no retries: retry policy belongs to the caller's
// transport decisions, not this layer. Connection pooling is owned by
// net/http.
package flagapi
