// Package mcp contains the protocol data types and constants shared by the
// flagbridge transports and the dispatch core. It mirrors the wire
// representation of the Model Context Protocol while keeping the surface
// Go-friendly (exported structs with json tags, string constants for method
// names and enumerations).
//
// The package is intentionally free of transport logic: the stdio and HTTP
// transports import these types but implement their own framing. The bridge
// package constructs responses using these concrete types and hands them to
// the transport for JSON-RPC serialization.
//
// # Method Names
//
// JSON-RPC method and notification names are enumerated as Method constants
// (e.g. ToolsCallMethod). Using the constants avoids typographical mistakes
// and gives a single point of truth if the protocol evolves.
//
// # Progress
//
// Long-running tool calls are correlated with notifications/progress messages
// through an opaque, caller-supplied ProgressToken carried in the request
// _meta object. Its absence means the caller wants no progress reporting and
// its presence does not guarantee delivery.
//
// # Metadata
//
// BaseMetadata lets response producers attach implementation-defined metadata
// under the _meta key without inflating every struct with an unused field.
// flagbridge uses it to carry the machine-readable error kind on failure
// results so agents can branch on it.
package mcp
