// Package bridge is the dispatch core of flagbridge. It turns arbitrary
// remote-API failures and long-running calls into a well-defined,
// agent-consumable contract:
//
//   - ExecutionContext composes the validated config, the remote client, the
//     logger and the progress emitter into one immutable handle passed
//     explicitly to every operation. Exactly one instance exists per process.
//   - Registry maps tool names to handlers, validates raw arguments against
//     each tool's input schema, and guarantees that no handler fault ever
//     propagates past the dispatch boundary.
//   - ResourceSet matches read-only resource URIs against RFC 6570 templates
//     in descending specificity and parses collection query options.
//   - ProgressEmitter delivers best-effort, token-correlated progress
//     notifications whose failures never alter the triggering invocation.
//   - Normalize maps heterogeneous failure causes onto a fixed taxonomy so
//     agents can branch on the error kind.
//
// Router binds all of the above to JSON-RPC requests; the stdio and HTTP
// transports own framing only.
//
// The dispatcher holds no cross-invocation mutable state: registration
// happens before serving starts, and everything read at dispatch time is
// immutable afterwards, so concurrent invocations share it freely. No
// timeout or cancellation is imposed here; an abandoned caller simply stops
// awaiting, and in-flight remote calls run to completion.
package bridge
