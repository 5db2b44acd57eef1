// Package generator defines the boundary to the natural-language generation
// service: the Generator interface, the transient-error classifier, API key
// rotation, and the retry executor that wraps every outbound call.
package generator

import "context"

// Generator produces a schema-conforming structured result for a prompt.
// Implementations must be safe for concurrent use.
type Generator interface {
	// Generate sends one generation request and returns the structured
	// result. Transient failures are reported via errors classified by
	// Transience; everything else is permanent.
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Invoker is the key-aware form of Generator implemented by backends.
// The Executor adapts an Invoker plus a KeyPool into a Generator,
// choosing the credential for each attempt.
type Invoker interface {
	// GenerateWithKey performs one generation attempt using the given
	// API key. An empty key means the backend's default credentials.
	GenerateWithKey(ctx context.Context, key string, req Request) (*Response, error)
}
