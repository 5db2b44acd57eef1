// Package generatortest provides test helpers for the generator package.
package generatortest

import (
	"context"
	"sync"

	"github.com/parley-dev/parley/internal/generator"
)

// MockInvoker is a configurable test double for generator.Invoker.
// Set GenerateFunc to control behavior; an unset func panics on call.
// All methods are safe for concurrent use.
type MockInvoker struct {
	GenerateFunc func(ctx context.Context, key string, req generator.Request) (*generator.Response, error)

	mu    sync.Mutex
	calls int
	keys  []string
}

// GenerateWithKey delegates to GenerateFunc and records the call.
func (m *MockInvoker) GenerateWithKey(ctx context.Context, key string, req generator.Request) (*generator.Response, error) {
	m.mu.Lock()
	m.calls++
	m.keys = append(m.keys, key)
	m.mu.Unlock()
	return m.GenerateFunc(ctx, key, req)
}

// Calls returns how many times GenerateWithKey was invoked.
func (m *MockInvoker) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Keys returns the API keys passed to each call, in order.
func (m *MockInvoker) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// MockGenerator is a configurable test double for generator.Generator.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, req generator.Request) (*generator.Response, error)

	mu       sync.Mutex
	calls    int
	requests []generator.Request
}

// Generate delegates to GenerateFunc and records the request.
func (m *MockGenerator) Generate(ctx context.Context, req generator.Request) (*generator.Response, error) {
	m.mu.Lock()
	m.calls++
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.GenerateFunc(ctx, req)
}

// Calls returns how many times Generate was invoked.
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns a copy of every request seen, in order.
func (m *MockGenerator) Requests() []generator.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]generator.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Interface guards.
var (
	_ generator.Invoker   = (*MockInvoker)(nil)
	_ generator.Generator = (*MockGenerator)(nil)
)
