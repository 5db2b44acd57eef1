package generator_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/parley-dev/parley/internal/generator"
	"github.com/parley-dev/parley/internal/generator/generatortest"
)

func okInvoker(raw string) *generatortest.MockInvoker {
	return &generatortest.MockInvoker{
		GenerateFunc: func(_ context.Context, _ string, _ generator.Request) (*generator.Response, error) {
			return &generator.Response{Raw: json.RawMessage(raw)}, nil
		},
	}
}

func failInvoker(err error) *generatortest.MockInvoker {
	return &generatortest.MockInvoker{
		GenerateFunc: func(_ context.Context, _ string, _ generator.Request) (*generator.Response, error) {
			return nil, err
		},
	}
}

func TestNewExecutor_NilInvoker(t *testing.T) {
	t.Parallel()

	_, err := generator.NewExecutor(nil, generator.NewKeyPool([]string{"k"}))
	if err == nil {
		t.Fatal("NewExecutor(nil) error = nil, want error")
	}
}

func TestExecutor_SuccessFirstAttempt(t *testing.T) {
	t.Parallel()

	inv := okInvoker(`{"ok":true}`)
	exec, err := generator.NewExecutor(inv, generator.NewKeyPool([]string{"k1", "k2"}))
	if err != nil {
		t.Fatal(err)
	}

	resp, err := exec.Generate(context.Background(), generator.Request{Task: generator.TaskInterviewTurn})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(resp.Raw) != `{"ok":true}` {
		t.Errorf("raw = %s, want {\"ok\":true}", resp.Raw)
	}
	if inv.Calls() != 1 {
		t.Errorf("calls = %d, want 1", inv.Calls())
	}
}

func TestExecutor_RetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()

	var n int
	inv := &generatortest.MockInvoker{}
	inv.GenerateFunc = func(_ context.Context, _ string, _ generator.Request) (*generator.Response, error) {
		n++
		if n == 1 {
			return nil, generator.ErrRateLimited
		}
		return &generator.Response{Raw: json.RawMessage(`{}`)}, nil
	}

	exec, err := generator.NewExecutor(inv, generator.NewKeyPool([]string{"k1", "k2"}),
		generator.WithBaseDelay(time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := exec.Generate(context.Background(), generator.Request{}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if inv.Calls() != 2 {
		t.Errorf("calls = %d, want 2", inv.Calls())
	}

	// The retry must not reuse the key that was just rate limited.
	keys := inv.Keys()
	if keys[0] == keys[1] {
		t.Errorf("retry reused key %q, want rotation", keys[0])
	}
}

func TestExecutor_PermanentErrorNoRetry(t *testing.T) {
	t.Parallel()

	permanent := errors.New("schema violation")
	inv := failInvoker(permanent)
	exec, err := generator.NewExecutor(inv, generator.NewKeyPool([]string{"k"}),
		generator.WithBaseDelay(time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	_, err = exec.Generate(context.Background(), generator.Request{})
	if !errors.Is(err, permanent) {
		t.Fatalf("err = %v, want %v", err, permanent)
	}
	if errors.Is(err, generator.ErrExhausted) {
		t.Error("permanent error wrapped in ErrExhausted, want passthrough")
	}
	if inv.Calls() != 1 {
		t.Errorf("calls = %d, want 1", inv.Calls())
	}
}

func TestExecutor_InvalidOutputNoRetry(t *testing.T) {
	t.Parallel()

	inv := failInvoker(generator.ErrInvalidOutput)
	exec, err := generator.NewExecutor(inv, generator.NewKeyPool([]string{"k"}),
		generator.WithBaseDelay(time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	_, err = exec.Generate(context.Background(), generator.Request{})
	if !errors.Is(err, generator.ErrInvalidOutput) {
		t.Fatalf("err = %v, want ErrInvalidOutput", err)
	}
	if inv.Calls() != 1 {
		t.Errorf("calls = %d, want 1", inv.Calls())
	}
}

func TestExecutor_ExhaustsBudget(t *testing.T) {
	t.Parallel()

	inv := failInvoker(generator.ErrUnavailable)
	exec, err := generator.NewExecutor(inv, generator.NewKeyPool([]string{"k1", "k2", "k3"}),
		generator.WithBaseDelay(time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	_, err = exec.Generate(context.Background(), generator.Request{})
	if !errors.Is(err, generator.ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}
	if !errors.Is(err, generator.ErrUnavailable) {
		t.Errorf("err = %v, want wrapped ErrUnavailable", err)
	}
	if inv.Calls() != 3 {
		t.Errorf("calls = %d, want 3", inv.Calls())
	}

	// Three attempts over a three-key pool must use each key once.
	keys := inv.Keys()
	seen := map[string]bool{}
	for _, k := range keys {
		seen[k] = true
	}
	if len(seen) != 3 {
		t.Errorf("distinct keys = %d (%v), want 3", len(seen), keys)
	}

	stats := exec.Stats()
	if stats.Attempts != 3 {
		t.Errorf("stats.Attempts = %d, want 3", stats.Attempts)
	}
	if stats.Retries != 2 {
		t.Errorf("stats.Retries = %d, want 2", stats.Retries)
	}
	if stats.Exhausted != 1 {
		t.Errorf("stats.Exhausted = %d, want 1", stats.Exhausted)
	}
}

func TestExecutor_MaxAttemptsOverride(t *testing.T) {
	t.Parallel()

	inv := failInvoker(generator.ErrUnavailable)
	exec, err := generator.NewExecutor(inv, generator.NewKeyPool([]string{"k"}),
		generator.WithMaxAttempts(1))
	if err != nil {
		t.Fatal(err)
	}

	_, err = exec.Generate(context.Background(), generator.Request{})
	if !errors.Is(err, generator.ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}
	if inv.Calls() != 1 {
		t.Errorf("calls = %d, want 1", inv.Calls())
	}
}

func TestExecutor_ContextCanceledDuringBackoff(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	inv := &generatortest.MockInvoker{}
	inv.GenerateFunc = func(_ context.Context, _ string, _ generator.Request) (*generator.Response, error) {
		cancel() // fail and cancel so the backoff select observes ctx.Done()
		return nil, generator.ErrUnavailable
	}

	exec, err := generator.NewExecutor(inv, generator.NewKeyPool([]string{"k"}),
		generator.WithBaseDelay(time.Minute))
	if err != nil {
		t.Fatal(err)
	}

	_, err = exec.Generate(ctx, generator.Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if inv.Calls() != 1 {
		t.Errorf("calls = %d, want 1", inv.Calls())
	}
}

func TestExecutor_ContextAlreadyCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inv := okInvoker(`{}`)
	exec, err := generator.NewExecutor(inv, generator.NewKeyPool([]string{"k"}))
	if err != nil {
		t.Fatal(err)
	}

	_, err = exec.Generate(ctx, generator.Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if inv.Calls() != 0 {
		t.Errorf("calls = %d, want 0", inv.Calls())
	}
}
