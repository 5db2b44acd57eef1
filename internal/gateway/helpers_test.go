package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/parley-dev/parley/internal/interview"
	"github.com/parley-dev/parley/internal/session"
)

// errGeneration simulates an upstream generation failure.
var errGeneration = errors.New("generator unavailable")

// stubController is a scripted interview controller. The opening call
// greets; each turn completes the pending question and asks a fixed
// follow-up. The transcript "goodbye" ends the interview and "fail"
// fails the turn.
type stubController struct {
	mu    sync.Mutex
	calls int
}

func (c *stubController) Advance(_ context.Context, in interview.Input) (*interview.Output, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	if in.Pending == nil {
		return &interview.Output{
			NextQuestion:     "Ready to begin?",
			NextQuestionType: interview.QuestionGreeting,
			State:            interview.StateGreeting,
		}, nil
	}

	switch in.Transcript {
	case "fail":
		return nil, errGeneration
	case "goodbye":
		return &interview.Output{
			Turn: &interview.ConversationTurn{
				Question:     in.Pending.Text,
				Answer:       in.Transcript,
				QuestionType: in.Pending.Type,
			},
			Feedback:         "Thanks for your time.",
			NextQuestion:     "Best of luck with your preparation.",
			NextQuestionType: interview.QuestionGeneral,
			IsInterviewOver:  true,
			State:            interview.StateConcluding,
		}, nil
	}

	return &interview.Output{
		Turn: &interview.ConversationTurn{
			Question:     in.Pending.Text,
			Answer:       in.Transcript,
			QuestionType: in.Pending.Type,
			Score:        7,
		},
		Feedback:         "Good answer.",
		Score:            7,
		IsCorrectAnswer:  true,
		NextQuestion:     "Tell me about a project you are proud of.",
		NextQuestionType: interview.QuestionGeneral,
		State:            interview.StateQuestioning,
	}, nil
}

func (c *stubController) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// disqualifyingController greets, then ends the first real turn with a
// disqualification.
type disqualifyingController struct{}

func (disqualifyingController) Advance(_ context.Context, in interview.Input) (*interview.Output, error) {
	if in.Pending == nil {
		return &interview.Output{
			NextQuestion:     "Ready to begin?",
			NextQuestionType: interview.QuestionGreeting,
			State:            interview.StateGreeting,
		}, nil
	}
	return &interview.Output{
		Turn: &interview.ConversationTurn{
			Question:     in.Pending.Text,
			Answer:       in.Transcript,
			QuestionType: in.Pending.Type,
		},
		NextQuestion:    "This session has ended.",
		IsInterviewOver: true,
		IsDisqualified:  true,
		State:           interview.StateDisqualified,
	}, nil
}

// newTestGateway builds a gateway over a fresh store and scripted
// controller.
func newTestGateway(t *testing.T, cfg Config, opts ...Option) (*Gateway, *session.Store) {
	t.Helper()

	store := session.NewStore()
	manager := session.NewManager(store, &stubController{})

	g, err := New(cfg, manager, store, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g, store
}

// createInterview drives POST /v1/interviews through the router and
// returns the opening turn.
func createInterview(t *testing.T, router http.Handler, jobRole string) TurnResponse {
	t.Helper()

	rr := postJSON(t, router, "/v1/interviews", map[string]any{"job_role": jobRole})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var resp TurnResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return resp
}

// postJSON serves a POST with a JSON body through the handler.
func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// freeAddr returns a free TCP address on localhost.
func freeAddr(t *testing.T) string {
	t.Helper()
	var lc net.ListenConfig
	ln, err := lc.Listen(t.Context(), "tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	if err := ln.Close(); err != nil {
		t.Fatal(err)
	}
	return addr
}

// doGet makes a GET request with context.
func doGet(t *testing.T, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

// doGetWithBearer makes a GET request with a bearer token.
func doGetWithBearer(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

// readBody drains and closes a response body.
func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
