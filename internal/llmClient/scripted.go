package llmclient

import (
	"context"
	"errors"
	"sync"
)

// Reply is one scripted outcome: a response text or an error.
type Reply struct {
	Text string
	Err  error
}

// Call records a request a ScriptedClient received.
type Call struct {
	Prompt string
	Config GenerationConfig
}

// ScriptedClient replays queued replies in order and records every call.
// Once the queue is exhausted it answers with ErrScriptExhausted. It is
// safe for concurrent use.
type ScriptedClient struct {
	mu      sync.Mutex
	replies []Reply
	calls   []Call
}

var ErrScriptExhausted = errors.New("scripted client: no replies left")

func NewScriptedClient(replies ...Reply) *ScriptedClient {
	return &ScriptedClient{replies: replies}
}

func (s *ScriptedClient) Name() string { return "Scripted" }
func (s *ScriptedClient) Close() error { return nil }

func (s *ScriptedClient) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Prompt: prompt, Config: cfg})
	if len(s.replies) == 0 {
		return "", ErrScriptExhausted
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r.Text, r.Err
}

// Push appends replies to the queue.
func (s *ScriptedClient) Push(replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, replies...)
}

// Calls returns a copy of the recorded calls.
func (s *ScriptedClient) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}
