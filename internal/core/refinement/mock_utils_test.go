package refinement

import (
	"context"
	"sync"

	"github.com/agenthands/purify/internal/core/model"
	"github.com/agenthands/purify/internal/llm"
)

type MockLLMClient struct {
	Response   string
	Err        error
	LastPrompt llm.Prompt
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt llm.Prompt) (string, error) {
	m.LastPrompt = prompt
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// MockRewriter answers per input text. Each entry in Script is consumed by
// successive calls for that text; the last entry repeats.
type MockRewriter struct {
	mu     sync.Mutex
	Script map[string][]MockReply
	Calls  map[string]int
}

type MockReply struct {
	Text  string
	Err   error
	Panic any
	Block bool
}

func NewMockRewriter(script map[string][]MockReply) *MockRewriter {
	return &MockRewriter{Script: script, Calls: map[string]int{}}
}

func (m *MockRewriter) Rewrite(ctx context.Context, text string, labels []model.Label) (string, error) {
	m.mu.Lock()
	n := m.Calls[text]
	m.Calls[text] = n + 1
	replies := m.Script[text]
	m.mu.Unlock()

	if len(replies) == 0 {
		return text + " (refined)", nil
	}
	if n >= len(replies) {
		n = len(replies) - 1
	}
	reply := replies[n]

	if reply.Panic != nil {
		panic(reply.Panic)
	}
	if reply.Block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return reply.Text, reply.Err
}

func (m *MockRewriter) CallCount(text string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[text]
}
