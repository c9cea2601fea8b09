package core

import (
	"context"
	"sync"

	"github.com/agenthands/purify/internal/core/model"
)

type MockClassifier struct {
	Vectors map[string]model.ScoreVector
	Err     error
	Calls   int
}

func (m *MockClassifier) Classify(ctx context.Context, texts []string) ([]model.ScoreVector, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.ScoreVector, 0, len(texts))
	for _, t := range texts {
		if v, ok := m.Vectors[t]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

type MockRewriter struct {
	mu      sync.Mutex
	Replies map[string]error
	Seen    []string
}

func (m *MockRewriter) Rewrite(ctx context.Context, text string, labels []model.Label) (string, error) {
	m.mu.Lock()
	m.Seen = append(m.Seen, text)
	m.mu.Unlock()
	if err := m.Replies[text]; err != nil {
		return "", err
	}
	return "순화: " + text, nil
}
