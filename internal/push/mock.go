package push

import (
	"context"
	"errors"
	"sync"

	"github.com/Veraticus/expense-tracker/internal/model"
)

// ErrMockRejected is returned for tokens a MockGateway is told to reject.
var ErrMockRejected = errors.New("token rejected")

// MockGateway is a PushGateway that records what it was asked to send.
type MockGateway struct {
	Reject map[string]bool
	Sent   []SentMessage
	mu     sync.Mutex
}

// SentMessage is a single recorded delivery.
type SentMessage struct {
	Token string
	Title string
	Body  string
}

// NewMockGateway creates a mock gateway that accepts every token.
func NewMockGateway() *MockGateway {
	return &MockGateway{Reject: make(map[string]bool)}
}

// Send implements service.PushGateway.
func (m *MockGateway) Send(_ context.Context, tokens []string, title, body string) []model.SendResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]model.SendResult, 0, len(tokens))
	for _, token := range tokens {
		if m.Reject[token] {
			results = append(results, model.SendResult{Token: token, Err: ErrMockRejected})
			continue
		}
		m.Sent = append(m.Sent, SentMessage{Token: token, Title: title, Body: body})
		results = append(results, model.SendResult{Token: token, MessageID: "mock-" + token})
	}
	return results
}

// Messages returns a copy of everything sent so far.
func (m *MockGateway) Messages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]SentMessage, len(m.Sent))
	copy(out, m.Sent)
	return out
}
