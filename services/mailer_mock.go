package services

import (
	"context"
	"sync"
)

// MockMailer records sent messages for tests
type MockMailer struct {
	Err  error
	sent []EmailMessage
	mu   sync.Mutex
}

func (m *MockMailer) Send(ctx context.Context, msg EmailMessage) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

// Sent returns a copy of the recorded messages
func (m *MockMailer) Sent() []EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailMessage, len(m.sent))
	copy(out, m.sent)
	return out
}
