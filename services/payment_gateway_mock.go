package services

import (
	"context"
	"sync"
)

// MockPaymentGateway approves every payment unless told otherwise
type MockPaymentGateway struct {
	ConfirmErr error  // returned by Confirm when set
	CancelErr  error  // returned by Cancel when set
	Status     string // status reported by Confirm, DONE when empty
	AmountDiff int64  // added to the confirmed amount to simulate a tampered payment

	ConfirmCalls []string // payment keys
	CancelCalls  []string // payment keys
	mu           sync.Mutex
}

// NewMockPaymentGateway creates a gateway that approves payments
func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{}
}

// Confirm records the call and echoes the payment back
func (m *MockPaymentGateway) Confirm(ctx context.Context, paymentKey, orderID string, amount int64) (*Payment, error) {
	m.mu.Lock()
	m.ConfirmCalls = append(m.ConfirmCalls, paymentKey)
	m.mu.Unlock()

	if m.ConfirmErr != nil {
		return nil, m.ConfirmErr
	}

	status := m.Status
	if status == "" {
		status = PaymentStatusDone
	}
	return &Payment{
		PaymentKey:  paymentKey,
		OrderID:     orderID,
		Status:      status,
		Method:      "카드",
		TotalAmount: amount + m.AmountDiff,
		ApprovedAt:  "2025-03-01T14:00:00+09:00",
	}, nil
}

// Cancel records the refund
func (m *MockPaymentGateway) Cancel(ctx context.Context, paymentKey, reason string) error {
	m.mu.Lock()
	m.CancelCalls = append(m.CancelCalls, paymentKey)
	m.mu.Unlock()
	return m.CancelErr
}

// ConfirmCount returns how many times Confirm was called
func (m *MockPaymentGateway) ConfirmCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ConfirmCalls)
}

// CancelCount returns how many times Cancel was called
func (m *MockPaymentGateway) CancelCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.CancelCalls)
}
