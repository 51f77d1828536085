package orchestration

import (
	"context"
	"fmt"

	"github.com/felipeah-dev/echo-app/internal/logger"
	"github.com/felipeah-dev/echo-app/internal/models"
	"go.uber.org/zap"
)

// Integration delivers a deal to one external platform and returns a short
// human-readable confirmation.
type Integration interface {
	Target() models.SyncTarget
	Send(ctx context.Context, deal models.Deal) (string, error)
}

// MockIntegration logs what it would have sent instead of calling the
// platform. It is the default for every target.
type MockIntegration struct {
	target  models.SyncTarget
	message func(models.Deal) string
	logger  *zap.Logger
}

var _ Integration = (*MockIntegration)(nil)

// Target returns the platform this integration serves
func (m *MockIntegration) Target() models.SyncTarget {
	return m.target
}

// Send logs the outbound payload and reports success
func (m *MockIntegration) Send(ctx context.Context, deal models.Deal) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.logger.Info("integration_mock_send",
		zap.String("target", string(m.target)),
		zap.String("deal_id", logger.SanitizeString(deal.DealID, 200)),
		zap.Float64("amount", deal.Amount),
	)
	return m.message(deal), nil
}

// NewMockChat returns the mock chat integration
func NewMockChat(log *zap.Logger) *MockIntegration {
	return newMock(models.TargetChat, log, func(models.Deal) string {
		return "Mock: Message sent to chat"
	})
}

// NewMockSpreadsheet returns the mock spreadsheet integration
func NewMockSpreadsheet(log *zap.Logger) *MockIntegration {
	return newMock(models.TargetSpreadsheet, log, func(models.Deal) string {
		return "Mock: Row appended to sheet"
	})
}

// NewMockEmail returns the mock email integration. recipient is used when the
// deal carries no customer email; an empty recipient falls back to
// test@example.com.
func NewMockEmail(log *zap.Logger, recipient string) *MockIntegration {
	if recipient == "" {
		recipient = "test@example.com"
	}
	return newMock(models.TargetEmail, log, func(d models.Deal) string {
		to := recipient
		if d.CustomerEmail != "" {
			to = d.CustomerEmail
		}
		return fmt.Sprintf("Mock: Email sent to %s", to)
	})
}

// NewMockCalendar returns the mock calendar integration
func NewMockCalendar(log *zap.Logger) *MockIntegration {
	return newMock(models.TargetCalendar, log, func(d models.Deal) string {
		return fmt.Sprintf("Mock: Event created - Follow-up: %s", d.Customer)
	})
}

func newMock(target models.SyncTarget, log *zap.Logger, message func(models.Deal) string) *MockIntegration {
	if log == nil {
		log = zap.NewNop()
	}
	return &MockIntegration{target: target, message: message, logger: log}
}

// DefaultIntegrations returns a mock integration for every known target
func DefaultIntegrations(log *zap.Logger, emailRecipient string) []Integration {
	return []Integration{
		NewMockChat(log),
		NewMockSpreadsheet(log),
		NewMockEmail(log, emailRecipient),
		NewMockCalendar(log),
	}
}
