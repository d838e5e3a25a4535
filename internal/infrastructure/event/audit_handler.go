package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/poscore/backend/internal/domain/finance"
	"github.com/poscore/backend/internal/domain/inventory"
	"github.com/poscore/backend/internal/domain/sales"
	"github.com/poscore/backend/internal/domain/shared"
)

// AuditLogHandler writes every domain event to the structured log. This is
// the audit trail for stock movements and ledger changes.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger}
}

// Handle logs the event
func (h *AuditLogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.logger.Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

// EventTypes returns every domain event type
func (h *AuditLogHandler) EventTypes() []string {
	return []string{
		inventory.EventTypeBatchReceived,
		inventory.EventTypeStockDeducted,
		inventory.EventTypeStockRestored,
		sales.EventTypeSaleCompleted,
		sales.EventTypeSaleCanceled,
		finance.EventTypeAccountBilled,
		finance.EventTypeBillingReversed,
		finance.EventTypePaymentApplied,
	}
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
