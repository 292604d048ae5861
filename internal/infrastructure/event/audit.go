package event

import (
	"context"
	"encoding/json"

	"github.com/erp/backoffice/internal/domain/fiscal"
	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuditLogHandler writes every event it receives to the log as one structured
// entry, so status history can be rebuilt from the log pipeline.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates an AuditLogHandler
func NewAuditLogHandler(l *zap.Logger) *AuditLogHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &AuditLogHandler{logger: l.Named("audit")}
}

// EventTypes lists the events worth auditing
func (h *AuditLogHandler) EventTypes() []string {
	return []string{
		fiscal.EventTypeDocumentStatusChanged,
		sales.EventTypeOrderImported,
		sales.EventTypeOrderStatusChanged,
	}
}

// Handle logs the event with its payload
func (h *AuditLogHandler) Handle(ctx context.Context, e shared.DomainEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	fields := []zap.Field{
		zap.String("event_type", e.EventType()),
		zap.String("event_id", e.EventID().String()),
		zap.String("aggregate_type", e.AggregateType()),
		zap.String("aggregate_id", e.AggregateID().String()),
		zap.Time("occurred_at", e.OccurredAt()),
		zap.ByteString("payload", payload),
	}
	if changed, ok := e.(*fiscal.DocumentStatusChangedEvent); ok && changed.NewStatus == fiscal.StatusRejected {
		logger.WithLogger(ctx, h.logger).Warn("Fiscal document rejected", fields...)
		return nil
	}
	logger.WithLogger(ctx, h.logger).Info("Domain event", fields...)
	return nil
}
