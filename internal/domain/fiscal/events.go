package fiscal

import "github.com/erp/backoffice/internal/domain/shared"

const (
	AggregateTypeDocument = "FiscalDocument"

	EventTypeDocumentStatusChanged = "FiscalDocumentStatusChanged"
)

// DocumentStatusChangedEvent is raised when a remote report moves the status
type DocumentStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID     string `json:"order_id"`
	Environment string `json:"environment"`
	OldStatus   Status `json:"old_status"`
	NewStatus   Status `json:"new_status"`
	AccessKey   string `json:"access_key,omitempty"`
}

// NewDocumentStatusChangedEvent creates a DocumentStatusChangedEvent
func NewDocumentStatusChangedEvent(d *Document, oldStatus Status) *DocumentStatusChangedEvent {
	return &DocumentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentStatusChanged, AggregateTypeDocument, d.ID, d.CompanyID),
		OrderID:         d.OrderID.String(),
		Environment:     string(d.Environment),
		OldStatus:       oldStatus,
		NewStatus:       d.Status,
		AccessKey:       d.AccessKey,
	}
}
