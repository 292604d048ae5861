package sales

import (
	"github.com/erp/backoffice/internal/domain/shared"
)

const (
	AggregateTypeOrder = "Order"

	EventTypeOrderImported      = "OrderImported"
	EventTypeOrderStatusChanged = "OrderStatusChanged"
)

// OrderImportedEvent is raised when an order is first captured
type OrderImportedEvent struct {
	shared.BaseDomainEvent
	Platform   string `json:"platform"`
	ExternalID string `json:"external_id"`
}

// NewOrderImportedEvent creates an OrderImportedEvent
func NewOrderImportedEvent(o *Order) *OrderImportedEvent {
	return &OrderImportedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderImported, AggregateTypeOrder, o.ID, o.CompanyID),
		Platform:        string(o.Platform),
		ExternalID:      o.ExternalID,
	}
}

// OrderStatusChangedEvent is raised when the marketplace reports a new status
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	ExternalID string `json:"external_id"`
	OldStatus  string `json:"old_status"`
	NewStatus  string `json:"new_status"`
	Zeroed     bool   `json:"zeroed"`
}

// NewOrderStatusChangedEvent creates an OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, oldStatus string) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID, o.CompanyID),
		ExternalID:      o.ExternalID,
		OldStatus:       oldStatus,
		NewStatus:       o.Status,
		Zeroed:          o.IsZeroed(),
	}
}
