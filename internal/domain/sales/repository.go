package sales

import (
	"context"
	"time"

	"github.com/erp/backoffice/internal/domain/integration"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderFilter narrows order listings
type OrderFilter struct {
	shared.Filter
	Platform integration.PlatformCode
	Status   string
	From     *time.Time
	To       *time.Time
}

// OrderRepository persists orders
type OrderRepository interface {
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*Order, error)
	FindByExternalID(ctx context.Context, companyID uuid.UUID, platform integration.PlatformCode, externalID string) (*Order, error)
	FindAll(ctx context.Context, companyID uuid.UUID, filter OrderFilter) ([]Order, int64, error)
	Save(ctx context.Context, order *Order) error
}
