package persistence

import (
	"context"

	"github.com/erp/backoffice/internal/domain/integration"
	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements sales.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by ID within a company
func (r *GormOrderRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*sales.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByExternalID finds an order by its marketplace identifier
func (r *GormOrderRepository) FindByExternalID(ctx context.Context, companyID uuid.UUID, platform integration.PlatformCode, externalID string) (*sales.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND platform = ? AND external_id = ?", companyID, platform, externalID).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists a company's orders and returns the unpaginated total
func (r *GormOrderRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter sales.OrderFilter) ([]sales.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("company_id = ?", companyID)
	if filter.Platform != "" {
		query = query.Where("platform = ?", filter.Platform)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("placed_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("placed_at < ?", *filter.To)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("external_id LIKE ? OR buyer_name LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(clause.OrderByColumn{
		Column: clause.Column{Name: orderSortColumn(filter.OrderBy)},
		Desc:   filter.OrderDir != "asc",
	})
	if filter.Paged() {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.OrderModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	orders := make([]sales.Order, 0, len(rows))
	for i := range rows {
		orders = append(orders, *rows[i].ToDomain())
	}
	return orders, total, nil
}

// Save inserts or updates an order. The marketplace key
// (company, platform, external id) decides which row is updated.
func (r *GormOrderRepository) Save(ctx context.Context, order *sales.Order) error {
	model := models.OrderModelFromDomain(order)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "company_id"}, {Name: "platform"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "payment_status", "shipment_status", "items", "total",
			"shipping_received", "shipping_cost", "commission", "taxes", "coupon",
			"product_cost", "extra_costs", "buyer_name", "buyer_document", "updated_at",
		}),
	}).Create(model).Error
	return translateError(err)
}

var orderSortColumns = map[string]string{
	"placed_at":   "placed_at",
	"created_at":  "created_at",
	"total":       "total",
	"status":      "status",
	"external_id": "external_id",
}

func orderSortColumn(s string) string {
	if col, ok := orderSortColumns[s]; ok {
		return col
	}
	return "placed_at"
}
