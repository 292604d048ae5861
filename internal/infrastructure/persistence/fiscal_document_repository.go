package persistence

import (
	"context"

	"github.com/erp/backoffice/internal/domain/fiscal"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFiscalDocumentRepository implements fiscal.Repository using GORM
type GormFiscalDocumentRepository struct {
	db *gorm.DB
}

// NewGormFiscalDocumentRepository creates a new GormFiscalDocumentRepository
func NewGormFiscalDocumentRepository(db *gorm.DB) *GormFiscalDocumentRepository {
	return &GormFiscalDocumentRepository{db: db}
}

// FindByID finds a document by ID within a company
func (r *GormFiscalDocumentRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*fiscal.Document, error) {
	var model models.FiscalDocumentModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByOrder finds the document of an order in one environment
func (r *GormFiscalDocumentRepository) FindByOrder(ctx context.Context, companyID, orderID uuid.UUID, env fiscal.Environment) (*fiscal.Document, error) {
	var model models.FiscalDocumentModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND order_id = ? AND environment = ?", companyID, orderID, env).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists a company's documents, newest first
func (r *GormFiscalDocumentRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter fiscal.DocumentFilter) ([]fiscal.Document, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.FiscalDocumentModel{}).Where("company_id = ?", companyID)
	if filter.Status != "" {
		query = query.Where("status IN ?", fiscal.StoredSpellings(filter.Status))
	}
	if filter.Environment != "" {
		query = query.Where("environment = ?", filter.Environment)
	}
	if filter.OrderID != uuid.Nil {
		query = query.Where("order_id = ?", filter.OrderID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("updated_at DESC")
	if paging := (shared.Filter{Page: filter.Page, PageSize: filter.PageSize}); paging.Paged() {
		query = query.Offset(paging.Offset()).Limit(paging.PageSize)
	}

	var rows []models.FiscalDocumentModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toDocuments(rows), total, nil
}

// FindPending returns the documents still waiting for a final answer, oldest
// first. Rows stored under a legacy pending spelling are included.
func (r *GormFiscalDocumentRepository) FindPending(ctx context.Context, companyID uuid.UUID, limit int) ([]fiscal.Document, error) {
	query := r.db.WithContext(ctx).
		Where("company_id = ? AND status IN ?", companyID, fiscal.StoredSpellings(fiscal.StatusPending)).
		Order("updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.FiscalDocumentModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDocuments(rows), nil
}

// Upsert writes the document with status as the literal status column value.
// The row with the document's ID is updated when present, otherwise a new row
// is inserted. A status the column refuses yields fiscal.ErrStatusRejected.
func (r *GormFiscalDocumentRepository) Upsert(ctx context.Context, doc *fiscal.Document, status string) error {
	model := models.FiscalDocumentModelFromDomain(doc)
	model.Status = status

	result := r.db.WithContext(ctx).
		Model(&models.FiscalDocumentModel{}).
		Where("company_id = ? AND id = ?", model.CompanyID, model.ID).
		Select("*").
		Omit("id", "company_id", "created_at").
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

func toDocuments(rows []models.FiscalDocumentModel) []fiscal.Document {
	docs := make([]fiscal.Document, 0, len(rows))
	for i := range rows {
		docs = append(docs, *rows[i].ToDomain())
	}
	return docs
}
