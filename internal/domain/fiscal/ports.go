package fiscal

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrRemoteUnavailable wraps transport failures talking to the invoicing API
	ErrRemoteUnavailable = errors.New("fiscal: invoicing API unavailable")
	// ErrRemoteRejected wraps 4xx answers from the invoicing API
	ErrRemoteRejected = errors.New("fiscal: request rejected by invoicing API")
	// ErrRemoteNotFound is returned when the API has no invoice for a reference
	ErrRemoteNotFound = errors.New("fiscal: invoice not found on invoicing API")
	// ErrStatusRejected is returned by a Repository when the store refuses
	// the status value (check constraint violation)
	ErrStatusRejected = errors.New("fiscal: status value rejected by store")
)

// Gateway is the port to the external invoicing API
type Gateway interface {
	Emit(ctx context.Context, env Environment, ref string, inv Invoice) (*RemoteReport, error)
	Query(ctx context.Context, env Environment, ref string) (*RemoteReport, error)
	Cancel(ctx context.Context, env Environment, ref, justification string) (*RemoteReport, error)
	Download(ctx context.Context, link string) ([]byte, error)
}

// DocumentFilter narrows document listings
type DocumentFilter struct {
	Page        int
	PageSize    int
	Status      Status
	Environment Environment
	OrderID     uuid.UUID
}

// Repository persists fiscal documents
type Repository interface {
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*Document, error)
	FindByOrder(ctx context.Context, companyID, orderID uuid.UUID, env Environment) (*Document, error)
	FindAll(ctx context.Context, companyID uuid.UUID, filter DocumentFilter) ([]Document, int64, error)
	FindPending(ctx context.Context, companyID uuid.UUID, limit int) ([]Document, error)
	// Upsert updates the row with the document's ID if it exists, else inserts it.
	// status is the literal value written to the status column.
	Upsert(ctx context.Context, doc *Document, status string) error
}

// ArtifactStore archives invoice files
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}
