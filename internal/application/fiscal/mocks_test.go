package fiscal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/backoffice/internal/domain/fiscal"
	"github.com/erp/backoffice/internal/domain/integration"
	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockDocumentRepository is a mock implementation of fiscal.Repository
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*fiscal.Document, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscal.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByOrder(ctx context.Context, companyID, orderID uuid.UUID, env fiscal.Environment) (*fiscal.Document, error) {
	args := m.Called(ctx, companyID, orderID, env)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscal.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter fiscal.DocumentFilter) ([]fiscal.Document, int64, error) {
	args := m.Called(ctx, companyID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]fiscal.Document), args.Get(1).(int64), args.Error(2)
}

func (m *MockDocumentRepository) FindPending(ctx context.Context, companyID uuid.UUID, limit int) ([]fiscal.Document, error) {
	args := m.Called(ctx, companyID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fiscal.Document), args.Error(1)
}

func (m *MockDocumentRepository) Upsert(ctx context.Context, doc *fiscal.Document, status string) error {
	args := m.Called(ctx, doc, status)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of sales.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*sales.Order, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByExternalID(ctx context.Context, companyID uuid.UUID, platform integration.PlatformCode, externalID string) (*sales.Order, error) {
	args := m.Called(ctx, companyID, platform, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter sales.OrderFilter) ([]sales.Order, int64, error) {
	args := m.Called(ctx, companyID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]sales.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *sales.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// MockGateway is a mock implementation of fiscal.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Emit(ctx context.Context, env fiscal.Environment, ref string, inv fiscal.Invoice) (*fiscal.RemoteReport, error) {
	args := m.Called(ctx, env, ref, inv)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscal.RemoteReport), args.Error(1)
}

func (m *MockGateway) Query(ctx context.Context, env fiscal.Environment, ref string) (*fiscal.RemoteReport, error) {
	args := m.Called(ctx, env, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscal.RemoteReport), args.Error(1)
}

func (m *MockGateway) Cancel(ctx context.Context, env fiscal.Environment, ref, justification string) (*fiscal.RemoteReport, error) {
	args := m.Called(ctx, env, ref, justification)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscal.RemoteReport), args.Error(1)
}

func (m *MockGateway) Download(ctx context.Context, link string) ([]byte, error) {
	args := m.Called(ctx, link)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockLockStore is a mock implementation of shared.LockStore
type MockLockStore struct {
	mock.Mock
}

func (m *MockLockStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockLockStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockLockStore) Close() error {
	return nil
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// memoryDocuments is a concurrency-safe fiscal.Repository for batch tests
type memoryDocuments struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*fiscal.Document
}

func newMemoryDocuments(docs ...*fiscal.Document) *memoryDocuments {
	r := &memoryDocuments{docs: make(map[uuid.UUID]*fiscal.Document)}
	for _, d := range docs {
		r.docs[d.ID] = d
	}
	return r
}

func (r *memoryDocuments) FindByID(_ context.Context, companyID, id uuid.UUID) (*fiscal.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok || d.CompanyID != companyID {
		return nil, shared.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *memoryDocuments) FindByOrder(_ context.Context, companyID, orderID uuid.UUID, env fiscal.Environment) (*fiscal.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.CompanyID == companyID && d.OrderID == orderID && d.Environment == env {
			cp := *d
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryDocuments) FindAll(_ context.Context, companyID uuid.UUID, _ fiscal.DocumentFilter) ([]fiscal.Document, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []fiscal.Document
	for _, d := range r.docs {
		if d.CompanyID == companyID {
			out = append(out, *d)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memoryDocuments) FindPending(_ context.Context, companyID uuid.UUID, limit int) ([]fiscal.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []fiscal.Document
	for _, d := range r.docs {
		if d.CompanyID == companyID && d.Status == fiscal.StatusPending && len(out) < limit {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *memoryDocuments) Upsert(_ context.Context, doc *fiscal.Document, status string) error {
	if !fiscal.Status(status).IsValid() {
		return fiscal.ErrStatusRejected
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *doc
	cp.Status = fiscal.Status(status)
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memoryDocuments) get(id uuid.UUID) *fiscal.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.docs[id]
}

// countingGateway answers every query as authorized and tracks how many
// calls run at the same time.
type countingGateway struct {
	MockGateway
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
	failRef  string
}

func (g *countingGateway) Query(ctx context.Context, _ fiscal.Environment, ref string) (*fiscal.RemoteReport, error) {
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	g.calls.Add(1)
	for {
		peak := g.peak.Load()
		if n <= peak || g.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(g.delay):
	}
	if ref == g.failRef {
		return nil, fiscal.ErrRemoteUnavailable
	}
	return &fiscal.RemoteReport{Reference: ref, Status: "autorizado", SefazStatus: "100"}, nil
}
