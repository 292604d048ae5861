package fiscal

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erp/backoffice/internal/domain/fiscal"
	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	defaultBatchConcurrency = 3
	defaultLockTTL          = 2 * time.Minute
	defaultPendingLimit     = 100
)

// Config tunes the fiscal service
type Config struct {
	DefaultEnvironment fiscal.Environment
	// LegacyStatusProbe retries rejected status writes with historical
	// spellings, for databases whose status constraint predates Status.
	LegacyStatusProbe bool
	BatchConcurrency  int
	BatchDelay        time.Duration
	EmissionLockTTL   time.Duration
	PendingLimit      int
	Invoice           InvoiceDefaults
}

func (c Config) withDefaults() Config {
	if !c.DefaultEnvironment.IsValid() {
		c.DefaultEnvironment = fiscal.EnvironmentHomologation
	}
	if c.BatchConcurrency < 1 {
		c.BatchConcurrency = defaultBatchConcurrency
	}
	if c.EmissionLockTTL <= 0 {
		c.EmissionLockTTL = defaultLockTTL
	}
	if c.PendingLimit <= 0 {
		c.PendingLimit = defaultPendingLimit
	}
	return c
}

// Result is the outcome of reconciling one remote report
type Result struct {
	OK         bool
	StatusUsed string
	Error      error
}

// Service emits, tracks and cancels NF-e documents
type Service struct {
	documents      fiscal.Repository
	orders         sales.OrderRepository
	gateway        fiscal.Gateway
	locks          shared.LockStore
	artifacts      fiscal.ArtifactStore
	eventPublisher shared.EventPublisher
	metrics        *telemetry.BackofficeMetrics
	config         Config
	logger         *zap.Logger
	now            func() time.Time
}

// NewService creates a new fiscal Service
func NewService(
	documents fiscal.Repository,
	orders sales.OrderRepository,
	gateway fiscal.Gateway,
	locks shared.LockStore,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		documents: documents,
		orders:    orders,
		gateway:   gateway,
		locks:     locks,
		config:    cfg.withDefaults(),
		logger:    logger,
		now:       time.Now,
	}
}

// SetArtifactStore enables archiving of authorized XML and DANFE files
func (s *Service) SetArtifactStore(store fiscal.ArtifactStore) {
	s.artifacts = store
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the metrics recorder
func (s *Service) SetMetrics(m *telemetry.BackofficeMetrics) {
	s.metrics = m
}

// DefaultEnvironment returns the environment used when a request names none
func (s *Service) DefaultEnvironment() fiscal.Environment {
	return s.config.DefaultEnvironment
}

// Get returns one document
func (s *Service) Get(ctx context.Context, companyID, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.documents.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// List returns a page of documents
func (s *Service) List(ctx context.Context, companyID uuid.UUID, filter fiscal.DocumentFilter) (shared.Paginated[DocumentResponse], error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	docs, total, err := s.documents.FindAll(ctx, companyID, filter)
	if err != nil {
		return shared.Paginated[DocumentResponse]{}, err
	}
	return shared.NewPaginated(ToDocumentResponses(docs), total, filter.Page, filter.PageSize), nil
}

// Emit sends the NF-e of an order for authorization and persists the answer.
// A reference lock keeps two emissions of the same invoice from racing.
func (s *Service) Emit(ctx context.Context, companyID, orderID uuid.UUID, env fiscal.Environment) (resp *DocumentResponse, err error) {
	if env == "" {
		env = s.config.DefaultEnvironment
	}
	ref := fiscal.BuildReference(orderID, env)
	ctx, span := telemetry.StartServiceSpan(ctx, "fiscal", "emit",
		telemetry.SpanAttrCompanyID, companyID.String(),
		telemetry.SpanAttrOrderID, orderID.String(),
		telemetry.SpanAttrEnvironment, env.String(),
		telemetry.SpanAttrReference, ref,
	)
	defer span.End()
	start := s.now()
	defer func() {
		telemetry.RecordError(span, err)
		s.recordOperation(ctx, "emit", resp, err, start)
	}()

	if !env.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENVIRONMENT", "Unknown fiscal environment: "+string(env))
	}

	order, err := s.orders.FindByID(ctx, companyID, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsZeroed() {
		return nil, ErrOrderZeroed
	}

	lockKey := "fiscal:emit:" + ref
	acquired, err := s.locks.Acquire(ctx, lockKey, s.config.EmissionLockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire emission lock: %w", err)
	}
	if !acquired {
		return nil, ErrEmissionInProgress
	}
	defer func() {
		if rerr := s.locks.Release(context.WithoutCancel(ctx), lockKey); rerr != nil {
			s.logger.Warn("Failed to release emission lock", zap.String("key", lockKey), zap.Error(rerr))
		}
	}()

	doc, err := s.documents.FindByOrder(ctx, companyID, orderID, env)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		doc, err = fiscal.NewDocument(companyID, orderID, env)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case !doc.CanEmit():
		return nil, ErrEmissionNotAllowed
	}

	inv := BuildInvoice(order, s.config.Invoice, s.now())
	report, err := s.gateway.Emit(ctx, env, doc.Reference, inv)
	if err != nil {
		s.persistFailure(ctx, doc, err)
		return nil, err
	}

	if res := s.ReconcileAndPersist(ctx, *report, doc); !res.OK {
		return nil, res.Error
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrStatus, doc.Status.String())

	out := ToDocumentResponse(doc)
	return &out, nil
}

// Sync fetches the current remote state of a document and persists it.
// Authorized documents get their XML and DANFE archived.
func (s *Service) Sync(ctx context.Context, companyID, documentID uuid.UUID) (resp *DocumentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fiscal", "sync",
		telemetry.SpanAttrCompanyID, companyID.String(),
		telemetry.SpanAttrDocumentID, documentID.String(),
	)
	defer span.End()
	start := s.now()
	defer func() {
		telemetry.RecordError(span, err)
		s.recordOperation(ctx, "sync", resp, err, start)
	}()

	doc, err := s.documents.FindByID(ctx, companyID, documentID)
	if err != nil {
		return nil, err
	}
	return s.syncDocument(ctx, doc)
}

func (s *Service) syncDocument(ctx context.Context, doc *fiscal.Document) (*DocumentResponse, error) {
	report, err := s.gateway.Query(ctx, doc.Environment, doc.Reference)
	if err != nil {
		s.persistFailure(ctx, doc, err)
		return nil, err
	}

	res := s.ReconcileAndPersist(ctx, *report, doc)
	if !res.OK {
		return nil, res.Error
	}

	if doc.Status == fiscal.StatusAuthorized {
		changed, aerr := s.archive(ctx, doc)
		if aerr != nil {
			s.logger.Warn("Failed to archive fiscal artifacts",
				zap.String("reference", doc.Reference),
				zap.Error(aerr),
			)
		}
		if changed {
			if err := s.documents.Upsert(ctx, doc, res.StatusUsed); err != nil {
				return nil, fmt.Errorf("failed to record archived artifacts: %w", err)
			}
		}
	}

	out := ToDocumentResponse(doc)
	return &out, nil
}

// Cancel asks SEFAZ to cancel an authorized invoice. The justification and
// the status are checked before any remote call.
func (s *Service) Cancel(ctx context.Context, companyID, documentID uuid.UUID, justification string) (resp *DocumentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fiscal", "cancel",
		telemetry.SpanAttrCompanyID, companyID.String(),
		telemetry.SpanAttrDocumentID, documentID.String(),
	)
	defer span.End()
	start := s.now()
	defer func() {
		telemetry.RecordError(span, err)
		s.recordOperation(ctx, "cancel", resp, err, start)
	}()

	doc, err := s.documents.FindByID(ctx, companyID, documentID)
	if err != nil {
		return nil, err
	}
	if err := doc.RequestCancellation(justification); err != nil {
		return nil, err
	}

	report, err := s.gateway.Cancel(ctx, doc.Environment, doc.Reference, doc.CancellationJustification)
	if err != nil {
		s.persistFailure(ctx, doc, err)
		return nil, err
	}

	if res := s.ReconcileAndPersist(ctx, *report, doc); !res.OK {
		return nil, res.Error
	}
	out := ToDocumentResponse(doc)
	return &out, nil
}

// ReconcileAndPersist folds a remote report into doc and upserts it. The
// normalized status is written; with the legacy probe enabled, spellings
// refused by the status constraint are retried in LegacyStatusCandidates
// order. Any other store error stops immediately.
func (s *Service) ReconcileAndPersist(ctx context.Context, remote fiscal.RemoteReport, doc *fiscal.Document) Result {
	previous := doc.ApplyRemote(remote)

	used, err := s.storeDocument(ctx, doc)
	if err == nil {
		if previous != doc.Status {
			s.logger.Info("Fiscal document status changed",
				zap.String("reference", doc.Reference),
				zap.String("from", previous.String()),
				zap.String("to", doc.Status.String()),
			)
		}
		s.publishEvents(ctx, doc)
		return Result{OK: true, StatusUsed: used}
	}

	s.logger.Error("Failed to persist fiscal document",
		zap.String("reference", doc.Reference),
		zap.String("status", doc.Status.String()),
		zap.Error(err),
	)
	return Result{Error: fmt.Errorf("failed to persist fiscal document %s: %w", doc.Reference, err)}
}

// storeDocument upserts doc and returns the status spelling the store
// accepted. Only a constraint refusal moves on to the next candidate.
func (s *Service) storeDocument(ctx context.Context, doc *fiscal.Document) (string, error) {
	candidates := []string{doc.Status.String()}
	if s.config.LegacyStatusProbe {
		candidates = fiscal.LegacyStatusCandidates(doc.Status)
	}

	var lastErr error
	for _, candidate := range candidates {
		err := s.documents.Upsert(ctx, doc, candidate)
		if err == nil {
			if candidate != doc.Status.String() {
				s.logger.Info("Fiscal status stored with legacy spelling",
					zap.String("reference", doc.Reference),
					zap.String("status", doc.Status.String()),
					zap.String("stored_as", candidate),
				)
			}
			return candidate, nil
		}
		lastErr = err
		if !errors.Is(err, fiscal.ErrStatusRejected) {
			break
		}
	}
	return "", lastErr
}

// SyncBatch syncs the given documents in windows of BatchConcurrency
// concurrent calls, pausing BatchDelay between windows. Cancelling ctx stops
// new windows from starting; unstarted items are reported as failed.
func (s *Service) SyncBatch(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) BatchResult {
	results := make([]ItemResult, len(ids))
	window := s.config.BatchConcurrency

	for start := 0; start < len(ids); start += window {
		if start > 0 && s.config.BatchDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.config.BatchDelay):
			}
		}
		if err := ctx.Err(); err != nil {
			for i := start; i < len(ids); i++ {
				results[i] = failedItem(ids[i], "", err)
			}
			break
		}

		end := min(start+window, len(ids))
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = s.syncItem(ctx, companyID, ids[i])
			}(i)
		}
		wg.Wait()
	}

	res := newBatchResult(results)
	s.logger.Info("Fiscal batch sync finished",
		zap.String("company_id", companyID.String()),
		zap.Int("total", len(ids)),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed),
	)
	return res
}

// SyncPending syncs every document of the company still waiting for SEFAZ
func (s *Service) SyncPending(ctx context.Context, companyID uuid.UUID) (BatchResult, error) {
	docs, err := s.documents.FindPending(ctx, companyID, s.config.PendingLimit)
	if err != nil {
		return BatchResult{}, err
	}
	ids := make([]uuid.UUID, len(docs))
	for i := range docs {
		ids[i] = docs[i].ID
	}
	return s.SyncBatch(ctx, companyID, ids), nil
}

// SyncPendingTask adapts SyncPending to a per-company job. Item failures are
// combined into the returned error.
func (s *Service) SyncPendingTask(ctx context.Context, companyID uuid.UUID) error {
	res, err := s.SyncPending(ctx, companyID)
	if err != nil {
		return err
	}
	return res.Err()
}

func (s *Service) syncItem(ctx context.Context, companyID, id uuid.UUID) ItemResult {
	resp, err := s.Sync(ctx, companyID, id)
	if err != nil {
		return failedItem(id, "", err)
	}
	item := ItemResult{
		DocumentID: id,
		Reference:  resp.Reference,
		Status:     resp.Status,
		OK:         true,
	}
	if resp.SefazStatus != "" && fiscal.HasOperatorMessage(resp.SefazStatus) {
		item.OperatorMessage = fiscal.OperatorMessage(resp.SefazStatus)
	}
	return item
}

func failedItem(id uuid.UUID, ref string, err error) ItemResult {
	return ItemResult{
		DocumentID:      id,
		Reference:       ref,
		Error:           err.Error(),
		OperatorMessage: OperatorMessageFor(err),
		err:             fmt.Errorf("document %s: %w", id, err),
	}
}

// archive stores XML and DANFE of an authorized document. It reports
// whether any object key was recorded.
func (s *Service) archive(ctx context.Context, doc *fiscal.Document) (bool, error) {
	if s.artifacts == nil {
		return false, nil
	}
	prefix := fmt.Sprintf("nfe/%s/%s", doc.CompanyID, doc.Reference)

	var errs error
	changed := false
	if doc.XMLObjectKey == "" {
		key := prefix + ".xml"
		if err := s.storeArtifact(ctx, key, doc.XMLBase64, doc.XMLURL, "application/xml"); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("xml: %w", err))
		} else {
			doc.XMLObjectKey = key
			changed = true
		}
	}
	if doc.PDFObjectKey == "" {
		key := prefix + ".pdf"
		if err := s.storeArtifact(ctx, key, doc.PDFBase64, doc.DANFEURL, "application/pdf"); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("danfe: %w", err))
		} else {
			doc.PDFObjectKey = key
			changed = true
		}
	}
	return changed, errs
}

func (s *Service) storeArtifact(ctx context.Context, key, inline, link, contentType string) error {
	var data []byte
	switch {
	case inline != "":
		decoded, err := base64.StdEncoding.DecodeString(inline)
		if err != nil {
			return fmt.Errorf("invalid base64 content: %w", err)
		}
		data = decoded
	case link != "":
		downloaded, err := s.gateway.Download(ctx, link)
		if err != nil {
			return err
		}
		data = downloaded
	default:
		return errors.New("no content or link available")
	}
	return s.artifacts.Put(ctx, key, data, contentType)
}

// persistFailure records a remote error on the document so operators see it.
// Documents never stored before are inserted as pending.
func (s *Service) persistFailure(ctx context.Context, doc *fiscal.Document, cause error) {
	code := errorCode(cause)
	doc.RecordFailure(code, cause.Error())
	if _, err := s.storeDocument(ctx, doc); err != nil {
		s.logger.Warn("Failed to record fiscal failure",
			zap.String("reference", doc.Reference),
			zap.Error(err),
		)
	}
}

func (s *Service) publishEvents(ctx context.Context, doc *fiscal.Document) {
	if s.eventPublisher == nil {
		doc.ClearDomainEvents()
		return
	}
	if err := s.eventPublisher.Publish(ctx, doc.GetDomainEvents()...); err != nil {
		s.logger.Warn("Failed to publish fiscal events",
			zap.String("reference", doc.Reference),
			zap.Error(err),
		)
	}
	doc.ClearDomainEvents()
}

func (s *Service) recordOperation(ctx context.Context, op string, resp *DocumentResponse, err error, start time.Time) {
	status := ""
	if resp != nil {
		status = resp.Status
	}
	s.metrics.RecordFiscalOperation(ctx, op, status, err, s.now().Sub(start))
}
