package fiscal

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// Document is one invoice attempt for an order in one environment. The
// (company, order, environment) triple is unique.
type Document struct {
	shared.CompanyAggregateRoot
	OrderID                   uuid.UUID
	Environment               Environment
	Reference                 string
	Status                    Status
	RemoteStatus              string
	SefazStatus               string
	SefazMessage              string
	Number                    string
	Series                    string
	AccessKey                 string
	XMLBase64                 string
	PDFBase64                 string
	XMLURL                    string
	DANFEURL                  string
	XMLObjectKey              string
	PDFObjectKey              string
	LastErrorCode             string
	LastErrorMessage          string
	CancellationJustification string
	AuthorizedAt              *time.Time
	CancelledAt               *time.Time
}

// BuildReference derives the invoice reference sent to the invoicing API.
// It is stable for an order and environment, so retries hit the same invoice.
func BuildReference(orderID uuid.UUID, env Environment) string {
	return fmt.Sprintf("%s-%s", strings.ReplaceAll(orderID.String(), "-", ""), env.Suffix())
}

// NewDocument creates a pending document for an order
func NewDocument(companyID, orderID uuid.UUID, env Environment) (*Document, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if !env.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENVIRONMENT", "Unknown fiscal environment: "+string(env))
	}
	return &Document{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		OrderID:              orderID,
		Environment:          env,
		Reference:            BuildReference(orderID, env),
		Status:               StatusPending,
	}, nil
}

// ApplyRemote folds a remote report into the document and returns the
// previous status. Fields the report leaves empty keep their current value.
func (d *Document) ApplyRemote(r RemoteReport) Status {
	previous := d.Status
	next := r.ResolveStatus(d.Status)

	d.Status = next
	d.RemoteStatus = r.RawStatus()
	setIfPresent(&d.SefazStatus, r.SefazStatus)
	setIfPresent(&d.SefazMessage, r.SefazMessage)
	setIfPresent(&d.Number, r.Number)
	setIfPresent(&d.Series, r.Series)
	setIfPresent(&d.AccessKey, r.AccessKey)
	setIfPresent(&d.XMLBase64, r.XMLBase64)
	setIfPresent(&d.PDFBase64, r.PDFBase64)
	setIfPresent(&d.XMLURL, r.XMLURL)
	setIfPresent(&d.DANFEURL, r.DANFEURL)
	d.LastErrorCode = r.ErrorCode
	d.LastErrorMessage = r.ErrorMessage

	now := time.Now()
	if next == StatusAuthorized && d.AuthorizedAt == nil {
		d.AuthorizedAt = &now
	}
	if next == StatusCancelled && d.CancelledAt == nil {
		d.CancelledAt = &now
	}
	d.Touch()

	if previous != next {
		d.AddDomainEvent(NewDocumentStatusChangedEvent(d, previous))
	}
	return previous
}

// RecordFailure stores an error returned by the invoicing API without
// touching the status.
func (d *Document) RecordFailure(code, message string) {
	d.LastErrorCode = code
	d.LastErrorMessage = message
	d.Touch()
}

// RequestCancellation validates a cancellation before any remote call. Only
// authorized invoices can be cancelled.
func (d *Document) RequestCancellation(justification string) error {
	reason, err := ValidateJustification(justification)
	if err != nil {
		return err
	}
	if d.Status != StatusAuthorized || !d.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel invoice in status %s", d.Status))
	}
	d.CancellationJustification = reason
	d.Touch()
	return nil
}

// CanEmit reports whether sending the invoice again makes sense
func (d *Document) CanEmit() bool {
	switch d.Status {
	case StatusPending, StatusRejected:
		return true
	}
	return false
}

// HasArtifacts reports whether XML and DANFE are known, inline or by link
func (d *Document) HasArtifacts() bool {
	hasXML := d.XMLBase64 != "" || d.XMLURL != ""
	hasPDF := d.PDFBase64 != "" || d.DANFEURL != ""
	return hasXML && hasPDF
}

func setIfPresent(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = v
	}
}
