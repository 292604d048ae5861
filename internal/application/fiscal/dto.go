package fiscal

import (
	"time"

	"github.com/erp/backoffice/internal/domain/fiscal"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// DocumentResponse is the API view of a fiscal document
type DocumentResponse struct {
	ID               uuid.UUID  `json:"id"`
	OrderID          uuid.UUID  `json:"order_id"`
	Environment      string     `json:"environment"`
	Reference        string     `json:"reference"`
	Status           string     `json:"status"`
	RemoteStatus     string     `json:"remote_status,omitempty"`
	SefazStatus      string     `json:"sefaz_status,omitempty"`
	SefazMessage     string     `json:"sefaz_message,omitempty"`
	Number           string     `json:"number,omitempty"`
	Series           string     `json:"series,omitempty"`
	AccessKey        string     `json:"access_key,omitempty"`
	XMLURL           string     `json:"xml_url,omitempty"`
	DANFEURL         string     `json:"danfe_url,omitempty"`
	XMLObjectKey     string     `json:"xml_object_key,omitempty"`
	PDFObjectKey     string     `json:"pdf_object_key,omitempty"`
	LastErrorCode    string     `json:"last_error_code,omitempty"`
	LastErrorMessage string     `json:"last_error_message,omitempty"`
	OperatorMessage  string     `json:"operator_message,omitempty"`
	AuthorizedAt     *time.Time `json:"authorized_at,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ToDocumentResponse converts a domain document
func ToDocumentResponse(d *fiscal.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:               d.ID,
		OrderID:          d.OrderID,
		Environment:      d.Environment.String(),
		Reference:        d.Reference,
		Status:           d.Status.String(),
		RemoteStatus:     d.RemoteStatus,
		SefazStatus:      d.SefazStatus,
		SefazMessage:     d.SefazMessage,
		Number:           d.Number,
		Series:           d.Series,
		AccessKey:        d.AccessKey,
		XMLURL:           d.XMLURL,
		DANFEURL:         d.DANFEURL,
		XMLObjectKey:     d.XMLObjectKey,
		PDFObjectKey:     d.PDFObjectKey,
		LastErrorCode:    d.LastErrorCode,
		LastErrorMessage: d.LastErrorMessage,
		AuthorizedAt:     d.AuthorizedAt,
		CancelledAt:      d.CancelledAt,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	if d.LastErrorCode != "" {
		resp.OperatorMessage = fiscal.OperatorMessage(d.LastErrorCode)
	}
	return resp
}

// ToDocumentResponses converts a slice of domain documents
func ToDocumentResponses(docs []fiscal.Document) []DocumentResponse {
	out := make([]DocumentResponse, len(docs))
	for i := range docs {
		out[i] = ToDocumentResponse(&docs[i])
	}
	return out
}

// ItemResult is the outcome of one document in a batch
type ItemResult struct {
	DocumentID      uuid.UUID `json:"document_id"`
	Reference       string    `json:"reference,omitempty"`
	Status          string    `json:"status,omitempty"`
	OK              bool      `json:"ok"`
	Error           string    `json:"error,omitempty"`
	OperatorMessage string    `json:"operator_message,omitempty"`

	err error
}

// Err returns the failure behind the result, if any
func (r ItemResult) Err() error {
	return r.err
}

// BatchResult collects per-document outcomes. A failed item never aborts
// the rest of the batch.
type BatchResult struct {
	Items     []ItemResult `json:"items"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

// Err combines every item failure into one error, or nil
func (b BatchResult) Err() error {
	var err error
	for _, item := range b.Items {
		err = multierr.Append(err, item.err)
	}
	return err
}

func newBatchResult(items []ItemResult) BatchResult {
	res := BatchResult{Items: items}
	for _, item := range items {
		if item.OK {
			res.Succeeded++
		} else {
			res.Failed++
		}
	}
	return res
}

// ListDocumentsRequest filters a document listing
type ListDocumentsRequest struct {
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status      string `form:"status" binding:"omitempty,oneof=pendente autorizada rejeitada denegada cancelada"`
	Environment string `form:"environment"`
	OrderID     string `form:"order_id" binding:"omitempty,uuid"`
}

// ToFilter converts the query to a repository filter. Unknown environments are ignored.
func (r ListDocumentsRequest) ToFilter() fiscal.DocumentFilter {
	f := fiscal.DocumentFilter{
		Page:     r.Page,
		PageSize: r.PageSize,
		Status:   fiscal.Status(r.Status),
	}
	if env, ok := fiscal.ParseEnvironment(r.Environment); ok {
		f.Environment = env
	}
	if id, err := uuid.Parse(r.OrderID); err == nil {
		f.OrderID = id
	}
	return f
}
