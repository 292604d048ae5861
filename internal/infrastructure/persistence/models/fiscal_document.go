package models

import (
	"time"

	"github.com/erp/backoffice/internal/domain/fiscal"
	"github.com/google/uuid"
)

// FiscalDocumentModel is the persistence model for the fiscal Document aggregate.
// The status column only accepts the canonical status values.
type FiscalDocumentModel struct {
	AggregateModel
	CompanyID                 uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:uq_fiscal_documents_order_env,priority:1"`
	OrderID                   uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:uq_fiscal_documents_order_env,priority:2"`
	Environment               fiscal.Environment `gorm:"type:varchar(20);not null;uniqueIndex:uq_fiscal_documents_order_env,priority:3"`
	Reference                 string             `gorm:"type:varchar(64);not null;index"`
	Status                    string             `gorm:"type:varchar(20);not null;default:'pendente';index;check:chk_fiscal_documents_status,status IN ('pendente','autorizada','rejeitada','denegada','cancelada')"`
	RemoteStatus              string             `gorm:"type:varchar(50)"`
	SefazStatus               string             `gorm:"type:varchar(10)"`
	SefazMessage              string             `gorm:"type:text"`
	Number                    string             `gorm:"type:varchar(20)"`
	Series                    string             `gorm:"type:varchar(10)"`
	AccessKey                 string             `gorm:"type:varchar(44);index"`
	XMLBase64                 string             `gorm:"type:text;column:xml_base64"`
	PDFBase64                 string             `gorm:"type:text;column:pdf_base64"`
	XMLURL                    string             `gorm:"type:varchar(500);column:xml_url"`
	DANFEURL                  string             `gorm:"type:varchar(500);column:danfe_url"`
	XMLObjectKey              string             `gorm:"type:varchar(300);column:xml_object_key"`
	PDFObjectKey              string             `gorm:"type:varchar(300);column:pdf_object_key"`
	LastErrorCode             string             `gorm:"type:varchar(50)"`
	LastErrorMessage          string             `gorm:"type:text"`
	CancellationJustification string             `gorm:"type:varchar(255)"`
	AuthorizedAt              *time.Time
	CancelledAt               *time.Time
}

// TableName returns the table name for GORM
func (FiscalDocumentModel) TableName() string {
	return "fiscal_documents"
}

// ToDomain converts the persistence model to a domain Document. Stored
// status labels are normalized, so rows written under a non-canonical
// label read back as the canonical status.
func (m *FiscalDocumentModel) ToDomain() *fiscal.Document {
	d := &fiscal.Document{
		OrderID:                   m.OrderID,
		Environment:               m.Environment,
		Reference:                 m.Reference,
		Status:                    fiscal.NormalizeStatus(m.Status),
		RemoteStatus:              m.RemoteStatus,
		SefazStatus:               m.SefazStatus,
		SefazMessage:              m.SefazMessage,
		Number:                    m.Number,
		Series:                    m.Series,
		AccessKey:                 m.AccessKey,
		XMLBase64:                 m.XMLBase64,
		PDFBase64:                 m.PDFBase64,
		XMLURL:                    m.XMLURL,
		DANFEURL:                  m.DANFEURL,
		XMLObjectKey:              m.XMLObjectKey,
		PDFObjectKey:              m.PDFObjectKey,
		LastErrorCode:             m.LastErrorCode,
		LastErrorMessage:          m.LastErrorMessage,
		CancellationJustification: m.CancellationJustification,
		AuthorizedAt:              m.AuthorizedAt,
		CancelledAt:               m.CancelledAt,
	}
	m.PopulateAggregateRoot(&d.BaseAggregateRoot)
	d.CompanyID = m.CompanyID
	return d
}

// FromDomain populates the persistence model from a domain Document
func (m *FiscalDocumentModel) FromDomain(d *fiscal.Document) {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.CompanyID = d.CompanyID
	m.OrderID = d.OrderID
	m.Environment = d.Environment
	m.Reference = d.Reference
	m.Status = d.Status.String()
	m.RemoteStatus = d.RemoteStatus
	m.SefazStatus = d.SefazStatus
	m.SefazMessage = d.SefazMessage
	m.Number = d.Number
	m.Series = d.Series
	m.AccessKey = d.AccessKey
	m.XMLBase64 = d.XMLBase64
	m.PDFBase64 = d.PDFBase64
	m.XMLURL = d.XMLURL
	m.DANFEURL = d.DANFEURL
	m.XMLObjectKey = d.XMLObjectKey
	m.PDFObjectKey = d.PDFObjectKey
	m.LastErrorCode = d.LastErrorCode
	m.LastErrorMessage = d.LastErrorMessage
	m.CancellationJustification = d.CancellationJustification
	m.AuthorizedAt = d.AuthorizedAt
	m.CancelledAt = d.CancelledAt
}

// FiscalDocumentModelFromDomain creates a persistence model from a domain Document
func FiscalDocumentModelFromDomain(d *fiscal.Document) *FiscalDocumentModel {
	m := &FiscalDocumentModel{}
	m.FromDomain(d)
	return m
}
