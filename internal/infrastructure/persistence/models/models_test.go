package models

import (
	"testing"

	"github.com/erp/backoffice/internal/domain/fiscal"
	"github.com/erp/backoffice/internal/domain/integration"
	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderModel_RoundTripKeepsAggregateFields(t *testing.T) {
	companyID := uuid.New()
	item := sales.NewLineItem("Caneca", "CAN-1", 50, 2)
	order, err := sales.NewOrder(companyID, integration.PlatformMercadoLivre, "2000001", []sales.LineItem{item}, decimal.NewFromInt(100))
	require.NoError(t, err)
	order.ApplyMarketplaceUpdate("Pago", "approved", "ready_to_ship")

	got := OrderModelFromDomain(order).ToDomain()

	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, companyID, got.CompanyID)
	assert.Equal(t, order.Version, got.Version)
	assert.Equal(t, "Pago", got.Status)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].Subtotal().Equal(decimal.NewFromInt(100)))
	assert.Empty(t, got.GetDomainEvents(), "rehydrated aggregates carry no pending events")
}

func TestFiscalDocumentModel_ToDomainNormalizesStoredStatus(t *testing.T) {
	doc, err := fiscal.NewDocument(uuid.New(), uuid.New(), fiscal.EnvironmentHomologation)
	require.NoError(t, err)

	m := FiscalDocumentModelFromDomain(doc)
	assert.Equal(t, "pendente", m.Status)

	m.Status = "Autorizada"
	assert.Equal(t, fiscal.StatusAuthorized, m.ToDomain().Status)
	assert.Equal(t, doc.Reference, m.ToDomain().Reference)
}
