package sales

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/erp/backoffice/internal/domain/integration"
	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/csvimport"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const manualCSV = `order_id;placed_at;status;buyer_name;sku;item;quantity;unit_price;total;shipping_received;taxes;product_cost
B-1;15/03/2024;pago;Maria Lima;SKU-1;Caneca;2;50,00;;10,00;8,50;40,00
B-1;15/03/2024;;;SKU-2;Prato;1;30,00;;;;
B-2;16/03/2024;Enviado;Ana;SKU-3;Copo;1;25,00;25,00;;;
B-3;ontem;Pago;Rui;SKU-4;Jarra;1;10,00;;;;
`

func TestOrderService_ImportManualOrders(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("groups rows and skips invalid orders", func(t *testing.T) {
		f := newOrderFixture(companyID)
		existing, err := sales.NewOrder(companyID, integration.PlatformManual, "B-2", nil, decimal.NewFromInt(1))
		require.NoError(t, err)
		existing.ApplyMarketplaceUpdate(integration.OrderStatusPaid, "", "")
		require.NoError(t, existing.SetCosts(decimal.NewFromInt(12), decimal.NewFromInt(3)))

		f.repo.On("FindByExternalID", mock.Anything, companyID, integration.PlatformManual, "B-1").Return(nil, shared.ErrNotFound)
		f.repo.On("FindByExternalID", mock.Anything, companyID, integration.PlatformManual, "B-2").Return(existing, nil)
		var saved []*sales.Order
		f.repo.On("Save", mock.Anything, mock.AnythingOfType("*sales.Order")).
			Run(func(args mock.Arguments) { saved = append(saved, args.Get(1).(*sales.Order)) }).
			Return(nil)

		res, err := f.service.ImportManualOrders(ctx, companyID, strings.NewReader(manualCSV))
		require.NoError(t, err)
		assert.Equal(t, 4, res.TotalRows)
		assert.Equal(t, 3, res.Orders)
		assert.Equal(t, 1, res.Created)
		assert.Equal(t, 1, res.Updated)
		assert.Equal(t, 1, res.Failed)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "placed_at", res.Errors[0].Column)
		assert.Equal(t, 5, res.Errors[0].Line)

		require.Len(t, saved, 2)
		created := saved[0]
		assert.Equal(t, integration.PlatformManual, created.Platform)
		assert.Equal(t, integration.OrderStatusPaid, created.Status)
		assert.Equal(t, "Maria Lima", created.BuyerName)
		require.Len(t, created.Items, 2)
		assert.True(t, created.Total.Equal(decimal.NewFromInt(130)), "total falls back to the item subtotal, got %s", created.Total)
		assert.True(t, created.Taxes.Equal(decimal.RequireFromString("8.5")))
		assert.True(t, created.ProductCost.Equal(decimal.NewFromInt(40)))
		assert.Equal(t, 2024, created.PlacedAt.Year())

		assert.Equal(t, integration.OrderStatusShipped, existing.Status)
		assert.True(t, existing.ProductCost.Equal(decimal.NewFromInt(12)), "blank cost columns keep stored costs")
		assert.True(t, existing.ExtraCosts.Equal(decimal.NewFromInt(3)))
	})

	t.Run("save failure is reported per order", func(t *testing.T) {
		f := newOrderFixture(companyID)
		f.repo.On("FindByExternalID", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)
		f.repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down"))

		res, err := f.service.ImportManualOrders(ctx, companyID, strings.NewReader("order_id,placed_at\nX-1,2024-03-15\n"))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Failed)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, csvimport.ErrCodeNotSaved, res.Errors[0].Code)
		assert.Equal(t, "X-1", res.Errors[0].Value)
	})

	t.Run("rejects unusable files", func(t *testing.T) {
		tests := []struct {
			name  string
			input string
		}{
			{"empty", ""},
			{"missing columns", "order_id,total\n1,10\n"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newOrderFixture(companyID)
				_, err := f.service.ImportManualOrders(ctx, companyID, strings.NewReader(tt.input))
				assert.ErrorIs(t, err, shared.ErrInvalidInput)
				f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			})
		}
	})
}
