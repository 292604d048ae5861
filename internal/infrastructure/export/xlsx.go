// Package export renders reports into downloadable spreadsheets.
package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	ordersSheet  = "Pedidos"
	summarySheet = "Resumo"

	dateFormat  = "dd/mm/yyyy hh:mm"
	moneyFormat = `"R$" #,##0.00;[Red]-"R$" #,##0.00`
)

var orderHeaders = []string{
	"Pedido", "Canal", "Status", "Comprador", "Data",
	"Valor bruto", "Frete recebido", "Frete pago", "Frete líquido", "Comissão",
	"Impostos", "Impostos %", "Custo produto", "Custos extras", "Cupom",
	"Valor líquido", "Lucro", "Margem", "Margem %",
}

var _ sales.FinancialExporter = (*XLSXExporter)(nil)

// XLSXExporter writes financial reports as Excel workbooks
type XLSXExporter struct{}

// NewXLSXExporter creates an exporter
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// ContentType returns the workbook MIME type
func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension returns the file extension without the dot
func (e *XLSXExporter) Extension() string {
	return "xlsx"
}

// ExportFinancials writes one row per order plus a summary sheet
func (e *XLSXExporter) ExportFinancials(ctx context.Context, rows []sales.OrderFinancials, summary sales.FinancialSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return nil, fmt.Errorf("export: rename sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	for i, h := range orderHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(ordersSheet, cell, h); err != nil {
			return nil, err
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(orderHeaders))
	if err := f.SetCellStyle(ordersSheet, "A1", lastCol+"1", styles.header); err != nil {
		return nil, err
	}

	for i, r := range rows {
		if i%500 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row := i + 2
		values := []any{
			r.ExternalID, r.Platform.DisplayName(), r.Status, r.BuyerName, r.PlacedAt,
			money(r.Gross), money(r.ShippingReceived), money(r.ShippingCost), money(r.NetShippingCost), money(r.Commission),
			money(r.Taxes), percent(r.TaxPercent.Mul(decimal.NewFromInt(100))), money(r.ProductCost), money(r.ExtraCosts), money(r.Coupon),
			money(r.NetReceivable), money(r.Profit), money(r.MarginValue), percent(r.MarginPercent),
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(ordersSheet, start, &values); err != nil {
			return nil, fmt.Errorf("export: row %d: %w", row, err)
		}
	}

	if n := len(rows); n > 0 {
		last := n + 1
		_ = f.SetCellStyle(ordersSheet, "E2", fmt.Sprintf("E%d", last), styles.date)
		_ = f.SetCellStyle(ordersSheet, "F2", fmt.Sprintf("K%d", last), styles.money)
		_ = f.SetCellStyle(ordersSheet, "L2", fmt.Sprintf("L%d", last), styles.percent)
		_ = f.SetCellStyle(ordersSheet, "M2", fmt.Sprintf("R%d", last), styles.money)
		_ = f.SetCellStyle(ordersSheet, "S2", fmt.Sprintf("S%d", last), styles.percent)
	}
	_ = f.SetColWidth(ordersSheet, "A", "A", 22)
	_ = f.SetColWidth(ordersSheet, "B", "D", 18)
	_ = f.SetColWidth(ordersSheet, "E", "E", 17)
	_ = f.SetColWidth(ordersSheet, "F", lastCol, 14)
	_ = f.SetPanes(ordersSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	if err := writeSummary(f, summary, styles); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("export: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, s sales.FinancialSummary, styles cellStyles) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("export: create summary sheet: %w", err)
	}
	lines := []struct {
		label string
		value any
		style int
	}{
		{"Pedidos", s.Orders, 0},
		{"Cancelados/devolvidos", s.ZeroedOrders, 0},
		{"Valor bruto", money(s.Gross), styles.money},
		{"Valor líquido", money(s.NetReceivable), styles.money},
		{"Lucro", money(s.Profit), styles.money},
		{"Margem", money(s.MarginValue), styles.money},
		{"Margem %", percent(s.MarginPercent), styles.percent},
	}
	for i, l := range lines {
		row := i + 1
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), l.label); err != nil {
			return err
		}
		cell := fmt.Sprintf("B%d", row)
		if err := f.SetCellValue(summarySheet, cell, l.value); err != nil {
			return err
		}
		if l.style != 0 {
			_ = f.SetCellStyle(summarySheet, cell, cell, l.style)
		}
	}
	_ = f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(lines)), styles.header)
	_ = f.SetColWidth(summarySheet, "A", "A", 24)
	_ = f.SetColWidth(summarySheet, "B", "B", 16)
	return nil
}

type cellStyles struct {
	header  int
	money   int
	percent int
	date    int
}

func newStyles(f *excelize.File) (cellStyles, error) {
	var s cellStyles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E7E6E6"}},
	}); err != nil {
		return s, fmt.Errorf("export: header style: %w", err)
	}
	moneyFmt := moneyFormat
	if s.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt}); err != nil {
		return s, fmt.Errorf("export: money style: %w", err)
	}
	pctFmt := `0.00"%"`
	if s.percent, err = f.NewStyle(&excelize.Style{CustomNumFmt: &pctFmt}); err != nil {
		return s, fmt.Errorf("export: percent style: %w", err)
	}
	dateFmt := dateFormat
	if s.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt}); err != nil {
		return s, fmt.Errorf("export: date style: %w", err)
	}
	return s, nil
}

// money rounds to cents; cells hold numbers so spreadsheet formulas keep working
func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func percent(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
