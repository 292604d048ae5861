package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// BackofficeMetrics records invoice and order import activity. A nil
// *BackofficeMetrics is valid and records nothing.
type BackofficeMetrics struct {
	fiscalOperations *Counter
	fiscalDuration   *Histogram
	ordersImported   *Counter
	ordersFailed     *Counter
}

// NewBackofficeMetrics registers the instruments on meter
func NewBackofficeMetrics(meter metric.Meter) (*BackofficeMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		m   BackofficeMetrics
		err error
	)
	if m.fiscalOperations, err = NewCounter(meter,
		"backoffice_fiscal_operations_total",
		"Invoice operations by resulting status", "{operations}"); err != nil {
		return nil, err
	}
	if m.fiscalDuration, err = NewHistogram(meter,
		"backoffice_fiscal_operation_duration_seconds",
		"Invoice operation latency including the invoicing API call", "s",
		RemoteCallBuckets...); err != nil {
		return nil, err
	}
	if m.ordersImported, err = NewCounter(meter,
		"backoffice_orders_imported_total",
		"Marketplace orders stored by import", "{orders}"); err != nil {
		return nil, err
	}
	if m.ordersFailed, err = NewCounter(meter,
		"backoffice_orders_import_failed_total",
		"Marketplace orders that failed conversion or persistence", "{orders}"); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordFiscalOperation records one emit, sync or cancel
func (m *BackofficeMetrics) RecordFiscalOperation(ctx context.Context, operation, status string, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.fiscalOperations.Inc(ctx, AttrOperation.String(operation), AttrStatus.String(status), AttrOutcome.String(outcome))
	m.fiscalDuration.RecordDuration(ctx, d, AttrOperation.String(operation), AttrOutcome.String(outcome))
}

// RecordOrderImport records the outcome of one import run
func (m *BackofficeMetrics) RecordOrderImport(ctx context.Context, platform string, imported, failed int) {
	if m == nil {
		return
	}
	if imported > 0 {
		m.ordersImported.Add(ctx, int64(imported), AttrPlatform.String(platform))
	}
	if failed > 0 {
		m.ordersFailed.Add(ctx, int64(failed), AttrPlatform.String(platform))
	}
}
