package telemetry

import (
	"context"

	"github.com/erp/backoffice/internal/infrastructure/config"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Providers bundles every telemetry pipeline started by Setup
type Providers struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
	Metrics  *BackofficeMetrics
}

// Setup starts tracing, metrics, the log bridge and the profiler from
// configuration. Disabled pipelines are no-ops.
func Setup(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*Providers, error) {
	base := Config{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		SamplingRatio:     cfg.SamplingRatio,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}

	p := &Providers{}
	var err error
	if p.Tracer, err = NewTracerProvider(ctx, base, logger); err != nil {
		return nil, err
	}
	if p.Meter, err = NewMeterProvider(ctx, base, logger); err != nil {
		return nil, multierr.Append(err, p.Shutdown(ctx))
	}

	logsCfg := base
	logsCfg.Enabled = cfg.Enabled && cfg.LogsEnabled
	if p.Logs, err = NewLoggerProvider(ctx, logsCfg, logger); err != nil {
		return nil, multierr.Append(err, p.Shutdown(ctx))
	}

	if p.Profiler, err = NewProfiler(ProfilerConfig{
		Enabled:         cfg.ProfilingEnabled,
		ServerAddress:   cfg.PyroscopeURL,
		ApplicationName: cfg.ServiceName,
	}, logger); err != nil {
		return nil, multierr.Append(err, p.Shutdown(ctx))
	}
	if p.Profiler.IsEnabled() {
		p.Tracer.EnableSpanProfiles()
	}

	if p.Metrics, err = NewBackofficeMetrics(p.Meter.Meter(TracerName)); err != nil {
		return nil, multierr.Append(err, p.Shutdown(ctx))
	}
	return p, nil
}

// Shutdown stops every pipeline and returns the combined errors
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs error
	if p.Profiler != nil {
		errs = multierr.Append(errs, p.Profiler.Stop())
	}
	if p.Logs != nil {
		errs = multierr.Append(errs, p.Logs.Shutdown(ctx))
	}
	if p.Meter != nil {
		errs = multierr.Append(errs, p.Meter.Shutdown(ctx))
	}
	if p.Tracer != nil {
		errs = multierr.Append(errs, p.Tracer.Shutdown(ctx))
	}
	return errs
}
