package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/localrivet/redminemcp/internal/errortypes"
	"github.com/localrivet/redminemcp/internal/redmine"
	"github.com/localrivet/redminemcp/internal/telemetry"
	"github.com/localrivet/redminemcp/internal/tools"
)

// Dispatcher is the single entry point for invocations. It holds no mutable
// state besides metrics and is safe for concurrent use. It never retries.
type Dispatcher struct {
	registry *Registry
	caller   redmine.Caller
	logger   *slog.Logger
	metrics  *telemetry.MetricsCollector
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithMetrics enables metrics collection.
func WithMetrics(m *telemetry.MetricsCollector) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// New creates a Dispatcher over registry that sends remote calls through caller.
func New(registry *Registry, caller redmine.Caller, opts ...Option) *Dispatcher {
	d := &Dispatcher{registry: registry, caller: caller}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	d.metrics.SetGauge(telemetry.MetricRegisteredTools, float64(registry.Len()))
	return d
}

// Registry returns the registry the dispatcher routes over.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch runs one invocation. Every outcome, including a panicking
// handler, is returned as an Envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]interface{}) (env Envelope) {
	invocationID := uuid.NewString()
	start := time.Now()
	logger := d.logger.With("operation", name, "invocation_id", invocationID)

	d.metrics.IncrementCounter(telemetry.MetricDispatchTotal, 1)
	d.metrics.RecordTimestamp(telemetry.MetricDispatchLast)

	defer func() {
		if r := recover(); r != nil {
			d.metrics.IncrementCounter(telemetry.MetricDispatchPanics, 1)
			err := errortypes.InternalError(fmt.Errorf("panic: %v", r), "operation failed unexpectedly").
				WithField("stack", string(debug.Stack()))
			env = Failure(errortypes.WithOperation(err, name))
		}
		d.finish(logger, name, env, time.Since(start))
	}()

	tool, ok := d.registry.Lookup(name)
	if !ok {
		return Failure(errortypes.UnknownOperationError(name))
	}

	if args == nil {
		args = map[string]interface{}{}
	}
	if err := Validate(tool.Descriptor, args); err != nil {
		return Failure(errortypes.WithOperation(err, name))
	}

	logger.Debug("dispatching", "args", redactArgs(args))
	payload, err := tool.Handler(ctx, d.caller, tools.Args(args))
	if err != nil {
		return Failure(errortypes.WithOperation(err, name))
	}
	return Success(payload)
}

// finish records the outcome of one dispatch.
func (d *Dispatcher) finish(logger *slog.Logger, name string, env Envelope, elapsed time.Duration) {
	d.metrics.RecordTimer(telemetry.MetricDispatchDuration, elapsed)
	d.metrics.RecordTimer(telemetry.Name(telemetry.MetricDispatchDuration, name), elapsed)

	if env.Success {
		d.metrics.IncrementCounter(telemetry.MetricDispatchSuccess, 1)
		logger.Info("tool invocation", "outcome", "success", "duration", elapsed)
		return
	}

	d.metrics.IncrementCounter(telemetry.MetricDispatchFailure, 1)
	d.metrics.IncrementCounter(telemetry.Name(telemetry.MetricDispatchKind, env.Error.Kind), 1)
	attrs := []any{"outcome", string(env.Error.Kind), "duration", elapsed, "error", env.Error.Message}
	if env.Error.Status != 0 {
		attrs = append(attrs, "status", env.Error.Status)
	}
	if env.Error.ResourceID != "" {
		attrs = append(attrs, "resource_id", env.Error.ResourceID)
	}
	if env.Error.Kind == errortypes.KindInternal {
		logger.Error("tool invocation", attrs...)
		return
	}
	logger.Info("tool invocation", attrs...)
}

// redactArgs replaces file payloads with their size so debug logs stay small.
func redactArgs(args map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(args))
	for k, v := range args {
		if s, ok := v.(string); ok && k == "file_content" {
			out[k] = fmt.Sprintf("<%d bytes>", len(s))
			continue
		}
		out[k] = v
	}
	return out
}
