package fmdeploy

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/rizome-dev/fmdeploygo/pkg/models"
)

// Logger interface for custom logging
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// NopLogger discards all log output
type NopLogger struct{}

func (NopLogger) Debug(msg string, fields ...interface{}) {}
func (NopLogger) Info(msg string, fields ...interface{})  {}
func (NopLogger) Warn(msg string, fields ...interface{})  {}
func (NopLogger) Error(msg string, fields ...interface{}) {}

// ZapLogger implements Logger on top of a zap logger
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps the given zap logger
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: logger.Sugar()}
}

func (z *ZapLogger) Debug(msg string, fields ...interface{}) { z.sugar.Debugw(msg, fields...) }
func (z *ZapLogger) Info(msg string, fields ...interface{})  { z.sugar.Infow(msg, fields...) }
func (z *ZapLogger) Warn(msg string, fields ...interface{})  { z.sugar.Warnw(msg, fields...) }
func (z *ZapLogger) Error(msg string, fields ...interface{}) { z.sugar.Errorw(msg, fields...) }

// MetricsCollector records invocation metrics
type MetricsCollector interface {
	RecordLatency(endpointName string, duration time.Duration)
	RecordTokens(endpointName string, tokens int)
	RecordError(endpointName string)
}

// PrometheusCollector implements MetricsCollector with Prometheus metrics
type PrometheusCollector struct {
	latency *prometheus.HistogramVec
	tokens  *prometheus.CounterVec
	errs    *prometheus.CounterVec
}

// NewPrometheusCollector registers invocation metrics with reg
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)
	return &PrometheusCollector{
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fmdeploy_invocation_duration_seconds",
			Help:    "Wall-clock latency of endpoint invocations.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"endpoint"}),
		tokens: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fmdeploy_generated_tokens_total",
			Help: "Generated tokens counted across invocations.",
		}, []string{"endpoint"}),
		errs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fmdeploy_invocation_errors_total",
			Help: "Failed endpoint invocations.",
		}, []string{"endpoint"}),
	}
}

func (p *PrometheusCollector) RecordLatency(endpointName string, duration time.Duration) {
	p.latency.WithLabelValues(endpointName).Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordTokens(endpointName string, tokens int) {
	p.tokens.WithLabelValues(endpointName).Add(float64(tokens))
}

func (p *PrometheusCollector) RecordError(endpointName string) {
	p.errs.WithLabelValues(endpointName).Inc()
}

// ObservableInvoker wraps an Invoker with logging and metrics
type ObservableInvoker struct {
	next    Invoker
	logger  Logger
	metrics MetricsCollector
}

// NewObservableInvoker creates an observing wrapper around next. Either
// logger or metrics may be nil.
func NewObservableInvoker(next Invoker, logger Logger, metrics MetricsCollector) *ObservableInvoker {
	if logger == nil {
		logger = NopLogger{}
	}
	return &ObservableInvoker{next: next, logger: logger, metrics: metrics}
}

// Invoke performs the exchange while recording latency and outcome
func (o *ObservableInvoker) Invoke(ctx context.Context, endpointName string, req models.InvocationRequest) (*models.InvocationResponse, error) {
	start := time.Now()

	resp, err := o.next.Invoke(ctx, endpointName, req)
	duration := time.Since(start)

	if err != nil {
		if o.metrics != nil {
			o.metrics.RecordError(endpointName)
		}
		o.logger.Error("invocation failed",
			"endpoint", endpointName,
			"duration", duration,
			"error", err,
		)
		return nil, err
	}

	if o.metrics != nil {
		o.metrics.RecordLatency(endpointName, duration)
	}
	o.logger.Debug("invocation succeeded",
		"endpoint", endpointName,
		"duration", duration,
	)

	return resp, nil
}
