// Package benchmark estimates steady-state generation throughput for a
// deployed endpoint by timing a fixed number of sequential invocations.
package benchmark

import (
	"context"
	"time"

	"github.com/rizome-dev/fmdeploygo/pkg/errors"
	"github.com/rizome-dev/fmdeploygo/pkg/fmdeploy"
	"github.com/rizome-dev/fmdeploygo/pkg/models"
)

// DefaultIterations is the default number of timed invocations per run
const DefaultIterations = 10

// Sample is one timed invocation: wall-clock elapsed time and the number of
// tokens the response text decoded into.
type Sample struct {
	Elapsed time.Duration
	Tokens  int
}

// Result aggregates the samples of one benchmark run
type Result struct {
	Samples         []Sample
	TotalTokens     int
	TotalSeconds    float64
	TokensPerSecond float64
}

// Aggregate computes aggregate throughput over the recorded samples:
// sum(tokens) / sum(seconds). It reports no percentiles or variance. A run
// whose samples carry zero total elapsed time returns
// errors.ErrDegenerateBenchmark instead of dividing by zero.
func Aggregate(samples []Sample) (*Result, error) {
	var totalTokens int
	var totalSeconds float64
	for _, s := range samples {
		totalTokens += s.Tokens
		totalSeconds += s.Elapsed.Seconds()
	}

	if totalSeconds == 0 {
		return nil, errors.ErrDegenerateBenchmark
	}

	return &Result{
		Samples:         samples,
		TotalTokens:     totalTokens,
		TotalSeconds:    totalSeconds,
		TokensPerSecond: float64(totalTokens) / totalSeconds,
	}, nil
}

// Invoker is the single data-plane call the runner depends on.
// *fmdeploy.Client satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, endpointName string, req models.InvocationRequest) (*models.InvocationResponse, error)
}

// Runner times sequential invocations of a fixed endpoint and request body
type Runner struct {
	invoker    Invoker
	tokenizer  Tokenizer
	iterations int
	logger     fmdeploy.Logger
	metrics    fmdeploy.MetricsCollector
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithIterations sets the number of timed invocations per run
func WithIterations(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.iterations = n
		}
	}
}

// WithTokenizer sets the tokenizer used to count generated tokens
func WithTokenizer(t Tokenizer) RunnerOption {
	return func(r *Runner) {
		r.tokenizer = t
	}
}

// WithLogger sets the logger used during runs
func WithLogger(l fmdeploy.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithMetrics records per-invocation token counts to the collector
func WithMetrics(m fmdeploy.MetricsCollector) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// NewRunner creates a benchmark runner over the given invoker
func NewRunner(invoker Invoker, opts ...RunnerOption) *Runner {
	r := &Runner{
		invoker:    invoker,
		tokenizer:  WhitespaceTokenizer{},
		iterations: DefaultIterations,
		logger:     fmdeploy.NopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run invokes the endpoint with the fixed request body once per iteration,
// recording (elapsed, tokens) samples in issue order, then aggregates them.
// The first call after deployment is the cold start and is deliberately
// included in the aggregate, biasing measured throughput downward; the run
// is reproducible, not corrected. Any invocation error aborts the run.
func (r *Runner) Run(ctx context.Context, endpointName string, req models.InvocationRequest) (*Result, error) {
	samples := make([]Sample, 0, r.iterations)

	for i := 0; i < r.iterations; i++ {
		start := time.Now()
		resp, err := r.invoker.Invoke(ctx, endpointName, req)
		if err != nil {
			return nil, err
		}
		elapsed := time.Since(start)

		tokens := r.tokenizer.CountTokens(resp.GeneratedText())
		samples = append(samples, Sample{Elapsed: elapsed, Tokens: tokens})

		if r.metrics != nil {
			r.metrics.RecordTokens(endpointName, tokens)
		}
		r.logger.Debug("benchmark sample",
			"endpoint", endpointName,
			"iteration", i+1,
			"elapsed", elapsed,
			"tokens", tokens,
		)
	}

	result, err := Aggregate(samples)
	if err != nil {
		return nil, err
	}

	r.logger.Info("benchmark complete",
		"endpoint", endpointName,
		"iterations", r.iterations,
		"total_tokens", result.TotalTokens,
		"tokens_per_second", result.TokensPerSecond,
	)
	return result, nil
}
