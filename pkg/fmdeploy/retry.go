package fmdeploy

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rizome-dev/fmdeploygo/pkg/errors"
	"github.com/rizome-dev/fmdeploygo/pkg/models"
)

// RetryConfig represents retry configuration for invocations
type RetryConfig struct {
	MaxRetries      int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	JitterFactor    float64
	RetryableErrors map[errors.ErrorCode]bool
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:    3,
		InitialDelay:  1 * time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
		RetryableErrors: map[errors.ErrorCode]bool{
			errors.ErrorCodeTimeout:          true,
			errors.ErrorCodeRateLimited:      true,
			errors.ErrorCodeEndpointNotReady: true,
		},
	}
}

// RetryInvoker wraps an Invoker with retry logic. Invoke itself never
// retries; this wrapper is the higher-level retry the caller opts into.
// Deployments are terminal on failure and are never wrapped this way.
type RetryInvoker struct {
	next   Invoker
	config *RetryConfig
}

// NewRetryInvoker creates a retrying wrapper around next
func NewRetryInvoker(next Invoker, config *RetryConfig) *RetryInvoker {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &RetryInvoker{next: next, config: config}
}

// Invoke performs the exchange, retrying retryable invocation errors with
// exponential backoff
func (r *RetryInvoker) Invoke(ctx context.Context, endpointName string, req models.InvocationRequest) (*models.InvocationResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.calculateDelay(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := r.next.Invoke(ctx, endpointName, req)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !r.isRetryable(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// calculateDelay calculates the delay for a given attempt
func (r *RetryInvoker) calculateDelay(attempt int) time.Duration {
	delay := float64(r.config.InitialDelay) * math.Pow(r.config.BackoffFactor, float64(attempt-1))

	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}

	jitter := delay * r.config.JitterFactor * (2*rand.Float64() - 1)
	delay += jitter

	return time.Duration(delay)
}

// isRetryable checks if an error is retryable
func (r *RetryInvoker) isRetryable(err error) bool {
	invErr, ok := err.(*errors.InvocationError)
	if !ok {
		return false
	}

	return r.config.RetryableErrors[invErr.Code]
}
