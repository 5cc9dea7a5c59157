package benchmark

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rizome-dev/fmdeploygo/pkg/errors"
	"github.com/rizome-dev/fmdeploygo/pkg/models"
)

func TestAggregate(t *testing.T) {
	samples := []Sample{
		{Elapsed: 10 * time.Second, Tokens: 140},
		{Elapsed: 9 * time.Second, Tokens: 130},
	}

	result, err := Aggregate(samples)
	require.NoError(t, err)

	assert.Equal(t, 270, result.TotalTokens)
	assert.Equal(t, 19.0, result.TotalSeconds)
	// Throughput is exactly sum(tokens)/sum(seconds)
	assert.Equal(t, 270.0/19.0, result.TokensPerSecond)
	assert.Equal(t, samples, result.Samples)
}

func TestAggregateSingleSample(t *testing.T) {
	result, err := Aggregate([]Sample{{Elapsed: 2 * time.Second, Tokens: 50}})
	require.NoError(t, err)
	assert.Equal(t, 25.0, result.TokensPerSecond)
}

func TestAggregateNoSamples(t *testing.T) {
	_, err := Aggregate(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDegenerateBenchmark)
}

func TestAggregateZeroElapsed(t *testing.T) {
	_, err := Aggregate([]Sample{{Elapsed: 0, Tokens: 10}, {Elapsed: 0, Tokens: 20}})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDegenerateBenchmark)
}

// sequenceInvoker returns a different, numbered response per call so sample
// order is observable.
type sequenceInvoker struct {
	calls     int
	endpoints []string
}

func (s *sequenceInvoker) Invoke(ctx context.Context, endpointName string, req models.InvocationRequest) (*models.InvocationResponse, error) {
	s.calls++
	s.endpoints = append(s.endpoints, endpointName)
	// Call n answers with n whitespace-separated tokens
	text := strings.TrimSpace(strings.Repeat("tok ", s.calls))
	return &models.InvocationResponse{
		Generations: []models.Generation{{GeneratedText: text}},
	}, nil
}

type failingInvoker struct {
	calls int
	after int
}

func (f *failingInvoker) Invoke(ctx context.Context, endpointName string, req models.InvocationRequest) (*models.InvocationResponse, error) {
	f.calls++
	if f.calls > f.after {
		return nil, &errors.InvocationError{
			EndpointName: endpointName,
			Code:         errors.ErrorCodeEndpointNotReady,
		}
	}
	return &models.InvocationResponse{
		Generations: []models.Generation{{GeneratedText: "ok"}},
	}, nil
}

func TestRunnerProducesSamplesInOrder(t *testing.T) {
	invoker := &sequenceInvoker{}
	runner := NewRunner(invoker)

	result, err := runner.Run(context.Background(), "mistral-gptq", models.InvocationRequest{Inputs: "hi"})
	require.NoError(t, err)

	// Default ten iterations produce exactly ten samples in issue order
	require.Equal(t, DefaultIterations, len(result.Samples))
	assert.Equal(t, DefaultIterations, invoker.calls)
	for i, sample := range result.Samples {
		assert.Equal(t, i+1, sample.Tokens)
	}
	assert.Equal(t, 55, result.TotalTokens)

	for _, name := range invoker.endpoints {
		assert.Equal(t, "mistral-gptq", name)
	}
}

func TestRunnerCustomIterations(t *testing.T) {
	invoker := &sequenceInvoker{}
	runner := NewRunner(invoker, WithIterations(3))

	result, err := runner.Run(context.Background(), "mistral-gptq", models.InvocationRequest{Inputs: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 3, len(result.Samples))
}

func TestRunnerInvocationErrorAborts(t *testing.T) {
	invoker := &failingInvoker{after: 4}
	runner := NewRunner(invoker)

	_, err := runner.Run(context.Background(), "mistral-gptq", models.InvocationRequest{Inputs: "hi"})
	require.Error(t, err)
	assert.True(t, errors.IsInvocationError(err))
	assert.Equal(t, 5, invoker.calls)
}

func TestRunnerCustomTokenizer(t *testing.T) {
	invoker := &sequenceInvoker{}
	runner := NewRunner(invoker,
		WithIterations(2),
		WithTokenizer(TokenizerFunc(func(text string) int { return 7 })),
	)

	result, err := runner.Run(context.Background(), "mistral-gptq", models.InvocationRequest{Inputs: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 14, result.TotalTokens)
}
