package fmdeploy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rizome-dev/fmdeploygo/pkg/errors"
	"github.com/rizome-dev/fmdeploygo/pkg/models"
)

func TestCreateEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/endpoints", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req models.CreateEndpointRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		require.NoError(t, err)
		assert.Equal(t, "llama-7b-gptq", req.EndpointName)
		assert.Equal(t, "ml.g5.2xlarge", req.InstanceType)
		assert.Equal(t, 1, req.InitialInstanceCount)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.Endpoint{
			Name:         req.EndpointName,
			Status:       models.EndpointStatusCreating,
			InstanceType: req.InstanceType,
		})
	}))
	defer server.Close()

	client := NewClient("test-api-key", WithBaseURL(server.URL))

	endpoint, err := client.CreateEndpoint(context.Background(), models.CreateEndpointRequest{
		EndpointName:         "llama-7b-gptq",
		InstanceType:         "ml.g5.2xlarge",
		ImageURI:             "ghcr.io/huggingface/text-generation-inference:1.4.2",
		InitialInstanceCount: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, "llama-7b-gptq", endpoint.Name)
	assert.Equal(t, models.EndpointStatusCreating, endpoint.Status)
}

func TestCreateEndpointDuplicateName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error": {"code": 409, "message": "endpoint llama-7b-gptq already exists"}}`))
	}))
	defer server.Close()

	client := NewClient("test-api-key", WithBaseURL(server.URL))

	_, err := client.CreateEndpoint(context.Background(), models.CreateEndpointRequest{
		EndpointName:         "llama-7b-gptq",
		InstanceType:         "ml.g5.2xlarge",
		ImageURI:             "ghcr.io/huggingface/text-generation-inference:1.4.2",
		InitialInstanceCount: 1,
	})

	require.Error(t, err)
	assert.True(t, errors.IsDeploymentError(err))
	assert.True(t, errors.IsConflict(err))

	depErr := err.(*errors.DeploymentError)
	assert.Equal(t, "llama-7b-gptq", depErr.EndpointName)
	assert.Contains(t, depErr.Reason, "already exists")
}

func TestDescribeEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/endpoints/llama-7b-gptq", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.Endpoint{
			Name:         "llama-7b-gptq",
			Status:       models.EndpointStatusInService,
			InstanceType: "ml.g5.2xlarge",
		})
	}))
	defer server.Close()

	client := NewClient("test-api-key", WithBaseURL(server.URL))

	endpoint, err := client.DescribeEndpoint(context.Background(), "llama-7b-gptq")
	require.NoError(t, err)
	assert.Equal(t, models.EndpointStatusInService, endpoint.Status)
}

func TestListEndpoints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/endpoints", r.URL.Path)
		assert.Equal(t, "InService", r.URL.Query().Get("status"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.EndpointsResponse{
			Endpoints: []models.Endpoint{
				{Name: "llama-7b-bnb", Status: models.EndpointStatusInService},
				{Name: "llama-7b-gptq", Status: models.EndpointStatusInService},
			},
		})
	}))
	defer server.Close()

	client := NewClient("test-api-key", WithBaseURL(server.URL))

	resp, err := client.ListEndpoints(context.Background(), &ListEndpointsOptions{
		Status: models.EndpointStatusInService,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, len(resp.Endpoints))
	assert.Equal(t, "llama-7b-bnb", resp.Endpoints[0].Name)
}

func TestDeleteEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "DELETE", r.Method)
		assert.Equal(t, "/endpoints/llama-7b-gptq", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient("test-api-key", WithBaseURL(server.URL))

	err := client.DeleteEndpoint(context.Background(), "llama-7b-gptq")
	require.NoError(t, err)
}

func TestDeleteEndpointNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": {"code": 404, "message": "endpoint not found"}}`))
	}))
	defer server.Close()

	client := NewClient("test-api-key", WithBaseURL(server.URL))

	err := client.DeleteEndpoint(context.Background(), "never-existed")
	require.Error(t, err)
	assert.True(t, errors.IsDeploymentError(err))
	assert.True(t, errors.IsNotFound(err))
}

func TestWaitForInService(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		status := models.EndpointStatusCreating
		if n >= 3 {
			status = models.EndpointStatusInService
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.Endpoint{Name: "llama-7b-gptq", Status: status})
	}))
	defer server.Close()

	client := NewClient("test-api-key",
		WithBaseURL(server.URL),
		WithPollInterval(10*time.Millisecond),
	)

	endpoint, err := client.WaitForInService(context.Background(), "llama-7b-gptq")
	require.NoError(t, err)
	assert.Equal(t, models.EndpointStatusInService, endpoint.Status)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(3))
}

func TestWaitForInServiceFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.Endpoint{
			Name:          "llama-7b-gptq",
			Status:        models.EndpointStatusFailed,
			FailureReason: "CannotStartContainerError: ran out of GPU memory",
		})
	}))
	defer server.Close()

	client := NewClient("test-api-key",
		WithBaseURL(server.URL),
		WithPollInterval(10*time.Millisecond),
	)

	_, err := client.WaitForInService(context.Background(), "llama-7b-gptq")
	require.Error(t, err)

	depErr, ok := err.(*errors.DeploymentError)
	require.True(t, ok)
	assert.Equal(t, "llama-7b-gptq", depErr.EndpointName)
	assert.Contains(t, depErr.Reason, "ran out of GPU memory")
}

func TestWaitForInServiceContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.Endpoint{
			Name:   "llama-7b-gptq",
			Status: models.EndpointStatusCreating,
		})
	}))
	defer server.Close()

	client := NewClient("test-api-key",
		WithBaseURL(server.URL),
		WithPollInterval(50*time.Millisecond),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 75*time.Millisecond)
	defer cancel()

	_, err := client.WaitForInService(ctx, "llama-7b-gptq")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
