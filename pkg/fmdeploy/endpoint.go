package fmdeploy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/rizome-dev/fmdeploygo/pkg/errors"
	"github.com/rizome-dev/fmdeploygo/pkg/models"
)

// CreateEndpoint issues a single create-and-deploy request. The platform
// rejects duplicate endpoint names with a conflict; the existing endpoint is
// never overwritten.
func (c *Client) CreateEndpoint(ctx context.Context, req models.CreateEndpointRequest) (*models.Endpoint, error) {
	resp, err := c.doRequest(ctx, "POST", "/endpoints", req)
	if err != nil {
		return nil, &errors.DeploymentError{
			EndpointName: req.EndpointName,
			Reason:       reasonOf(err),
			Cause:        err,
		}
	}
	defer resp.Body.Close()

	var endpoint models.Endpoint
	if err := json.NewDecoder(resp.Body).Decode(&endpoint); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &endpoint, nil
}

// DescribeEndpoint returns the current state of a named endpoint
func (c *Client) DescribeEndpoint(ctx context.Context, endpointName string) (*models.Endpoint, error) {
	resp, err := c.doRequest(ctx, "GET", "/endpoints/"+url.PathEscape(endpointName), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var endpoint models.Endpoint
	if err := json.NewDecoder(resp.Body).Decode(&endpoint); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &endpoint, nil
}

// ListEndpointsOptions contains options for listing endpoints
type ListEndpointsOptions struct {
	Status models.EndpointStatus
	Limit  int
}

// ListEndpoints returns the endpoints owned by the account
func (c *Client) ListEndpoints(ctx context.Context, opts *ListEndpointsOptions) (*models.EndpointsResponse, error) {
	endpoint := "/endpoints"
	if opts != nil {
		params := url.Values{}
		if opts.Status != "" {
			params.Set("status", string(opts.Status))
		}
		if opts.Limit > 0 {
			params.Set("limit", fmt.Sprintf("%d", opts.Limit))
		}
		if len(params) > 0 {
			endpoint += "?" + params.Encode()
		}
	}

	resp, err := c.doRequest(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result models.EndpointsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// DeleteEndpoint tears down a named endpoint. The endpoint is a billable
// resource; callers own its eventual teardown.
func (c *Client) DeleteEndpoint(ctx context.Context, endpointName string) error {
	resp, err := c.doRequest(ctx, "DELETE", "/endpoints/"+url.PathEscape(endpointName), nil)
	if err != nil {
		return &errors.DeploymentError{
			EndpointName: endpointName,
			Reason:       reasonOf(err),
			Cause:        err,
		}
	}
	defer resp.Body.Close()

	c.logger.Info("endpoint deleted", "endpoint", endpointName)
	return nil
}

// WaitForInService blocks until the platform reports the endpoint InService
// or Failed. A Failed endpoint is terminal: the call returns a
// DeploymentError carrying the platform-reported reason and no retry is
// performed.
func (c *Client) WaitForInService(ctx context.Context, endpointName string) (*models.Endpoint, error) {
	started := time.Now()
	for {
		endpoint, err := c.DescribeEndpoint(ctx, endpointName)
		if err != nil {
			return nil, &errors.DeploymentError{
				EndpointName: endpointName,
				Reason:       reasonOf(err),
				Cause:        err,
			}
		}

		switch endpoint.Status {
		case models.EndpointStatusInService:
			c.logger.Info("endpoint in service",
				"endpoint", endpointName,
				"waited", time.Since(started).Round(time.Second),
			)
			return endpoint, nil
		case models.EndpointStatusFailed:
			return nil, &errors.DeploymentError{
				EndpointName: endpointName,
				Reason:       endpoint.FailureReason,
			}
		case models.EndpointStatusDeleting, models.EndpointStatusDeleted:
			return nil, &errors.DeploymentError{
				EndpointName: endpointName,
				Reason:       fmt.Sprintf("endpoint entered status %s while waiting", endpoint.Status),
			}
		}

		c.logger.Debug("waiting for endpoint",
			"endpoint", endpointName,
			"status", endpoint.Status,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// reasonOf extracts a human-readable reason from a platform or transport error
func reasonOf(err error) string {
	if apiErr, ok := err.(*errors.APIError); ok {
		if apiErr.Reason != "" {
			return apiErr.Reason
		}
		return apiErr.Message
	}
	return err.Error()
}
