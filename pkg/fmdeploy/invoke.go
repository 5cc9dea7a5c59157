package fmdeploy

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/rizome-dev/fmdeploygo/pkg/errors"
	"github.com/rizome-dev/fmdeploygo/pkg/models"
)

// Invoker performs one synchronous request/response exchange against a
// named endpoint. *Client satisfies it; wrappers layer retries or
// observability on top.
type Invoker interface {
	Invoke(ctx context.Context, endpointName string, req models.InvocationRequest) (*models.InvocationResponse, error)
}

// Invoke performs one synchronous generation exchange against a named
// endpoint. It fails with an InvocationError if the endpoint is not
// InService, if the container rejects the body, or on transport failure.
// No retry or backoff is performed here; callers retry at a higher level
// if desired.
func (c *Client) Invoke(ctx context.Context, endpointName string, req models.InvocationRequest) (*models.InvocationResponse, error) {
	resp, err := c.doRequest(ctx, "POST", "/endpoints/"+url.PathEscape(endpointName)+"/invocations", req)
	if err != nil {
		invErr := &errors.InvocationError{
			EndpointName: endpointName,
			Message:      err.Error(),
			Cause:        err,
		}
		if apiErr, ok := err.(*errors.APIError); ok {
			invErr.Code = apiErr.Code
			invErr.Message = apiErr.Message
		}
		return nil, invErr
	}
	defer resp.Body.Close()

	var result models.InvocationResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &errors.InvocationError{
			EndpointName: endpointName,
			Message:      "failed to decode response: " + err.Error(),
			Cause:        err,
		}
	}

	return &result, nil
}
