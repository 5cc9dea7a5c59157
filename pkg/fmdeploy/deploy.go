package fmdeploy

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rizome-dev/fmdeploygo/pkg/errors"
	"github.com/rizome-dev/fmdeploygo/pkg/models"
)

// DeployConfig contains the parameters for deploying a model endpoint
type DeployConfig struct {
	// EndpointName must be unique per account at creation time
	EndpointName string

	// InstanceType must be a SKU the platform recognizes
	InstanceType string

	// ImageURI references the pre-built serving container
	ImageURI string

	// ArtifactPath is an optional local inference-code archive. When set it
	// is staged to object storage first and the resulting locator becomes
	// the model-data reference. When empty the container fetches all assets
	// itself, e.g. by model identifier in the environment.
	ArtifactPath string

	// Environment is passed through verbatim to the serving container
	Environment map[string]string

	// Wait blocks until the endpoint is InService or Failed
	Wait bool
}

// Deploy translates the deployment parameters into one create-and-deploy
// call, optionally preceded by an artifact upload. Instance count is fixed
// at 1. The created endpoint is a long-lived billable resource; the caller
// owns its teardown.
func (c *Client) Deploy(ctx context.Context, cfg DeployConfig) (*models.Endpoint, error) {
	if strings.TrimSpace(cfg.EndpointName) == "" {
		return nil, &errors.DeploymentError{Reason: "endpoint name must not be empty"}
	}
	if !models.IsRecognizedInstanceType(cfg.InstanceType) {
		return nil, &errors.DeploymentError{
			EndpointName: cfg.EndpointName,
			Reason:       fmt.Sprintf("unrecognized instance type %q", cfg.InstanceType),
		}
	}
	if cfg.ImageURI == "" {
		return nil, &errors.DeploymentError{
			EndpointName: cfg.EndpointName,
			Reason:       "container image reference must not be empty",
		}
	}

	var modelDataURL string
	if cfg.ArtifactPath != "" {
		if c.stager == nil {
			return nil, &errors.DeploymentError{
				EndpointName: cfg.EndpointName,
				Reason:       "artifact path set but no artifact stager configured",
			}
		}
		locator, err := c.stager.Stage(ctx, cfg.ArtifactPath)
		if err != nil {
			return nil, &errors.DeploymentError{
				EndpointName: cfg.EndpointName,
				Reason:       fmt.Sprintf("staging artifact %s: %v", cfg.ArtifactPath, err),
				Cause:        err,
			}
		}
		modelDataURL = locator
		c.logger.Info("artifact staged", "endpoint", cfg.EndpointName, "locator", locator)
	}

	endpoint, err := c.CreateEndpoint(ctx, models.CreateEndpointRequest{
		EndpointName:         cfg.EndpointName,
		InstanceType:         cfg.InstanceType,
		ImageURI:             cfg.ImageURI,
		ModelDataURL:         modelDataURL,
		Environment:          cfg.Environment,
		InitialInstanceCount: 1,
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("deployment requested",
		"endpoint", endpoint.Name,
		"instance_type", cfg.InstanceType,
		"image", cfg.ImageURI,
	)

	if cfg.Wait {
		return c.WaitForInService(ctx, cfg.EndpointName)
	}
	return endpoint, nil
}

// DefaultEndpointName builds a unique endpoint name from a prefix, in the
// form <prefix>-<8 hex chars>.
func DefaultEndpointName(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%s", prefix, suffix)
}
