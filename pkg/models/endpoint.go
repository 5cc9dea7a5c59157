package models

import (
	"sort"
	"time"
)

// EndpointStatus represents the lifecycle state of an endpoint. Transitions
// are driven entirely by the platform control plane.
type EndpointStatus string

const (
	EndpointStatusCreating  EndpointStatus = "Creating"
	EndpointStatusInService EndpointStatus = "InService"
	EndpointStatusFailed    EndpointStatus = "Failed"
	EndpointStatusDeleting  EndpointStatus = "Deleting"
	EndpointStatusDeleted   EndpointStatus = "Deleted"
)

// CreateEndpointRequest represents a request to create and deploy a model
// serving endpoint. Environment keys are interpreted entirely by the serving
// container and are passed through verbatim.
type CreateEndpointRequest struct {
	EndpointName         string            `json:"endpoint_name"`
	InstanceType         string            `json:"instance_type"`
	ImageURI             string            `json:"image_uri"`
	ModelDataURL         string            `json:"model_data_url,omitempty"`
	Environment          map[string]string `json:"environment,omitempty"`
	InitialInstanceCount int               `json:"initial_instance_count"`
}

// Endpoint represents a platform-owned serving endpoint resource
type Endpoint struct {
	Name          string         `json:"name"`
	Status        EndpointStatus `json:"status"`
	InstanceType  string         `json:"instance_type"`
	ImageURI      string         `json:"image_uri,omitempty"`
	ModelDataURL  string         `json:"model_data_url,omitempty"`
	FailureReason string         `json:"failure_reason,omitempty"`
	CreatedAt     time.Time      `json:"created_at,omitempty"`
	UpdatedAt     time.Time      `json:"updated_at,omitempty"`
}

// EndpointsResponse represents the response to a list endpoints call
type EndpointsResponse struct {
	Endpoints []Endpoint `json:"endpoints"`
}

// GPU instance SKUs accepted by the platform for model serving.
var recognizedInstanceTypes = map[string]struct{}{
	"ml.g4dn.xlarge":   {},
	"ml.g4dn.12xlarge": {},
	"ml.g5.xlarge":     {},
	"ml.g5.2xlarge":    {},
	"ml.g5.4xlarge":    {},
	"ml.g5.12xlarge":   {},
	"ml.g5.24xlarge":   {},
	"ml.g5.48xlarge":   {},
	"ml.p3.2xlarge":    {},
	"ml.p4d.24xlarge":  {},
	"ml.inf2.xlarge":   {},
	"ml.inf2.48xlarge": {},
}

// IsRecognizedInstanceType returns true if the platform recognizes the SKU
func IsRecognizedInstanceType(instanceType string) bool {
	_, ok := recognizedInstanceTypes[instanceType]
	return ok
}

// RecognizedInstanceTypes returns the accepted SKUs in sorted order
func RecognizedInstanceTypes() []string {
	types := make([]string, 0, len(recognizedInstanceTypes))
	for t := range recognizedInstanceTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
