package fmdeploy

import (
	"fmt"
	"strconv"
	"strings"
)

// Quantization selects the weight-compression scheme applied by the serving
// container. The quantization itself happens inside the container; this
// package only picks the matching image and environment.
type Quantization string

const (
	QuantizationNone         Quantization = "none"
	QuantizationBitsAndBytes Quantization = "bitsandbytes"
	QuantizationGPTQ         Quantization = "gptq"
	QuantizationSmoothQuant  Quantization = "smoothquant"
	QuantizationTensorRTLLM  Quantization = "tensorrt-llm"
)

// Environment keys consumed by the text-generation serving containers.
// They are opaque to the platform and passed through verbatim.
const (
	EnvModelID  = "HF_MODEL_ID"
	EnvTask     = "HF_TASK"
	EnvNumGPUs  = "SM_NUM_GPUS"
	EnvQuantize = "HF_MODEL_QUANTIZE"

	// Keys consumed by the TensorRT-LLM serving containers
	EnvOptionModelID        = "OPTION_MODEL_ID"
	EnvOptionTensorParallel = "OPTION_TENSOR_PARALLEL_DEGREE"
	EnvOptionQuantize       = "OPTION_QUANTIZE"

	// EnvLoRAAdapters lists adapter identifiers for multi-adapter serving
	EnvLoRAAdapters = "LORA_ADAPTERS"
)

const (
	tgiImage    = "ghcr.io/huggingface/text-generation-inference:1.4.2"
	trtllmImage = "deepjavalibrary/djl-serving:0.27.0-tensorrt-llm"
)

// Preset is a ready-to-deploy pairing of container image, instance type and
// container environment for one model variant.
type Preset struct {
	ImageURI     string
	InstanceType string
	Environment  map[string]string
}

// PresetFor returns the deployment preset for hosting modelID under the
// given quantization scheme across numGPUs GPUs.
func PresetFor(modelID string, quant Quantization, numGPUs int) (*Preset, error) {
	if strings.TrimSpace(modelID) == "" {
		return nil, fmt.Errorf("model identifier must not be empty")
	}
	if numGPUs < 1 {
		numGPUs = 1
	}

	instanceType, err := instanceTypeForGPUs(numGPUs)
	if err != nil {
		return nil, err
	}

	switch quant {
	case QuantizationNone, QuantizationBitsAndBytes, QuantizationGPTQ:
		env := map[string]string{
			EnvModelID: modelID,
			EnvTask:    "text-generation",
			EnvNumGPUs: strconv.Itoa(numGPUs),
		}
		if quant != QuantizationNone {
			env[EnvQuantize] = string(quant)
		}
		return &Preset{ImageURI: tgiImage, InstanceType: instanceType, Environment: env}, nil

	case QuantizationSmoothQuant, QuantizationTensorRTLLM:
		env := map[string]string{
			EnvOptionModelID:        modelID,
			EnvOptionTensorParallel: strconv.Itoa(numGPUs),
		}
		if quant == QuantizationSmoothQuant {
			env[EnvOptionQuantize] = "smoothquant"
		}
		return &Preset{ImageURI: trtllmImage, InstanceType: instanceType, Environment: env}, nil

	default:
		return nil, fmt.Errorf("unknown quantization scheme %q", quant)
	}
}

// WithLoRAAdapters registers adapter identifiers for multi-adapter serving
// and returns the preset for chaining.
func (p *Preset) WithLoRAAdapters(adapterIDs ...string) *Preset {
	if len(adapterIDs) > 0 {
		p.Environment[EnvLoRAAdapters] = strings.Join(adapterIDs, ",")
	}
	return p
}

// DeployConfig builds a DeployConfig from the preset
func (p *Preset) DeployConfig(endpointName string, wait bool) DeployConfig {
	env := make(map[string]string, len(p.Environment))
	for k, v := range p.Environment {
		env[k] = v
	}
	return DeployConfig{
		EndpointName: endpointName,
		InstanceType: p.InstanceType,
		ImageURI:     p.ImageURI,
		Environment:  env,
		Wait:         wait,
	}
}

func instanceTypeForGPUs(numGPUs int) (string, error) {
	switch numGPUs {
	case 1:
		return "ml.g5.2xlarge", nil
	case 4:
		return "ml.g5.12xlarge", nil
	case 8:
		return "ml.g5.48xlarge", nil
	default:
		return "", fmt.Errorf("no instance type preset for %d GPUs (want 1, 4 or 8)", numGPUs)
	}
}
