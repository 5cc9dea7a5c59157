package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSuite(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeSuite(t, `
prompt: "Summarize the history of GPUs."
iterations: 5
max_new_tokens: 128
temperature: 0.5
wait: true
teardown: true
variants:
  - name: mistral-bnb
    model_id: mistralai/Mistral-7B-v0.1
    quantization: bitsandbytes
  - name: mistral-gptq
    model_id: TheBloke/Mistral-7B-v0.1-GPTQ
    quantization: gptq
    num_gpus: 4
    environment:
      HF_TOKEN: secret
`)

	suite, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, suite.Iterations)
	assert.Equal(t, 128, suite.MaxNewTokens)
	assert.Equal(t, 0.5, suite.Temperature)
	assert.True(t, suite.Wait)
	assert.True(t, suite.Teardown)

	require.Equal(t, 2, len(suite.Variants))
	assert.Equal(t, 1, suite.Variants[0].NumGPUs)
	assert.Equal(t, 4, suite.Variants[1].NumGPUs)
	assert.Equal(t, "secret", suite.Variants[1].Environment["HF_TOKEN"])
}

func TestLoadDefaults(t *testing.T) {
	path := writeSuite(t, `
prompt: "hello"
variants:
  - name: base
    model_id: mistralai/Mistral-7B-v0.1
`)

	suite, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, suite.Iterations)
	assert.Equal(t, 256, suite.MaxNewTokens)
	assert.Equal(t, 0.7, suite.Temperature)
	assert.Equal(t, "none", suite.Variants[0].Quantization)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeSuite(t, "prompt: [unclosed")
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{
			name:    "empty prompt",
			content: "variants:\n  - name: a\n    model_id: m\n",
			errText: "prompt",
		},
		{
			name:    "no variants",
			content: "prompt: hi\n",
			errText: "at least one variant",
		},
		{
			name:    "unnamed variant",
			content: "prompt: hi\nvariants:\n  - model_id: m\n",
			errText: "name must not be empty",
		},
		{
			name:    "missing model id",
			content: "prompt: hi\nvariants:\n  - name: a\n",
			errText: "model_id",
		},
		{
			name:    "duplicate variant name",
			content: "prompt: hi\nvariants:\n  - name: a\n    model_id: m\n  - name: a\n    model_id: m2\n",
			errText: "defined twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeSuite(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}
