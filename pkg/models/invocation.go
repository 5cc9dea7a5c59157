package models

import (
	"bytes"
	"encoding/json"
)

// GenerationParameters represents the generation configuration passed to the
// serving container alongside the prompt.
type GenerationParameters struct {
	MaxNewTokens   *int     `json:"max_new_tokens,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty"`
	TopP           *float64 `json:"top_p,omitempty"`
	ReturnFullText *bool    `json:"return_full_text,omitempty"`
	Stop           []string `json:"stop,omitempty"`
}

// InvocationRequest represents one synchronous generation request
type InvocationRequest struct {
	Inputs     string                `json:"inputs"`
	Parameters *GenerationParameters `json:"parameters,omitempty"`
}

// Generation represents a single decoded generation from the container
type Generation struct {
	GeneratedText string                 `json:"generated_text"`
	Details       map[string]interface{} `json:"details,omitempty"`
}

// InvocationResponse represents the decoded response body of an invocation.
// Serving containers answer either with a bare generation object or with an
// array of them; both shapes decode into Generations.
type InvocationResponse struct {
	Generations []Generation
}

// UnmarshalJSON accepts both the object and array response shapes
func (r *InvocationResponse) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(data, &r.Generations)
	}

	var gen Generation
	if err := json.Unmarshal(data, &gen); err != nil {
		return err
	}
	r.Generations = []Generation{gen}
	return nil
}

// MarshalJSON encodes the response in the array shape
func (r InvocationResponse) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Generations)
}

// GeneratedText returns the text of the first generation, or "" if the
// response carried none.
func (r *InvocationResponse) GeneratedText() string {
	if len(r.Generations) == 0 {
		return ""
	}
	return r.Generations[0].GeneratedText
}

// Int returns a pointer to the given int
func Int(v int) *int { return &v }

// Float64 returns a pointer to the given float64
func Float64(v float64) *float64 { return &v }

// Bool returns a pointer to the given bool
func Bool(v bool) *bool { return &v }
