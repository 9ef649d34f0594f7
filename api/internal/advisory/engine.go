// Package advisory runs the advisory pipeline: normalize, localize, prompt,
// invoke the model and extract a JSON-like result.
package advisory

import (
	"context"
	"strings"

	"farm-advisor/api/internal/advisory/types"
)

// ModelClient performs exactly one model call per Invoke.
type ModelClient interface {
	Name() string
	Model() string
	Invoke(ctx context.Context, env types.PromptEnvelope) (types.RawModelResponse, error)
}

// Engines resolves a provider name to a configured client.
type Engines struct {
	Gemini ModelClient
	GPT    ModelClient
	// Default is used when the request names no provider.
	Default string
}

func (e *Engines) GetEngine(name string) (ModelClient, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = e.Default
	}
	var c ModelClient
	switch name {
	case "gemini", "":
		c = e.Gemini
	case "gpt", "openai":
		c = e.GPT
	default:
		return nil, types.NewError(types.KindInvalidRequest, "unknown llm_name %q; use 'gemini' or 'gpt'", name)
	}
	if c == nil {
		return nil, types.NewError(types.KindInvalidRequest, "llm %q is not configured", name)
	}
	return c, nil
}

// Names lists the providers that have a client.
func (e *Engines) Names() []string {
	var out []string
	if e.Gemini != nil {
		out = append(out, "gemini")
	}
	if e.GPT != nil {
		out = append(out, "gpt")
	}
	return out
}
