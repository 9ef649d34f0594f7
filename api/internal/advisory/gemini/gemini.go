// Package gemini is a model client backed by the Google Generative AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"farm-advisor/api/internal/advisory/types"
)

const DefaultModel = "gemini-2.0-flash"

type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// connect opens a model handle; close releases the underlying client.
type connect func(ctx context.Context) (gen generator, close func() error, err error)

type Engine struct {
	cfg     types.ModelClientConfig
	connect connect
}

func New(cfg types.ModelClientConfig) *Engine {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	e := &Engine{cfg: cfg}
	e.connect = e.dial
	return e
}

func (e *Engine) Name() string  { return "gemini" }
func (e *Engine) Model() string { return e.cfg.Model }

func (e *Engine) dial(ctx context.Context) (generator, func() error, error) {
	opts := []option.ClientOption{option.WithAPIKey(e.cfg.APIKey)}
	if e.cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(e.cfg.BaseURL))
	}
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}
	m := cl.GenerativeModel(e.cfg.Model)
	temp := e.cfg.Temperature
	m.GenerationConfig = genai.GenerationConfig{Temperature: &temp}
	return m, cl.Close, nil
}

// Invoke sends one request. It never retries.
func (e *Engine) Invoke(ctx context.Context, env types.PromptEnvelope) (types.RawModelResponse, error) {
	out := types.RawModelResponse{Model: e.cfg.Model}
	if e.cfg.APIKey == "" {
		return out, types.NewError(types.KindModelUnavailable, "gemini: api key is not configured")
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	parts := []genai.Part{genai.Text(env.Text())}
	if img, ok := env.Image(); ok {
		data, err := img.Bytes()
		if err != nil {
			return out, types.Wrap(types.KindUnsupportedInput, err, "gemini: image payload is not valid base64")
		}
		parts = append(parts, genai.Blob{MIMEType: img.MIMEType, Data: data})
	}

	gen, closeFn, err := e.connect(ctx)
	if err != nil {
		return out, types.Wrap(types.KindModelUnavailable, err, "gemini: client init failed")
	}
	defer func() { _ = closeFn() }()

	resp, err := gen.GenerateContent(ctx, parts...)
	if err != nil {
		out.StatusCode = statusOf(err)
		return out, e.unavailable(ctx, err, out.StatusCode)
	}
	out.OK = true
	out.StatusCode = http.StatusOK
	out.Text = firstText(resp)
	if strings.TrimSpace(out.Text) == "" {
		return out, &types.Error{
			Kind:       types.KindModelEmptyResponse,
			Message:    "gemini: response has no text",
			StatusCode: out.StatusCode,
		}
	}
	return out, nil
}

func (e *Engine) unavailable(ctx context.Context, err error, status int) error {
	msg := "gemini: request failed"
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		msg = fmt.Sprintf("gemini: no response within %s", e.cfg.Timeout)
	case errors.Is(ctx.Err(), context.Canceled):
		msg = "gemini: request canceled"
	case status != 0:
		msg = fmt.Sprintf("gemini: upstream status %d", status)
	}
	return &types.Error{Kind: types.KindModelUnavailable, Message: msg, StatusCode: status, Err: err}
}

func statusOf(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

// firstText concatenates the text parts of the first candidate that has any.
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}
