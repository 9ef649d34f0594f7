// Package gpt is a model client for OpenAI-compatible chat completion APIs.
package gpt

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"farm-advisor/api/internal/advisory/types"
	"farm-advisor/api/internal/util"
)

const DefaultModel = "gpt-4o-mini"

type Engine struct {
	cfg    types.ModelClientConfig
	client *openai.Client
}

func New(cfg types.ModelClientConfig) *Engine {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = &http.Client{
		// Per-call deadlines come from the context.
		Timeout: 0,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			IdleConnTimeout:       90 * time.Second,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   100,
		},
	}
	return &Engine{cfg: cfg, client: openai.NewClientWithConfig(oc)}
}

func (e *Engine) Name() string  { return "gpt" }
func (e *Engine) Model() string { return e.cfg.Model }

// Invoke sends one chat completion. It never retries.
func (e *Engine) Invoke(ctx context.Context, env types.PromptEnvelope) (types.RawModelResponse, error) {
	out := types.RawModelResponse{Model: e.cfg.Model}
	if e.cfg.APIKey == "" {
		return out, types.NewError(types.KindModelUnavailable, "gpt: api key is not configured")
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if img, ok := env.Image(); ok {
		msg.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: env.Text()},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    util.MakeDataURL(img.MIMEType, img.Base64),
					Detail: openai.ImageURLDetailAuto,
				},
			},
		}
	} else {
		msg.Content = env.Text()
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.cfg.Model,
		Messages:    []openai.ChatCompletionMessage{msg},
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		out.StatusCode = statusOf(err)
		return out, e.unavailable(ctx, err, out.StatusCode)
	}
	out.OK = true
	out.StatusCode = http.StatusOK
	if resp.Model != "" {
		out.Model = resp.Model
	}
	if len(resp.Choices) > 0 {
		out.Text = resp.Choices[0].Message.Content
	}
	if strings.TrimSpace(out.Text) == "" {
		return out, &types.Error{
			Kind:       types.KindModelEmptyResponse,
			Message:    "gpt: response has no text",
			StatusCode: out.StatusCode,
		}
	}
	return out, nil
}

func (e *Engine) unavailable(ctx context.Context, err error, status int) error {
	msg := "gpt: request failed"
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		msg = fmt.Sprintf("gpt: no response within %s", e.cfg.Timeout)
	case errors.Is(ctx.Err(), context.Canceled):
		msg = "gpt: request canceled"
	case status != 0:
		msg = fmt.Sprintf("gpt: upstream status %d", status)
	}
	return &types.Error{Kind: types.KindModelUnavailable, Message: msg, StatusCode: status, Err: err}
}

func statusOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
