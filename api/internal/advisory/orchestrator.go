package advisory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/apex/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"farm-advisor/api/internal/advisory/extract"
	"farm-advisor/api/internal/advisory/lang"
	"farm-advisor/api/internal/advisory/normalize"
	"farm-advisor/api/internal/advisory/prompt"
	"farm-advisor/api/internal/advisory/types"
	"farm-advisor/api/internal/metrics"
	"farm-advisor/api/internal/util"
)

var tracer = otel.Tracer("farm-advisor/api/internal/advisory")

const redacted = "[REDACTED]"

// Normalizer turns an uploaded artifact into model input.
type Normalizer interface {
	Normalize(ctx context.Context, a types.Artifact) (types.ModelInput, error)
}

// Request is one advisory run.
type Request struct {
	UseCase  types.UseCase
	Artifact types.Artifact
	Params   types.Params
	// Language is a language code; empty selects the default.
	Language string
	// Provider names the model client; empty selects the default.
	Provider string
}

// Orchestrator wires the pipeline stages. Its fields must not change after
// the first Run; Run itself is safe for concurrent use.
type Orchestrator struct {
	Engines         *Engines
	Normalizer      Normalizer
	Languages       lang.Table
	DefaultLanguage string
	Retry           RetryPolicy
	// Secrets are scrubbed from every error message.
	Secrets []string
	Now     func() time.Time
}

func New(engines *Engines, languages lang.Table) *Orchestrator {
	return &Orchestrator{
		Engines:         engines,
		Normalizer:      normalize.New(),
		Languages:       languages,
		DefaultLanguage: "en",
		Retry:           NoRetry(),
		Now:             time.Now,
	}
}

// Run executes the pipeline. Failures are always *types.Error.
func (o *Orchestrator) Run(ctx context.Context, req Request) (types.Result, error) {
	started := time.Now()
	label := "unknown"
	if req.UseCase.Valid() {
		label = req.UseCase.String()
	}

	ctx, span := tracer.Start(ctx, "advisory.run", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(
		attribute.String("advisory.use_case", label),
		attribute.String("advisory.provider", req.Provider),
	)

	res, err := o.run(ctx, req)

	metrics.AdvisoryDurationSeconds.WithLabelValues(label).Observe(time.Since(started).Seconds())
	if err != nil {
		e := o.finish(err)
		metrics.AdvisoryRequestsTotal.WithLabelValues(label, string(e.Kind)).Inc()
		span.RecordError(e)
		span.SetStatus(codes.Error, e.Error())
		span.SetAttributes(attribute.String("advisory.stage", string(e.Stage)))
		if e.Provider == "" {
			e.Provider = req.Provider
		}

		entry := log.WithFields(log.Fields{
			"use_case": label,
			"provider": e.Provider,
			"kind":     e.Kind,
			"stage":    e.Stage,
			"attempts": e.Attempts,
		})
		if e.Raw != "" {
			entry = entry.WithField("raw", util.Truncate(e.Raw, 300))
		}
		entry.Warnf("advisory failed: %s", e.Message)
		return types.Result{}, e
	}

	metrics.AdvisoryRequestsTotal.WithLabelValues(label, "ok").Inc()
	span.SetAttributes(
		attribute.Int("advisory.attempts", res.Attempts),
		attribute.String("advisory.language", res.Language),
	)
	log.WithFields(log.Fields{
		"use_case": label,
		"provider": res.Provider,
		"model":    res.Model,
		"language": res.Language,
		"attempts": res.Attempts,
		"took":     time.Since(started).Round(time.Millisecond).String(),
	}).Info("advisory done")
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, req Request) (types.Result, error) {
	u := req.UseCase
	if !u.Valid() {
		return types.Result{}, staged(types.NewError(types.KindInvalidRequest, "unknown use case %q", u), types.StageNormalizing)
	}
	if err := req.Params.Validate(u); err != nil {
		return types.Result{}, staged(types.Wrap(types.KindInvalidRequest, err, "%s", err.Error()), types.StageNormalizing)
	}

	if req.Params.Date == "" && o.Now != nil {
		req.Params.Date = o.Now().Format("2006-01-02")
	}

	// normalizing
	in, err := o.normalize(ctx, req)
	if err != nil {
		return types.Result{}, staged(err, types.StageNormalizing)
	}

	// resolving
	code := strings.ToLower(strings.TrimSpace(req.Language))
	if code == "" {
		code = o.DefaultLanguage
	}
	display := o.Languages.Resolve(code)

	// prompting
	env, err := prompt.Build(u, in, display, req.Params)
	if err != nil {
		return types.Result{}, staged(err, types.StagePrompting)
	}

	// invoking and extracting
	client, err := o.Engines.GetEngine(req.Provider)
	if err != nil {
		return types.Result{}, staged(err, types.StageInvoking)
	}
	value, raw, attempts, err := o.generate(ctx, client, env)
	if err != nil {
		return types.Result{}, withProvider(err, client.Name())
	}

	model := raw.Model
	if model == "" {
		model = client.Model()
	}
	return types.Result{
		UseCase:  u,
		Language: code,
		Provider: client.Name(),
		Model:    model,
		Attempts: attempts,
		Value:    value,
	}, nil
}

func (o *Orchestrator) normalize(ctx context.Context, req Request) (types.ModelInput, error) {
	if !req.UseCase.TakesArtifact() {
		return normalize.NormalizeParams(req.UseCase, req.Params)
	}
	if len(req.Artifact.Data) == 0 && req.Artifact.MediaType == "" {
		return types.ModelInput{}, types.NewError(types.KindInvalidRequest, "file is required")
	}
	n := o.Normalizer
	if n == nil {
		n = normalize.New()
	}
	return n.Normalize(ctx, req.Artifact)
}

// generate calls the model until the output parses or the policy is spent.
func (o *Orchestrator) generate(ctx context.Context, client ModelClient, env types.PromptEnvelope) (any, types.RawModelResponse, int, error) {
	policy := o.Retry.normalized()
	var (
		attempts   int
		transient  int
		regenerate int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, types.RawModelResponse{}, attempts, attempted(
				types.Wrap(types.KindModelUnavailable, err, "request canceled before model call"),
				types.StageInvoking, attempts)
		}
		attempts++
		raw, err := o.invoke(ctx, client, env, attempts)
		if err != nil {
			if !types.KindOf(err).Transient() {
				return nil, raw, attempts, attempted(err, types.StageInvoking, attempts)
			}
			transient++
			if transient < policy.MaxAttempts {
				if werr := sleepCtx(ctx, policy.Delay(attempts)); werr != nil {
					return nil, raw, attempts, attempted(
						types.Wrap(types.KindModelUnavailable, werr, "request canceled while waiting to retry"),
						types.StageInvoking, attempts)
				}
				continue
			}
			return nil, raw, attempts, attempted(err, types.StageInvoking, attempts)
		}

		value, err := extract.Extract(raw.Text)
		if err == nil {
			return value, raw, attempts, nil
		}
		if regenerate < policy.ParseAttempts {
			regenerate++
			log.WithFields(log.Fields{
				"provider": client.Name(),
				"attempt":  attempts,
				"raw":      util.Truncate(raw.Text, 200),
			}).Warn("model output did not parse; regenerating")
			if werr := sleepCtx(ctx, policy.Delay(attempts)); werr != nil {
				return nil, raw, attempts, attempted(
					types.Wrap(types.KindModelUnavailable, werr, "request canceled while waiting to retry"),
					types.StageExtracting, attempts)
			}
			continue
		}
		return nil, raw, attempts, attempted(err, types.StageExtracting, attempts)
	}
}

func (o *Orchestrator) invoke(ctx context.Context, client ModelClient, env types.PromptEnvelope, attempt int) (types.RawModelResponse, error) {
	ctx, span := tracer.Start(ctx, "advisory.invoke", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("gen_ai.provider.name", client.Name()),
		attribute.String("gen_ai.request.model", client.Model()),
		attribute.Int("advisory.attempt", attempt),
	)

	raw, err := client.Invoke(ctx, env)
	outcome := "ok"
	if err != nil {
		if types.KindOf(err) == "" {
			err = types.Wrap(types.KindModelUnavailable, err, "%s: request failed", client.Name())
		}
		outcome = string(types.KindOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, o.redact(err.Error()))
	}
	if raw.StatusCode != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", raw.StatusCode))
	}
	metrics.ModelAttemptsTotal.WithLabelValues(client.Name(), outcome).Inc()
	return raw, err
}

// finish turns any error into a *types.Error without credentials in it.
func (o *Orchestrator) finish(err error) *types.Error {
	var e *types.Error
	if !errors.As(err, &e) {
		e = types.Wrap(types.KindModelUnavailable, err, "unexpected failure")
	}
	out := *e
	out.Message = o.redact(out.Message)
	out.Raw = o.redact(out.Raw)
	return &out
}

func (o *Orchestrator) redact(s string) string {
	for _, secret := range o.Secrets {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, redacted)
		}
	}
	return s
}

func staged(err error, stage types.Stage) error {
	return attempted(err, stage, 0)
}

func attempted(err error, stage types.Stage, attempts int) error {
	var e *types.Error
	if !errors.As(err, &e) {
		e = types.Wrap(types.KindModelUnavailable, err, "unexpected failure")
	}
	out := *e
	out.Stage = stage
	out.Attempts = attempts
	return &out
}

// withProvider records the engine that served the failed call.
func withProvider(err error, name string) error {
	var e *types.Error
	if !errors.As(err, &e) {
		return err
	}
	out := *e
	out.Provider = name
	return &out
}
