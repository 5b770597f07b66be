package vkapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"vkposter/internal/assert"
	"vkposter/internal/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("vkposter/vkapi")

const report_executor_challenge = "executor.challenge"

// ChallengeSolver asks someone to solve a captcha and returns the answer.
//
// note: fault injection point
type ChallengeSolver interface {
	Solve(ctx context.Context, challenge Challenge) (string, error)
}

// Executor issues requests and recovers from captcha challenges by retrying
// the same request with the solved captcha attached.
type Executor struct {
	transport   Transport
	solver      ChallengeSolver
	maxAttempts int
	tel         telemetry.API
}

// NewExecutor creates an Executor that solves at most maxAttempts captchas
// for a single call.
func NewExecutor(transport Transport, solver ChallengeSolver, maxAttempts int, tel telemetry.API) *Executor {
	assert.NotNil(transport)
	assert.NotNil(solver)
	assert.NotNil(tel)
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &Executor{
		transport:   transport,
		solver:      solver,
		maxAttempts: maxAttempts,
		tel:         telemetry.NewScopedAPI("vk_executor", tel),
	}
}

// Execute runs req through e and decodes the result as T.
//
// Any error other than a captcha challenge is returned unchanged.
func Execute[T any, P resultPtr[T]](ctx context.Context, e *Executor, req Request) (T, error) {
	ctx, span := tracer.Start(ctx, "vkapi:"+req.Method)
	defer span.End()

	current := req
	for attempt := 0; ; attempt++ {
		var out T

		raw, err := e.transport.Call(ctx, current)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "transport failed")
			return out, err
		}

		out, err = Decode[T, P](raw)
		var remote *RemoteError
		if !errors.As(err, &remote) || remote.Challenge == nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "call failed")
			}
			return out, err
		}

		if attempt >= e.maxAttempts {
			err = &ChallengeLimitError{Method: req.Method, Attempts: attempt, Last: remote}
			span.RecordError(err)
			span.SetStatus(codes.Error, "too many captcha challenges")
			return out, err
		}

		span.AddEvent("captcha challenge", otelChallengeAttrs(remote.Challenge, attempt))
		e.tel.ReportWarning(report_executor_challenge, req.Method, remote.Challenge.Image)

		key, err := e.solver.Solve(ctx, *remote.Challenge)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to solve captcha")
			return out, fmt.Errorf("solve captcha for %s: %w", req.Method, err)
		}

		current = req.withParams(url.Values{
			"captcha_sid": {remote.Challenge.SID},
			"captcha_key": {key},
		})
	}
}

func otelChallengeAttrs(challenge *Challenge, attempt int) trace.EventOption {
	return trace.WithAttributes(
		attribute.String("captcha.sid", challenge.SID),
		attribute.Int("captcha.attempt", attempt+1),
	)
}
