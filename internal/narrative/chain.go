package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNoModelAvailable is returned when every model in a chain was rate
// limited or failed.
var ErrNoModelAvailable = errors.New("no language model available")

// DefaultTimeout bounds a single model call when a Link sets none.
const DefaultTimeout = 30 * time.Second

// Link is one model in a Chain with its own deadline and rate limit.
type Link struct {
	Model   Model
	Timeout time.Duration
	Limiter Limiter // nil means unlimited
}

// Chain tries its models in order until one produces text.
type Chain struct {
	links   []Link
	emitter ProgressEmitter
	logger  *zap.Logger
}

// NewChain creates a chain over links.
func NewChain(links ...Link) *Chain {
	return &Chain{links: links, logger: zap.NewNop()}
}

// WithEmitter sets the progress emitter.
func (c *Chain) WithEmitter(e ProgressEmitter) *Chain {
	c.emitter = e
	return c
}

// WithLogger sets the logger.
func (c *Chain) WithLogger(l *zap.Logger) *Chain {
	if l != nil {
		c.logger = l
	}
	return c
}

// Len returns the number of models in the chain.
func (c *Chain) Len() int {
	return len(c.links)
}

// Complete runs messages through the first model that is within its rate
// limit and answers before its timeout with non-empty text. Cancellation of
// ctx stops the chain immediately.
func (c *Chain) Complete(ctx context.Context, messages []Message) (*Response, error) {
	return c.CompleteWithProgress(ctx, messages, c.emitter)
}

// CompleteWithProgress is Complete reporting to emitter instead of the
// chain's own emitter. A nil emitter reports nothing.
func (c *Chain) CompleteWithProgress(ctx context.Context, messages []Message, emitter ProgressEmitter) (*Response, error) {
	emit := func(ev ProgressEvent) {
		if emitter != nil {
			emitter.Emit(ev)
		}
	}

	var errs []error
	for _, link := range c.links {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		provider, model := string(link.Model.Provider()), link.Model.Model()
		log := c.logger.With(zap.String("provider", provider), zap.String("model", model))

		if link.Limiter != nil && !link.Limiter.Allow() {
			log.Info("model rate limited, skipping")
			emit(ProgressEvent{Type: "skip", Provider: provider, Model: model, Message: "hourly limit reached"})
			errs = append(errs, fmt.Errorf("%s/%s: hourly limit reached", provider, model))
			continue
		}

		emit(ProgressEvent{Type: "attempt", Provider: provider, Model: model})
		resp, err := c.try(ctx, link, messages)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn("model failed", zap.Error(err))
			emit(ProgressEvent{Type: "error", Provider: provider, Model: model, Message: err.Error()})
			errs = append(errs, fmt.Errorf("%s/%s: %w", provider, model, err))
			continue
		}

		fields := []zap.Field{
			zap.Int("input_tokens", resp.InputTokens),
			zap.Int("output_tokens", resp.OutputTokens),
		}
		if r, ok := link.Limiter.(interface{ Remaining() int }); ok {
			fields = append(fields, zap.Int("remaining_this_hour", r.Remaining()))
		}
		log.Info("explanation generated", fields...)
		emit(ProgressEvent{Type: "done", Provider: provider, Model: model})
		return resp, nil
	}

	if len(errs) == 0 {
		return nil, ErrNoModelAvailable
	}
	return nil, fmt.Errorf("%w: %w", ErrNoModelAvailable, errors.Join(errs...))
}

func (c *Chain) try(ctx context.Context, link Link, messages []Message) (*Response, error) {
	timeout := link.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := link.Model.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.Content) == "" {
		return nil, errors.New("empty response")
	}
	return resp, nil
}
