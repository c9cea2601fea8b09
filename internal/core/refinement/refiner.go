package refinement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agenthands/purify/internal/core/model"
	"github.com/agenthands/purify/internal/llm"
)

type Options struct {
	// CallTimeout bounds each rewrite call; zero disables it.
	CallTimeout time.Duration
	// RateLimitBackoff is waited once after a rate-limited call.
	RateLimitBackoff time.Duration
	// RetryAfterBackoff makes one more call after the backoff instead of
	// failing the item straight away.
	RetryAfterBackoff bool
	// Concurrency caps the number of in-flight rewrite calls.
	Concurrency int
}

type Refiner struct {
	Rewriter Rewriter
	Options  Options
	Logger   *zap.Logger
}

func NewRefiner(rewriter Rewriter, opts Options, logger *zap.Logger) *Refiner {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refiner{
		Rewriter: rewriter,
		Options:  opts,
		Logger:   logger,
	}
}

// RefineBatch returns one Refinement per detection, in input order.
// Non-abusive items are passed through without calling the rewriter, and a
// failing item never affects its siblings.
func (r *Refiner) RefineBatch(ctx context.Context, detections []model.Detection) []model.Refinement {
	results := make([]model.Refinement, len(detections))

	g := new(errgroup.Group)
	g.SetLimit(r.Options.Concurrency)

	for i, d := range detections {
		if !d.IsAbusive {
			results[i] = model.Refinement{Original: d.Text, Refined: d.Text, Status: model.RefinementSkipped}
			continue
		}
		i, d := i, d
		g.Go(func() error {
			results[i] = r.refineOne(ctx, i, d)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (r *Refiner) refineOne(ctx context.Context, index int, d model.Detection) (out model.Refinement) {
	out = model.Refinement{Original: d.Text}
	log := r.Logger.With(zap.Int("index", index), zap.Any("labels", d.Labels))

	defer func() {
		if p := recover(); p != nil {
			log.Error("Rewrite panicked", zap.Any("panic", p))
			out = model.Refinement{
				Original: d.Text,
				Status:   model.RefinementUnknownError,
				Reason:   fmt.Sprintf("panic: %v", p),
			}
		}
	}()

	refined, err := r.call(ctx, d)
	if errors.Is(err, llm.ErrRateLimited) {
		log.Warn("Rewrite rate limited, backing off", zap.Duration("backoff", r.Options.RateLimitBackoff), zap.Error(err))
		// A batch cancelled during the backoff still reports the rate limit
		// that started it.
		if waitErr := wait(ctx, r.Options.RateLimitBackoff); waitErr != nil {
			return r.fail(log, out, model.RefinementRateLimited, err)
		}
		if !r.Options.RetryAfterBackoff {
			return r.fail(log, out, model.RefinementRateLimited, err)
		}
		refined, err = r.call(ctx, d)
	}

	if err != nil {
		switch {
		case errors.Is(err, llm.ErrRateLimited):
			return r.fail(log, out, model.RefinementRateLimited, err)
		case errors.Is(err, llm.ErrService),
			errors.Is(err, context.DeadlineExceeded),
			errors.Is(err, context.Canceled):
			return r.fail(log, out, model.RefinementServiceError, err)
		default:
			return r.fail(log, out, model.RefinementUnknownError, err)
		}
	}

	refined = strings.TrimSpace(refined)
	if refined == "" {
		return r.fail(log, out, model.RefinementUnknownError, llm.ErrEmptyCompletion)
	}

	out.Refined = refined
	out.Status = model.RefinementRefined
	return out
}

func (r *Refiner) call(ctx context.Context, d model.Detection) (string, error) {
	if r.Options.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Options.CallTimeout)
		defer cancel()
	}
	return r.Rewriter.Rewrite(ctx, d.Text, d.Labels)
}

func (r *Refiner) fail(log *zap.Logger, out model.Refinement, status model.RefinementStatus, err error) model.Refinement {
	if status == model.RefinementUnknownError {
		log.Error("Rewrite failed unexpectedly", zap.String("status", string(status)), zap.Error(err))
	} else {
		log.Warn("Rewrite failed", zap.String("status", string(status)), zap.Error(err))
	}
	out.Status = status
	out.Reason = err.Error()
	return out
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
