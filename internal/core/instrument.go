package core

import (
	"context"
	"time"

	"github.com/agenthands/purify/internal/core/detection"
	"github.com/agenthands/purify/internal/core/model"
	"github.com/agenthands/purify/internal/core/refinement"
	"github.com/agenthands/purify/internal/metrics"
)

type instrumentedClassifier struct {
	next    detection.Classifier
	metrics *metrics.Metrics
}

func (c *instrumentedClassifier) Classify(ctx context.Context, texts []string) ([]model.ScoreVector, error) {
	defer c.metrics.ObserveCall("classifier", time.Now())
	return c.next.Classify(ctx, texts)
}

type instrumentedRewriter struct {
	next    refinement.Rewriter
	metrics *metrics.Metrics
}

func (r *instrumentedRewriter) Rewrite(ctx context.Context, text string, labels []model.Label) (string, error) {
	defer r.metrics.ObserveCall("rewriter", time.Now())
	return r.next.Rewrite(ctx, text, labels)
}
