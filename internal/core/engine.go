package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/agenthands/purify/internal/core/detection"
	"github.com/agenthands/purify/internal/core/model"
	"github.com/agenthands/purify/internal/core/refinement"
	"github.com/agenthands/purify/internal/metrics"
)

const DefaultThreshold = 0.5

var (
	ErrInvalidThreshold = errors.New("threshold must be within [0,1]")
	ErrNoRewriter       = errors.New("refinement requested but no rewriter is configured")
)

// Engine holds the process-wide classifier and rewriter handles. It carries
// no per-request state and is safe for concurrent use.
type Engine struct {
	Detector  *detection.Detector
	Refiner   *refinement.Refiner
	Threshold float64
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

type settings struct {
	policy    model.Policy
	threshold float64
	refine    refinement.Options
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

type Option func(*settings)

func WithPolicy(p model.Policy) Option {
	return func(s *settings) { s.policy = p }
}

func WithThreshold(t float64) Option {
	return func(s *settings) { s.threshold = t }
}

func WithRefinement(opts refinement.Options) Option {
	return func(s *settings) { s.refine = opts }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// NewEngine wires the collaborators. rewriter may be nil, in which case only
// detection is available.
func NewEngine(classifier detection.Classifier, rewriter refinement.Rewriter, opts ...Option) (*Engine, error) {
	s := settings{
		policy:    model.Policy{Clean: "clean", Abusive: "악플/욕설"},
		threshold: DefaultThreshold,
		refine: refinement.Options{
			CallTimeout:      30 * time.Second,
			RateLimitBackoff: 20 * time.Second,
			Concurrency:      4,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if err := checkThreshold(s.threshold); err != nil {
		return nil, err
	}

	e := &Engine{
		Detector:  detection.NewDetector(&instrumentedClassifier{next: classifier, metrics: s.metrics}, s.policy),
		Threshold: s.threshold,
		Logger:    s.logger,
		Metrics:   s.metrics,
	}
	if rewriter != nil {
		e.Refiner = refinement.NewRefiner(&instrumentedRewriter{next: rewriter, metrics: s.metrics}, s.refine, s.logger)
	}
	return e, nil
}

type ProcessOptions struct {
	// Threshold overrides the engine default when set.
	Threshold *float64
	Refine    bool
}

type Result struct {
	Detections []model.Detection
	// Refinements is nil unless refinement was requested; otherwise it has
	// one entry per detection.
	Refinements []model.Refinement
}

func (e *Engine) threshold(opts ProcessOptions) (float64, error) {
	if opts.Threshold == nil {
		return e.Threshold, nil
	}
	t := *opts.Threshold
	if err := checkThreshold(t); err != nil {
		return 0, err
	}
	return t, nil
}

func checkThreshold(t float64) error {
	if t < 0 || t > 1 || math.IsNaN(t) {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, t)
	}
	return nil
}

// Detect runs batch detection over texts.
func (e *Engine) Detect(ctx context.Context, texts []string, opts ProcessOptions) ([]model.Detection, error) {
	threshold, err := e.threshold(opts)
	if err != nil {
		return nil, err
	}

	detections, err := e.Detector.DetectBatch(ctx, texts, threshold)
	if err != nil {
		return nil, err
	}

	for _, d := range detections {
		e.Metrics.ObserveDetection(d.IsAbusive)
	}
	return detections, nil
}

// Refine rewrites the abusive detections; see refinement.Refiner.RefineBatch.
func (e *Engine) Refine(ctx context.Context, detections []model.Detection) ([]model.Refinement, error) {
	if e.Refiner == nil {
		return nil, ErrNoRewriter
	}

	refinements := e.Refiner.RefineBatch(ctx, detections)
	for _, r := range refinements {
		e.Metrics.ObserveRefinement(string(r.Status))
	}
	return refinements, nil
}

// Process detects and, when asked, refines texts. Only classifier failures
// fail the call; rewrite failures are reported per item.
func (e *Engine) Process(ctx context.Context, texts []string, opts ProcessOptions) (*Result, error) {
	if opts.Refine && e.Refiner == nil {
		return nil, ErrNoRewriter
	}

	detections, err := e.Detect(ctx, texts, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{Detections: detections}
	if !opts.Refine {
		return result, nil
	}

	result.Refinements, err = e.Refine(ctx, detections)
	if err != nil {
		return nil, err
	}

	failed := 0
	for _, r := range result.Refinements {
		if r.Status.Failed() {
			failed++
		}
	}
	e.Logger.Debug("Processed batch",
		zap.Int("items", len(texts)),
		zap.Int("refinement_failures", failed))

	return result, nil
}
