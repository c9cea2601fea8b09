package detection

import (
	"context"
	"fmt"
	"math"

	"github.com/agenthands/purify/internal/core/model"
)

// Classifier scores a batch of texts, returning one vector per text in input order.
type Classifier interface {
	Classify(ctx context.Context, texts []string) ([]model.ScoreVector, error)
}

type Detector struct {
	Classifier Classifier
	Policy     model.Policy
}

func NewDetector(classifier Classifier, policy model.Policy) *Detector {
	return &Detector{
		Classifier: classifier,
		Policy:     policy,
	}
}

// DetectBatch classifies texts with a single classifier call and returns one
// Detection per text, in input order. A classifier response that does not
// line up with the input fails the whole batch.
func (d *Detector) DetectBatch(ctx context.Context, texts []string, threshold float64) ([]model.Detection, error) {
	if len(texts) == 0 {
		return []model.Detection{}, nil
	}

	vectors, err := d.Classifier.Classify(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to classify batch: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d score vectors for %d texts", ErrContractViolation, len(vectors), len(texts))
	}

	detections := make([]model.Detection, len(texts))
	for i, text := range texts {
		if err := validateVector(vectors[i]); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}

		decision, err := Decide(vectors[i], threshold, d.Policy)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w: %w", i, ErrContractViolation, err)
		}
		isAbusive, confidence := Aggregate(vectors[i], decision.Labels, d.Policy)

		detections[i] = model.Detection{
			Text:       text,
			Labels:     decision.Labels,
			Confidence: confidence,
			IsAbusive:  isAbusive,
			Scores:     vectors[i],
		}
	}

	return detections, nil
}

func validateVector(v model.ScoreVector) error {
	seen := make(map[model.Label]struct{}, len(v))
	for _, s := range v {
		if _, dup := seen[s.Label]; dup {
			return fmt.Errorf("%w: duplicate label %q", ErrContractViolation, s.Label)
		}
		seen[s.Label] = struct{}{}
		if math.IsNaN(s.Score) || s.Score < 0 || s.Score > 1 {
			return fmt.Errorf("%w: score %v for label %q outside [0,1]", ErrContractViolation, s.Score, s.Label)
		}
	}
	return nil
}
