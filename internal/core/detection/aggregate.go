package detection

import "github.com/agenthands/purify/internal/core/model"

// Aggregate derives the verdict and confidence for one item. The verdict
// depends on the decided labels; confidence always reads the full vector.
func Aggregate(scores model.ScoreVector, labels []model.Label, p model.Policy) (isAbusive bool, confidence float64) {
	for _, l := range labels {
		if l == p.Abusive {
			isAbusive = true
			break
		}
	}

	if score, ok := scores.Get(p.Abusive); ok {
		return isAbusive, score
	}

	found := false
	for _, s := range scores {
		if s.Label == p.Clean {
			continue
		}
		if !found || s.Score > confidence {
			confidence = s.Score
			found = true
		}
	}
	return isAbusive, confidence
}
