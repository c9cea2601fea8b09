package detection

import (
	"sort"

	"github.com/agenthands/purify/internal/core/model"
)

// Decide returns the labels whose score meets threshold, never including the
// clean label. When no label qualifies it falls back to the single highest
// scoring non-clean label, or to the highest overall when the vector holds
// only the clean label. Equal scores resolve to the lexicographically smaller
// label, so the result does not depend on the vector's order.
func Decide(scores model.ScoreVector, threshold float64, p model.Policy) (model.Decision, error) {
	if len(scores) == 0 {
		return model.Decision{}, ErrEmptyScoreVector
	}

	nonClean := make(model.ScoreVector, 0, len(scores))
	for _, s := range scores {
		if s.Label != p.Clean {
			nonClean = append(nonClean, s)
		}
	}

	var confident model.ScoreVector
	for _, s := range nonClean {
		if s.Score >= threshold {
			confident = append(confident, s)
		}
	}

	if len(confident) > 0 {
		sortByScore(confident)
		labels := make([]model.Label, len(confident))
		for i, s := range confident {
			labels[i] = s.Label
		}
		return model.Decision{Labels: labels, Scores: scores}, nil
	}

	candidates := nonClean
	if len(candidates) == 0 {
		candidates = scores
	}
	top := candidates[0]
	for _, s := range candidates[1:] {
		if ranksBefore(s, top) {
			top = s
		}
	}
	return model.Decision{Labels: []model.Label{top.Label}, Scores: scores}, nil
}

func ranksBefore(a, b model.LabelScore) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Label < b.Label
}

func sortByScore(v model.ScoreVector) {
	sort.SliceStable(v, func(i, j int) bool { return ranksBefore(v[i], v[j]) })
}
