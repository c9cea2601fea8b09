package model

// Label is an identifier from the classifier's label vocabulary.
type Label string

type LabelScore struct {
	Label Label   `json:"label"`
	Score float64 `json:"score"`
}

// ScoreVector is the classifier output for one input, one entry per known label.
// Entry order carries no meaning.
type ScoreVector []LabelScore

// Get returns the score for label and whether the vector contains it.
func (v ScoreVector) Get(label Label) (float64, bool) {
	for _, s := range v {
		if s.Label == label {
			return s.Score, true
		}
	}
	return 0, false
}

// Map converts the vector into a label -> score map.
func (v ScoreVector) Map() map[Label]float64 {
	m := make(map[Label]float64, len(v))
	for _, s := range v {
		m[s.Label] = s.Score
	}
	return m
}

// Policy names the two distinguished labels of the vocabulary.
type Policy struct {
	Clean   Label
	Abusive Label
}

// Decision is the decided label set together with the vector it came from.
type Decision struct {
	Labels []Label
	Scores ScoreVector
}
