package model

// Detection is the per-item result of batch detection.
type Detection struct {
	Text       string      `json:"text"`
	Labels     []Label     `json:"labels"`
	Confidence float64     `json:"confidence"`
	IsAbusive  bool        `json:"is_abusive"`
	Scores     ScoreVector `json:"raw_scores"`
}
