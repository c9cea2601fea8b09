package model

type RefinementStatus string

const (
	// RefinementRefined means the rewriter produced a softened sentence.
	RefinementRefined RefinementStatus = "refined"
	// RefinementSkipped marks items that were not abusive; Refined equals Original.
	RefinementSkipped      RefinementStatus = "skipped"
	RefinementRateLimited  RefinementStatus = "rate_limited"
	RefinementServiceError RefinementStatus = "service_error"
	RefinementUnknownError RefinementStatus = "unknown_error"
)

// Failed reports whether the status is one of the failure variants.
func (s RefinementStatus) Failed() bool {
	switch s {
	case RefinementRateLimited, RefinementServiceError, RefinementUnknownError:
		return true
	}
	return false
}

type Refinement struct {
	Original string           `json:"original"`
	Refined  string           `json:"refined,omitempty"`
	Status   RefinementStatus `json:"status"`
	// Reason carries the underlying error text for failures.
	Reason string `json:"reason,omitempty"`
}
