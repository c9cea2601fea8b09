package detection

import "errors"

var (
	// ErrEmptyScoreVector is returned when the classifier produced no scores for an item.
	ErrEmptyScoreVector = errors.New("empty score vector")
	// ErrContractViolation marks classifier output that does not match the request
	// (wrong count, duplicate labels, scores outside [0,1]).
	ErrContractViolation = errors.New("classifier contract violation")
)
