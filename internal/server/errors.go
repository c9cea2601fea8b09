package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/purify/internal/core"
	"github.com/agenthands/purify/internal/core/detection"
)

type ErrorResponse struct {
	StatusCode int
	Code       string
	Message    string
}

// MapEngineError maps engine errors to HTTP error responses. Anything not
// recognised came from the classifier call.
func MapEngineError(err error) ErrorResponse {
	switch {
	case errors.Is(err, core.ErrInvalidThreshold):
		return ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Code:       "INVALID_REQUEST",
			Message:    "threshold must be within [0,1]",
		}
	case errors.Is(err, core.ErrNoRewriter):
		return ErrorResponse{
			StatusCode: http.StatusServiceUnavailable,
			Code:       "REFINEMENT_UNAVAILABLE",
			Message:    "refinement is not configured",
		}
	case errors.Is(err, detection.ErrContractViolation):
		return ErrorResponse{
			StatusCode: http.StatusBadGateway,
			Code:       "CLASSIFIER_CONTRACT",
			Message:    "classifier returned an invalid response",
		}
	default:
		return ErrorResponse{
			StatusCode: http.StatusBadGateway,
			Code:       "CLASSIFIER_UNAVAILABLE",
			Message:    "classifier request failed",
		}
	}
}

func handleEngineError(c *gin.Context, err error) {
	errResp := MapEngineError(err)
	respondError(c, errResp.StatusCode, errResp.Code, errResp.Message)
}

func handleInvalidRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, "INVALID_REQUEST", message)
}
