package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/purify/internal/classifier"
	"github.com/agenthands/purify/internal/core"
	"github.com/agenthands/purify/internal/core/model"
)

const MaxBatchSize = 64

type PredictRequest struct {
	Sentence string `json:"sentence"`
}

// PredictResponse keeps the field names the browser extension reads.
type PredictResponse struct {
	Sentence    string             `json:"sentence"`
	IsProfanity int                `json:"isProfanity"`
	Highlighted []string           `json:"highlighted"`
	Confidence  float64            `json:"confidence"`
	Labels      []model.Label      `json:"labels"`
	RawScores   []model.LabelScore `json:"rawScores"`
}

type BatchRequest struct {
	Texts     []string `json:"texts"`
	Threshold *float64 `json:"threshold,omitempty"`
}

type DetectionResult struct {
	Text        string                  `json:"text"`
	IsProfanity int                     `json:"isProfanity"`
	Confidence  float64                 `json:"confidence"`
	Labels      []model.Label           `json:"labels"`
	RawScores   map[model.Label]float64 `json:"rawScores"`
	Highlighted []string                `json:"highlighted"`
}

type RefinementResult struct {
	Original string                 `json:"original"`
	Refined  string                 `json:"refined"`
	Status   model.RefinementStatus `json:"status"`
	Reason   string                 `json:"reason,omitempty"`
}

func profanityFlag(abusive bool) int {
	if abusive {
		return 1
	}
	return 0
}

func toDetectionResult(d model.Detection) DetectionResult {
	return DetectionResult{
		Text:        d.Text,
		IsProfanity: profanityFlag(d.IsAbusive),
		Confidence:  d.Confidence,
		Labels:      d.Labels,
		RawScores:   d.Scores.Map(),
		Highlighted: []string{},
	}
}

func requestContext(c *gin.Context) context.Context {
	return classifier.WithRequestID(c.Request.Context(), c.GetString(requestIDKey))
}

func bindBatch(c *gin.Context) (*BatchRequest, bool) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleInvalidRequest(c, "invalid request body")
		return nil, false
	}
	if len(req.Texts) == 0 {
		handleInvalidRequest(c, "texts must not be empty")
		return nil, false
	}
	if len(req.Texts) > MaxBatchSize {
		handleInvalidRequest(c, fmt.Sprintf("at most %d texts per request", MaxBatchSize))
		return nil, false
	}
	for i, t := range req.Texts {
		if strings.TrimSpace(t) == "" {
			handleInvalidRequest(c, fmt.Sprintf("texts[%d] is empty", i))
			return nil, false
		}
	}
	return &req, true
}

// Predict handles POST /predict for a single sentence.
func (s *Server) Predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Sentence) == "" {
		handleInvalidRequest(c, "sentence is required")
		return
	}

	detections, err := s.Engine.Detect(requestContext(c), []string{req.Sentence}, core.ProcessOptions{})
	if err != nil {
		s.Logger.Sugar().Errorw("Failed to detect", "error", err, "request_id", c.GetString(requestIDKey))
		handleEngineError(c, err)
		return
	}

	d := detections[0]
	c.JSON(http.StatusOK, PredictResponse{
		Sentence:    req.Sentence,
		IsProfanity: profanityFlag(d.IsAbusive),
		Highlighted: []string{},
		Confidence:  d.Confidence,
		Labels:      d.Labels,
		RawScores:   d.Scores,
	})
}

// Detect handles POST /v1/detect.
func (s *Server) Detect(c *gin.Context) {
	req, ok := bindBatch(c)
	if !ok {
		return
	}

	detections, err := s.Engine.Detect(requestContext(c), req.Texts, core.ProcessOptions{Threshold: req.Threshold})
	if err != nil {
		s.Logger.Sugar().Errorw("Failed to detect batch", "error", err, "request_id", c.GetString(requestIDKey))
		handleEngineError(c, err)
		return
	}

	results := make([]DetectionResult, len(detections))
	for i, d := range detections {
		results[i] = toDetectionResult(d)
	}
	respondSuccess(c, http.StatusOK, gin.H{"results": results})
}

// Refine handles POST /v1/refine.
func (s *Server) Refine(c *gin.Context) {
	req, ok := bindBatch(c)
	if !ok {
		return
	}

	result, err := s.Engine.Process(requestContext(c), req.Texts, core.ProcessOptions{
		Threshold: req.Threshold,
		Refine:    true,
	})
	if err != nil {
		s.Logger.Sugar().Errorw("Failed to refine batch", "error", err, "request_id", c.GetString(requestIDKey))
		handleEngineError(c, err)
		return
	}

	results := make([]RefinementResult, len(result.Refinements))
	for i, r := range result.Refinements {
		results[i] = RefinementResult{
			Original: r.Original,
			Refined:  r.Refined,
			Status:   r.Status,
			Reason:   r.Reason,
		}
	}
	respondSuccess(c, http.StatusOK, gin.H{"results": results})
}

type HealthStatus struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	components := map[string]string{}
	healthy := true

	if s.Health != nil {
		resp, err := s.Health.Health(ctx)
		switch {
		case err != nil:
			components["classifier"] = "error: " + err.Error()
			healthy = false
		case !resp.ModelLoaded:
			components["classifier"] = "model not loaded"
			healthy = false
		default:
			components["classifier"] = "ok"
		}
	} else {
		components["classifier"] = "not configured"
	}

	if s.Engine.Refiner != nil {
		components["rewriter"] = "configured"
	} else {
		components["rewriter"] = "not configured"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthStatus{
		Status:     status,
		Components: components,
	})
}

// Ready handles GET /ready.
func (s *Server) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
