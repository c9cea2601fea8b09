package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agenthands/purify/internal/classifier"
	"github.com/agenthands/purify/internal/config"
	"github.com/agenthands/purify/internal/core"
	"github.com/agenthands/purify/internal/core/model"
	"github.com/agenthands/purify/internal/core/refinement"
	"github.com/agenthands/purify/internal/llm"
	"github.com/agenthands/purify/internal/metrics"
)

// HealthChecker probes the inference service.
type HealthChecker interface {
	Health(ctx context.Context) (*classifier.HealthResponse, error)
}

// Dependencies are the process-wide collaborators, built once at start-up.
type Dependencies struct {
	Engine     *core.Engine
	Classifier *classifier.Client
	Metrics    *metrics.Metrics
	closers    []io.Closer
}

// Build constructs the classifier client, the LLM client and the engine from cfg.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Dependencies, error) {
	m := metrics.New()
	classifierClient := classifier.NewClient(cfg.Classifier.BaseURL, cfg.Classifier.Timeout.Duration)

	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	if cfg.LLM.APIKey == "" && !strings.EqualFold(cfg.LLM.Provider, "ollama") {
		log.Warn("No LLM API key configured, refinement calls will fail", zap.String("provider", cfg.LLM.Provider))
	}

	deps := &Dependencies{
		Classifier: classifierClient,
		Metrics:    m,
	}
	if c, ok := llmClient.(io.Closer); ok {
		deps.closers = append(deps.closers, c)
	}

	rewriter := refinement.NewLLMRewriter(llmClient, cfg.Refinement.Prompts)
	engine, err := core.NewEngine(classifierClient, rewriter,
		core.WithPolicy(model.Policy{
			Clean:   model.Label(cfg.Detection.CleanLabel),
			Abusive: model.Label(cfg.Detection.AbusiveLabel),
		}),
		core.WithThreshold(cfg.Detection.Threshold),
		core.WithRefinement(refinement.Options{
			CallTimeout:       cfg.Refinement.CallTimeout.Duration,
			RateLimitBackoff:  cfg.Refinement.RateLimitBackoff.Duration,
			RetryAfterBackoff: cfg.Refinement.RetryAfterBackoff,
			Concurrency:       cfg.Refinement.Concurrency,
		}),
		core.WithLogger(log.Named("engine")),
		core.WithMetrics(m),
	)
	if err != nil {
		_ = deps.Close()
		return nil, fmt.Errorf("failed to build engine: %w", err)
	}
	deps.Engine = engine

	return deps, nil
}

func (d *Dependencies) Close() error {
	var errs []error
	for _, c := range d.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

type Server struct {
	Engine      *core.Engine
	Health      HealthChecker
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	CORSOrigins []string
}

func NewServer(engine *core.Engine, health HealthChecker, m *metrics.Metrics, log *zap.Logger, corsOrigins []string) *Server {
	return &Server{
		Engine:      engine,
		Health:      health,
		Metrics:     m,
		Logger:      log,
		CORSOrigins: corsOrigins,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()

	r.Use(RequestID())
	r.Use(Logger(s.Logger))
	r.Use(Recovery(s.Logger))
	r.Use(CORS(s.CORSOrigins))

	r.GET("/health", s.HealthCheck)
	r.GET("/ready", s.Ready)
	r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))

	r.POST("/predict", s.Predict)

	v1 := r.Group("/v1")
	{
		v1.POST("/detect", s.Detect)
		v1.POST("/refine", s.Refine)
	}

	return r
}
