// Package app builds every component of the service from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/financialstatementflow/internal/config"
	"github.com/Lllllllleong/financialstatementflow/internal/gcp"
	"github.com/Lllllllleong/financialstatementflow/internal/llm"
	"github.com/Lllllllleong/financialstatementflow/internal/logger"
	"github.com/Lllllllleong/financialstatementflow/internal/metrics"
	"github.com/Lllllllleong/financialstatementflow/internal/render"
	"github.com/Lllllllleong/financialstatementflow/internal/server"
	"github.com/Lllllllleong/financialstatementflow/internal/services"
	"github.com/Lllllllleong/financialstatementflow/internal/store"
	"github.com/gin-gonic/gin"
)

// App holds the wired components and the resources they own.
type App struct {
	Config   *config.Config
	Pipeline *services.Pipeline
	Gateway  *store.Gateway
	Metrics  *metrics.Metrics
	Router   *gin.Engine

	closers []func() error
}

// LoadConfig reads CONFIG_PATH (default config.yaml), installs the logger and
// validates the result.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.GetEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if verrs := cfg.Validate(); len(verrs) > 0 {
		errs := make([]error, 0, len(verrs))
		for _, v := range verrs {
			errs = append(errs, v)
		}
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// New wires the pipeline, the persistence gateway and the HTTP router. The
// store connects lazily on first use.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	client, closeLLM, err := NewLLMClient(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	if closeLLM != nil {
		a.closers = append(a.closers, closeLLM)
	}
	client = llm.NewLimited(client, cfg.LLM.RequestsPerSecond, cfg.LLM.Burst, cfg.LLM.Timeout)

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
	}

	a.Gateway = store.NewGateway(store.NewConnector(cfg.Store))
	a.closers = append(a.closers, a.Gateway.Close)

	pipelineCfg := services.PipelineConfig{
		Renderer:  render.NewRenderer(cfg.Pipeline.RenderDPI),
		Extractor: services.NewExtractor(client, cfg.LLM.ExtractionModel, services.NewDebugSink(cfg.Pipeline.DebugDir)),
		Analyzer:  services.NewAnalyzer(client, cfg.LLM.AnalysisModel),
		Modeller:  services.NewModeller(client, cfg.LLM.ModelingModel, services.LoadExampleTemplate(cfg.Pipeline.ExampleModelPath)),
		Store:     a.Gateway,
		Parallel:  cfg.Pipeline.ParallelStages,
	}
	if a.Metrics != nil {
		pipelineCfg.Observer = a.Metrics
	}
	a.Pipeline = services.NewPipeline(pipelineCfg)

	a.Router = server.NewRouter(server.RouterConfig{
		Handler:            server.NewHandler(a.Pipeline, a.Gateway, cfg.Server.MaxUploadBytes),
		Metrics:            a.Metrics,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
	})

	slog.Info("Application wired.",
		"llmProvider", cfg.LLM.Provider,
		"records", cfg.Store.Records,
		"blobs", cfg.Store.Blobs,
		"parallelStages", cfg.Pipeline.ParallelStages,
	)
	return a, nil
}

// NewLLMClient creates the configured provider. The returned close func may be nil.
func NewLLMClient(ctx context.Context, cfg config.LLMConfig) (llm.Client, func() error, error) {
	switch cfg.Provider {
	case config.ProviderVertex:
		c, err := gcp.NewVertexClient(ctx, cfg.ProjectID, cfg.Region, float32(cfg.Temperature))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create vertex client: %w", err)
		}
		return c, c.Close, nil
	case config.ProviderOpenAI:
		c, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Temperature: float32(cfg.Temperature),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		return c, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// NewIngestor builds the bucket-triggered ingest service on top of the
// pipeline, with the optional Cloud Workflows hand-off.
func (a *App) NewIngestor(ctx context.Context) (*services.Ingestor, error) {
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	a.closers = append(a.closers, storageClient.Close)

	ingestCfg := services.IngestConfig{
		Reader:   gcp.NewBucketReader(storageClient),
		Pipeline: a.Pipeline,
		Bucket:   a.Config.Ingest.Bucket,
		Options:  services.Options{Analyze: true, Model: true},
	}

	if a.Config.Ingest.WorkflowID != "" {
		trigger, err := gcp.NewWorkflowTrigger(ctx, a.Config.LLM.ProjectID, a.Config.Ingest.WorkflowLocation, a.Config.Ingest.WorkflowID)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, trigger.Close)
		ingestCfg.Workflow = trigger
	}

	return services.NewIngestor(ingestCfg), nil
}

// Close releases every client in reverse creation order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
