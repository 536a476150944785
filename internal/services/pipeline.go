package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/Lllllllleong/financialstatementflow/internal/logger"
	"github.com/Lllllllleong/financialstatementflow/internal/render"
	"github.com/Lllllllleong/financialstatementflow/internal/store"
	"golang.org/x/sync/errgroup"
)

// PageRenderer rasterizes the first page of a PDF.
type PageRenderer interface {
	RenderFirstPage(ctx context.Context, pdf []byte) (*render.PageImage, error)
}

// Persister stores the CSV and its reference record.
type Persister interface {
	Persist(ctx context.Context, req store.PersistRequest) (*store.PersistResult, error)
}

// StageObserver is told how long each stage took and whether it failed.
type StageObserver interface {
	ObserveStage(stage string, d time.Duration, err error)
}

// Options selects the optional stages. Extraction and persistence always run.
type Options struct {
	Analyze bool
	Model   bool
}

// Input is one uploaded statement.
type Input struct {
	Filename string
	PDF      []byte
	Options  Options
}

// Result is the output of a completed run. PersistErr is set, and the ids are
// empty, when everything but persistence succeeded.
type Result struct {
	CSV        string
	Analysis   string
	Model      string
	FileID     string
	RecordID   string
	PersistErr error
	Timings    map[string]time.Duration
}

// Persisted reports whether the CSV and record were stored.
func (r *Result) Persisted() bool {
	return r.PersistErr == nil && r.RecordID != ""
}

// PipelineConfig holds the pipeline's collaborators. Analyzer and Modeller
// are only required when a run asks for them.
type PipelineConfig struct {
	Renderer  PageRenderer
	Extractor *Extractor
	Analyzer  *Analyzer
	Modeller  *Modeller
	Store     Persister
	Parallel  bool
	Observer  StageObserver
}

// Pipeline runs render, extraction, the optional analysis and modeling
// stages, then persistence, for one statement at a time.
type Pipeline struct {
	cfg PipelineConfig
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	return &Pipeline{cfg: cfg}
}

var errStageNotConfigured = errors.New("stage not configured")

// Run processes one statement. Any failure before persistence is returned as
// an error; a persistence failure is reported in Result.PersistErr.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	logCtx := logger.WithContext(ctx)
	res := &Result{Timings: make(map[string]time.Duration)}
	var mu sync.Mutex

	timed := func(stage string, fn func() error) error {
		start := time.Now()
		err := fn()
		d := time.Since(start)
		mu.Lock()
		res.Timings[stage] = d
		mu.Unlock()
		if p.cfg.Observer != nil {
			p.cfg.Observer.ObserveStage(stage, d, err)
		}
		return err
	}

	logCtx.Info("Pipeline started.", "analyze", in.Options.Analyze, "model", in.Options.Model, "bytes", len(in.PDF))

	var page *render.PageImage
	if err := timed(StageRender, func() error {
		var err error
		page, err = p.cfg.Renderer.RenderFirstPage(ctx, in.PDF)
		return err
	}); err != nil {
		logCtx.Error("Failed to render first page.", "error", err)
		return nil, err
	}

	if err := timed(StageExtraction, func() error {
		var err error
		res.CSV, err = p.cfg.Extractor.Extract(ctx, page)
		return err
	}); err != nil {
		return nil, err
	}

	analyze := func(ctx context.Context) error {
		return timed(StageAnalysis, func() error {
			if p.cfg.Analyzer == nil {
				return &StageError{Stage: StageAnalysis, Err: errStageNotConfigured}
			}
			text, err := p.cfg.Analyzer.Analyze(ctx, res.CSV)
			res.Analysis = text
			return err
		})
	}
	model := func(ctx context.Context) error {
		return timed(StageModeling, func() error {
			if p.cfg.Modeller == nil {
				return &StageError{Stage: StageModeling, Err: errStageNotConfigured}
			}
			text, err := p.cfg.Modeller.BuildModel(ctx, res.CSV)
			res.Model = text
			return err
		})
	}

	if err := p.runStages(ctx, in.Options, analyze, model); err != nil {
		return nil, err
	}

	p.persist(ctx, in, res, timed)
	logCtx.Info("Pipeline finished.", "persisted", res.Persisted(), "recordId", res.RecordID)
	return res, nil
}

func (p *Pipeline) runStages(ctx context.Context, opts Options, analyze, model func(context.Context) error) error {
	if !p.cfg.Parallel || !opts.Analyze || !opts.Model {
		if opts.Analyze {
			if err := analyze(ctx); err != nil {
				return err
			}
		}
		if opts.Model {
			if err := model(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return analyze(gctx) })
	g.Go(func() error { return model(gctx) })
	return g.Wait()
}

func (p *Pipeline) persist(ctx context.Context, in Input, res *Result, timed func(string, func() error) error) {
	err := timed(StagePersist, func() error {
		if p.cfg.Store == nil {
			return &store.PersistenceError{Op: "connect", Err: store.ErrNotConnected}
		}
		out, err := p.cfg.Store.Persist(ctx, store.PersistRequest{
			CSV:        res.CSV,
			Filename:   in.Filename,
			Analysis:   res.Analysis,
			Model:      res.Model,
			SourceHash: sourceHash(in.PDF),
		})
		if err != nil {
			return err
		}
		res.FileID, res.RecordID = out.FileID, out.RecordID
		return nil
	})
	if err != nil {
		logger.WithContext(ctx).Error("Failed to persist CSV. Returning partial result.", "error", err)
		res.PersistErr = err
	}
}

// sourceHash fingerprints the uploaded PDF. Records are not deduplicated on it.
func sourceHash(pdf []byte) string {
	sum := sha256.Sum256(pdf)
	return hex.EncodeToString(sum[:])
}
