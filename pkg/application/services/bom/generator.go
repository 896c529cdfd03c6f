package bom

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/sinkbom/pkg/application/dto"
	"github.com/vsinha/sinkbom/pkg/domain/entities"
	"github.com/vsinha/sinkbom/pkg/domain/repositories"
	"github.com/vsinha/sinkbom/pkg/domain/services"
	"github.com/vsinha/sinkbom/pkg/domain/services/selection"
	"github.com/vsinha/sinkbom/pkg/infrastructure/events"
	"github.com/vsinha/sinkbom/pkg/infrastructure/metrics"
)

var (
	// ErrPreflightFailed aborts an order whose configurations lack required fields
	ErrPreflightFailed = errors.New("pre-flight validation failed")
	// ErrBuildsFailed aborts an order with failed builds when partial success is disabled
	ErrBuildsFailed = errors.New("one or more builds failed")
	// ErrQuantityOverflow aborts an order whose aggregated quantities leave the integer range
	ErrQuantityOverflow = errors.New("order quantities overflow")
)

// Options configures a Generator
type Options struct {
	MaxDepth         int
	CollectAllErrors bool
	// PartialSuccess returns the surviving builds when some builds fail
	PartialSuccess bool
	// Workers bounds concurrently processed builds; <= 0 uses the CPU count
	Workers int
}

// Generator turns order configurations into hierarchical and flattened BOMs.
// It holds no per-call state, so one Generator serves concurrent calls.
type Generator struct {
	opts        Options
	normalizer  *services.ConfigNormalizer
	validator   *services.ConfigValidator
	synthesizer *services.CustomItemSynthesizer
	flattener   *Flattener
	logger      *zap.Logger
	metrics     *metrics.Recorder
	eventStore  events.EventStore
	newID       func() string
}

// Option customizes a Generator
type Option func(*Generator)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(g *Generator) { g.metrics = recorder }
}

// WithEventStore publishes generation events to store
func WithEventStore(store events.EventStore) Option {
	return func(g *Generator) { g.eventStore = store }
}

// NewGenerator creates a generator
func NewGenerator(opts Options, options ...Option) *Generator {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	g := &Generator{
		opts:        opts,
		normalizer:  services.NewConfigNormalizer(),
		validator:   services.NewConfigValidator(),
		synthesizer: services.NewCustomItemSynthesizer(),
		flattener:   NewFlattener(),
		logger:      zap.NewNop(),
		newID:       uuid.NewString,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

type buildOutcome struct {
	buildNumber string
	config      *entities.BuildConfiguration
	roots       []*entities.BOMNode
	fatal       []entities.Issue
	warnings    []entities.Issue
	duration    time.Duration
}

func (o *buildOutcome) failed() bool {
	return len(o.fatal) > 0
}

// GenerateBOM generates the BOM of every build in req against catalog.
// Order-level problems and pre-flight failures abort the call with a *dto.GenerationError.
// Build failures abort the call too unless partial success is enabled, in which case the
// failed builds are reported in the result and left out of the BOM.
func (g *Generator) GenerateBOM(
	ctx context.Context,
	catalog repositories.CatalogRepository,
	req *dto.GenerateBOMRequest,
) (*dto.GenerateBOMResult, error) {
	timer := metrics.NewTimer()
	generationID := g.newID()
	logger := g.logger.With(zap.String("generation_id", generationID))

	if catalog == nil {
		return nil, fmt.Errorf("generation %s: no catalog loaded", generationID)
	}
	if req == nil {
		req = &dto.GenerateBOMRequest{}
	}

	if err := g.validator.ValidateOrder(req.BuildNumbers, req.Configurations); err != nil {
		g.metrics.RecordGeneration("rejected", timer.Duration())
		return nil, &dto.GenerationError{GenerationID: generationID, Reason: err}
	}

	var preflight []entities.Issue
	for _, bn := range req.BuildNumbers {
		preflight = append(preflight, g.validator.Preflight(bn, req.Configurations[bn])...)
	}
	if fatal, _ := g.validator.Partition(preflight); len(fatal) > 0 {
		g.recordIssues(fatal)
		g.metrics.RecordGeneration("rejected", timer.Duration())
		logger.Warn("pre-flight validation failed", zap.Int("issues", len(fatal)))
		return nil, &dto.GenerationError{GenerationID: generationID, Reason: ErrPreflightFailed, Issues: fatal}
	}

	logger.Info("generation started",
		zap.Strings("build_numbers", req.BuildNumbers),
		zap.String("catalog_version", catalog.Version()))
	g.publish(logger, events.NewGenerationStartedEvent(generationID, req.BuildNumbers, catalog.Version()))

	engine := selection.NewEngine(catalog)
	expander := NewExpander(catalog, ExpanderOptions{
		MaxDepth:         g.opts.MaxDepth,
		CollectAllErrors: g.opts.CollectAllErrors,
	})

	outcomes := make([]*buildOutcome, len(req.BuildNumbers))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(g.opts.Workers)
	for i, bn := range req.BuildNumbers {
		group.Go(func() error {
			outcome, err := g.processBuild(groupCtx, engine, expander, bn, req.Configurations[bn], req.Accessories[bn])
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		g.metrics.RecordGeneration("canceled", timer.Duration())
		return nil, fmt.Errorf("generation %s: %w", generationID, err)
	}

	result := &dto.GenerateBOMResult{
		GenerationID:    generationID,
		CatalogVersion:  catalog.Version(),
		Customer:        req.Customer,
		Hierarchical:    make(map[string][]*entities.BOMNode),
		Flattened:       []entities.FlattenedItem{},
		PerBuildSummary: make(map[string]dto.BuildSummary, len(outcomes)),
		Warnings:        []entities.Issue{},
		Errors:          []entities.Issue{},
	}

	var (
		trees  []BuildTree
		failed int
	)
	for _, o := range outcomes {
		var (
			buildQuantity int64
			err           error
		)
		if !o.failed() {
			tree := BuildTree{BuildNumber: o.buildNumber, Roots: o.roots}
			if buildQuantity, err = g.buildQuantity(tree); err != nil {
				o.fatal = append(o.fatal, entities.IssuesFromError(err)...)
			}
		}

		result.Warnings = append(result.Warnings, o.warnings...)
		result.Errors = append(result.Errors, o.fatal...)
		g.recordIssues(o.warnings)
		g.recordIssues(o.fatal)

		summary := dto.BuildSummary{
			BuildNumber: o.buildNumber,
			Warnings:    len(o.warnings),
			Errors:      len(o.fatal),
		}
		if o.config != nil {
			summary.SinkModel = o.config.SinkModel
		}

		if o.failed() {
			failed++
			summary.Status = dto.BuildFailed
			result.PerBuildSummary[o.buildNumber] = summary
			g.metrics.RecordBuild("failed", 0)
			logger.Warn("build failed", zap.String("build_number", o.buildNumber), zap.Int("errors", len(o.fatal)))
			g.publish(logger, events.NewBuildFailedEvent(generationID, o.buildNumber, o.fatal))
			continue
		}

		tree := BuildTree{BuildNumber: o.buildNumber, Roots: o.roots}
		trees = append(trees, tree)
		result.Hierarchical[o.buildNumber] = o.roots

		nodes := 0
		for _, root := range o.roots {
			nodes += root.CountNodes()
		}

		summary.Status = dto.BuildSucceeded
		summary.TopLevelItems = len(o.roots)
		summary.NodeCount = nodes
		summary.TotalQuantity = buildQuantity
		result.PerBuildSummary[o.buildNumber] = summary

		g.metrics.RecordBuild("succeeded", nodes)
		for _, w := range o.warnings {
			logger.Debug("build warning", zap.String("build_number", o.buildNumber), zap.String("warning", w.Message))
		}
		g.publish(logger, events.NewBuildExpandedEvent(generationID, events.BuildExpanded{
			BuildNumber:   o.buildNumber,
			TopLevelItems: len(o.roots),
			NodeCount:     nodes,
			Warnings:      len(o.warnings),
			Duration:      o.duration,
			Issues:        o.warnings,
		}))
	}

	if failed > 0 && !g.opts.PartialSuccess {
		g.metrics.RecordGeneration("failed", timer.Duration())
		return nil, &dto.GenerationError{GenerationID: generationID, Reason: ErrBuildsFailed, Issues: result.Errors}
	}

	flattened, err := g.flattener.Flatten(trees)
	if err == nil {
		result.TotalItems, result.TotalQuantity, err = Totals(flattened)
	}
	if err != nil {
		issues := entities.IssuesFromError(err)
		g.recordIssues(issues)
		g.metrics.RecordGeneration("failed", timer.Duration())
		logger.Warn("order quantities overflow", zap.Error(err))
		return nil, &dto.GenerationError{GenerationID: generationID, Reason: ErrQuantityOverflow, Issues: issues}
	}
	result.Flattened = flattened

	status := "success"
	switch {
	case failed == len(outcomes):
		status = "failed"
	case failed > 0:
		status = "partial"
	}
	duration := timer.Duration()
	g.metrics.RecordGeneration(status, duration)

	logger.Info("generation completed",
		zap.String("status", status),
		zap.Int("builds", len(outcomes)),
		zap.Int("failed_builds", failed),
		zap.Int("total_items", result.TotalItems),
		zap.Int64("total_quantity", result.TotalQuantity),
		zap.Duration("duration", duration))
	g.publish(logger, events.NewGenerationCompletedEvent(events.GenerationCompleted{
		GenerationID:    generationID,
		SucceededBuilds: len(outcomes) - failed,
		FailedBuilds:    failed,
		TotalItems:      result.TotalItems,
		TotalQuantity:   result.TotalQuantity,
		Duration:        duration,
	}))

	return result, nil
}

// processBuild normalizes, selects and expands one build. Build-level failures are returned in
// the outcome; the error is reserved for cancellation.
func (g *Generator) processBuild(
	ctx context.Context,
	engine *selection.Engine,
	expander *Expander,
	buildNumber string,
	raw entities.RawConfiguration,
	accessories []entities.AccessoryLine,
) (*buildOutcome, error) {
	start := time.Now()
	outcome := &buildOutcome{buildNumber: buildNumber}
	defer func() { outcome.duration = time.Since(start) }()

	cfg, err := g.normalizer.Normalize(buildNumber, raw, accessories)
	if err != nil {
		outcome.fatal = entities.IssuesFromError(err)
		return outcome, nil
	}
	outcome.config = cfg

	selections, err := engine.Resolve(cfg)
	if err != nil {
		outcome.fatal = entities.IssuesFromError(err)
		return outcome, nil
	}

	var issues []entities.Issue
	for _, sel := range selections {
		if sel.Custom != nil {
			outcome.roots = append(outcome.roots,
				g.synthesizer.Synthesize(services.BasinCustomSpec(*sel.Custom), sel.Quantity))
			continue
		}

		expansion, err := expander.Expand(ctx, buildNumber, sel.ID, sel.Quantity, sel.Source)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if expansion != nil {
			for _, w := range expansion.Warnings {
				issues = append(issues, entities.NewIssue(w))
			}
		}
		if err != nil {
			issues = append(issues, entities.IssuesFromError(err)...)
			continue
		}
		outcome.roots = append(outcome.roots, expansion.Root)
	}

	outcome.fatal, outcome.warnings = g.validator.Partition(issues)
	return outcome, nil
}

// buildQuantity flattens one build on its own so overflow is pinned to the build that causes it
func (g *Generator) buildQuantity(tree BuildTree) (int64, error) {
	items, err := g.flattener.Flatten([]BuildTree{tree})
	if err != nil {
		return 0, err
	}
	_, total, err := Totals(items)
	if err != nil {
		var overflow *entities.QuantityOverflowError
		if errors.As(err, &overflow) {
			overflow.BuildNumber = tree.BuildNumber
		}
		return 0, err
	}
	return total, nil
}

func (g *Generator) recordIssues(issues []entities.Issue) {
	for _, issue := range issues {
		g.metrics.RecordIssue(string(issue.Kind), issue.Severity.String())
	}
}

func (g *Generator) publish(logger *zap.Logger, event events.Event) {
	if g.eventStore == nil {
		return
	}
	if err := g.eventStore.AppendEvent(event.StreamID(), event); err != nil {
		logger.Warn("failed to publish event", zap.String("event_type", event.Type()), zap.Error(err))
	}
}
