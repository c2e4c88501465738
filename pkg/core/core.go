// Package core assembles the decision layer: classify a request, route it to
// a model, fan out when the router asks for it, retry failed executions, and
// feed user verdicts back into the payoff matrix.
package core

import (
	"context"
	"log"

	"github.com/GO4ME1/morgus-agent-sub009/pkg/adapter"
	"github.com/GO4ME1/morgus-agent-sub009/pkg/analyzer"
	"github.com/GO4ME1/morgus-agent-sub009/pkg/cannon"
	"github.com/GO4ME1/morgus-agent-sub009/pkg/config"
	"github.com/GO4ME1/morgus-agent-sub009/pkg/retry"
	"github.com/GO4ME1/morgus-agent-sub009/pkg/router"
)

// AskResult carries the full trace of one request: how it was classified,
// where it was routed, and the synthesized answer.
type AskResult struct {
	Task     router.TaskContext          `json:"task"`
	Decision router.Decision             `json:"decision"`
	Response *cannon.SynthesizedResponse `json:"response"`
	FellBack bool                        `json:"fell_back,omitempty"`
}

// Core is the facade over the decision layer. It is safe for concurrent use:
// the payoff matrix is the only mutable state and it guards itself.
type Core struct {
	cfg        *config.CoreConfig
	registry   *router.Registry
	matrix     *router.PayoffMatrix
	router     *router.Router
	cannon     *cannon.Cannon
	analyzer   *analyzer.Analyzer
	controller *retry.Controller
	adapters   []adapter.Adapter
	logger     func(format string, args ...any)
	debug      bool

	observer    retry.Observer
	fixExecutor retry.FixExecutor
	retryCfg    *retry.Config
}

// CoreOption configures a Core.
type CoreOption func(*Core)

// WithAdapters registers the model backends used for execution.
func WithAdapters(adapters ...adapter.Adapter) CoreOption {
	return func(c *Core) {
		c.adapters = append(c.adapters, adapters...)
	}
}

// WithCoreConfig overrides the default core configuration.
func WithCoreConfig(cfg *config.CoreConfig) CoreOption {
	return func(c *Core) {
		c.cfg = cfg
	}
}

// WithObserver attaches a retry progress observer.
func WithObserver(o retry.Observer) CoreOption {
	return func(c *Core) {
		c.observer = o
	}
}

// WithFixExecutor attaches an executor for code-bearing corrective actions.
func WithFixExecutor(e retry.FixExecutor) CoreOption {
	return func(c *Core) {
		c.fixExecutor = e
	}
}

// WithRetryConfig overrides the retry bounds from the core config.
func WithRetryConfig(cfg retry.Config) CoreOption {
	return func(c *Core) {
		c.retryCfg = &cfg
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger func(format string, args ...any)) CoreOption {
	return func(c *Core) {
		c.logger = logger
	}
}

// WithDebug enables debug logging across the assembled components.
func WithDebug(debug bool) CoreOption {
	return func(c *Core) {
		c.debug = debug
	}
}

// New assembles a Core. Without options it runs on the built-in registry with
// a uniformly seeded payoff matrix and no backends (every Fire fails), which
// is enough for Classify, Route, Analyze and Feedback.
func New(opts ...CoreOption) *Core {
	c := &Core{logger: log.Printf}
	for _, opt := range opts {
		opt(c)
	}

	if c.cfg == nil {
		c.cfg = config.DefaultCoreConfig()
	}
	c.registry = c.cfg.Registry()
	c.matrix = c.cfg.Matrix()
	c.router = router.NewRouter(c.registry, c.matrix, router.WithDebug(c.debug))
	c.analyzer = analyzer.New()

	c.cannon = cannon.New(
		cannon.CallersFromAdapters(c.adapters...),
		cannon.WithDebug(c.debug),
		cannon.WithLogger(c.logger),
	)

	retryCfg := c.cfg.RetrySettings()
	if c.retryCfg != nil {
		retryCfg = *c.retryCfg
	}
	ctrlOpts := []retry.ControllerOption{
		retry.WithConfig(retryCfg),
		retry.WithLogger(c.logger),
	}
	if c.observer != nil {
		ctrlOpts = append(ctrlOpts, retry.WithObserver(c.observer))
	}
	if c.fixExecutor != nil {
		ctrlOpts = append(ctrlOpts, retry.WithFixExecutor(c.fixExecutor))
	}
	c.controller = retry.NewController(c.analyzer, ctrlOpts...)

	return c
}

// Classify categorizes a raw user message.
func (c *Core) Classify(message string) router.TaskContext {
	return router.Classify(message)
}

// Route picks models for an already classified task.
func (c *Core) Route(tc router.TaskContext) (*router.Decision, error) {
	return c.router.Route(tc)
}

// Fire dispatches a prompt to the given models concurrently and synthesizes
// one response.
func (c *Core) Fire(ctx context.Context, prompt string, models []string, history []adapter.Message) (*cannon.SynthesizedResponse, error) {
	return c.cannon.Fire(ctx, prompt, models, history)
}

// Ask runs the full pipeline for one message: classify, route, then execute.
// Parallel decisions fan out through the cannon; single-model decisions call
// the primary and fall back to the routed fallback on transient failure.
func (c *Core) Ask(ctx context.Context, message string, history []adapter.Message) (*AskResult, error) {
	tc := c.Classify(message)
	decision, err := c.router.Route(tc)
	if err != nil {
		return nil, err
	}

	result := &AskResult{Task: tc, Decision: *decision}

	if decision.UseParallel {
		resp, err := c.cannon.Fire(ctx, message, decision.ParallelModels, history)
		if err != nil {
			return nil, err
		}
		result.Response = resp
		return result, nil
	}

	resp, err := c.cannon.Fire(ctx, message, []string{decision.PrimaryModel}, history)
	if err != nil && decision.FallbackModel != decision.PrimaryModel && c.shouldFallBack(err) {
		if c.debug {
			c.logger("[core] %s failed, falling back to %s: %v", decision.PrimaryModel, decision.FallbackModel, err)
		}
		resp, err = c.cannon.Fire(ctx, message, []string{decision.FallbackModel}, history)
		result.FellBack = true
	}
	if err != nil {
		return nil, err
	}
	result.Response = resp
	return result, nil
}

// shouldFallBack reports whether a primary-model failure warrants trying the
// fallback. Total cannon failure counts: the primary either errored
// transiently or produced nothing usable.
func (c *Core) shouldFallBack(err error) bool {
	if err == cannon.ErrAllFailed {
		return true
	}
	return adapter.IsTransient(err)
}

// Analyze classifies an execution error and suggests a corrective action.
func (c *Core) Analyze(errText string, ec analyzer.ExecutionContext) *analyzer.ErrorAnalysis {
	return c.analyzer.Analyze(errText, ec)
}

// ExecuteWithRetry runs an action under the adaptive retry loop.
func (c *Core) ExecuteWithRetry(ctx context.Context, action retry.Action, ec analyzer.ExecutionContext) *retry.RetryResult {
	return c.controller.Execute(ctx, action, ec)
}

// Feedback applies a user verdict on a (task, model) pairing to the payoff
// matrix. Unknown pairings are a no-op.
func (c *Core) Feedback(task router.TaskType, model string, rating router.Rating, responseTimeMs int64) {
	c.matrix.Update(task, model, rating, responseTimeMs)
}

// SnapshotMatrix returns a deep copy of the current payoff matrix.
func (c *Core) SnapshotMatrix() map[router.TaskType]map[string]float64 {
	return c.matrix.Snapshot()
}

// Registry exposes the model capability registry.
func (c *Core) Registry() *router.Registry {
	return c.registry
}
