// Package retry drives a bounded fix-then-retry loop around an arbitrary
// action, using the analyzer to classify failures and pick corrective
// actions between attempts.
package retry

import (
	"context"
	"log"
	"time"

	"github.com/GO4ME1/morgus-agent-sub009/pkg/analyzer"
)

// Action is the operation under retry. It receives the current execution
// context, which corrective actions may have transformed since the previous
// attempt.
type Action func(ctx context.Context, ec analyzer.ExecutionContext) (any, error)

// Progress is reported to the observer before each attempt.
type Progress struct {
	Attempt     int
	MaxAttempts int
	LastError   string
	LastFix     string
	Elapsed     time.Duration
}

// Observer receives progress and fix notifications. Implementations must be
// fast; they run inline on the retry path.
type Observer interface {
	OnProgress(p Progress)
	OnFix(action analyzer.CorrectiveAction)
}

// FixExecutor runs a corrective action's code, e.g. a package install. It is
// optional: without one, code-bearing fixes are skipped and the loop moves
// straight to backoff.
type FixExecutor interface {
	Run(ctx context.Context, code string) error
}

// RetryResult is the terminal outcome of one retry loop.
type RetryResult struct {
	Success     bool     `json:"success"`
	Result      any      `json:"result,omitempty"`
	Err         string   `json:"error,omitempty"`
	Attempts    int      `json:"attempts"`
	Fixes       []string `json:"fixes"`
	TotalTimeMs int64    `json:"total_time_ms"`
}

// Config bounds the retry loop.
type Config struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	Multiplier     float64
	MaxBackoff     time.Duration
}

// DefaultConfig returns the standard retry bounds.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		Multiplier:     2,
		MaxBackoff:     30 * time.Second,
	}
}

func applyConfigDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = def.Multiplier
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
}

// Controller runs the retry state machine. One attempt is in flight at a
// time; the only suspension points are the wrapped action itself and the
// backoff sleep.
type Controller struct {
	analyzer *analyzer.Analyzer
	cfg      Config
	observer Observer
	executor FixExecutor
	logger   func(format string, args ...any)
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithObserver attaches a progress observer.
func WithObserver(o Observer) ControllerOption {
	return func(c *Controller) {
		c.observer = o
	}
}

// WithFixExecutor attaches an executor for code-bearing fixes.
func WithFixExecutor(e FixExecutor) ControllerOption {
	return func(c *Controller) {
		c.executor = e
	}
}

// WithConfig overrides the retry bounds.
func WithConfig(cfg Config) ControllerOption {
	return func(c *Controller) {
		c.cfg = cfg
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger func(format string, args ...any)) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a retry controller over the given analyzer.
func NewController(a *analyzer.Analyzer, opts ...ControllerOption) *Controller {
	c := &Controller{
		analyzer: a,
		cfg:      DefaultConfig(),
		logger:   log.Printf,
	}
	for _, opt := range opts {
		opt(c)
	}
	applyConfigDefaults(&c.cfg)
	return c
}

// Execute runs the action until it succeeds or the attempt budget is spent.
// The returned result always carries the cumulative fixes and wall-clock
// time; Attempts never exceeds the configured maximum.
func (c *Controller) Execute(ctx context.Context, action Action, ec analyzer.ExecutionContext) *RetryResult {
	start := time.Now()
	fixes := []string{}
	var lastErr error
	var lastFix string

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		c.reportProgress(attempt, lastErr, lastFix, time.Since(start))

		result, err := action(ctx, ec)
		if err == nil {
			return &RetryResult{
				Success:     true,
				Result:      result,
				Attempts:    attempt,
				Fixes:       fixes,
				TotalTimeMs: time.Since(start).Milliseconds(),
			}
		}

		lastErr = err
		ec.PreviousErrors = append(ec.PreviousErrors, err.Error())
		ec.PreviousAttempts++

		analysis := c.analyzer.Analyze(err.Error(), ec)
		if !analyzer.ShouldRetry(analysis, attempt, c.cfg.MaxAttempts) {
			return &RetryResult{
				Success:     false,
				Err:         err.Error(),
				Attempts:    attempt,
				Fixes:       fixes,
				TotalTimeMs: time.Since(start).Milliseconds(),
			}
		}

		if fix := analysis.SuggestedFix; fix != nil {
			ec = c.applyFix(ctx, *fix, ec)
			fixes = append(fixes, string(fix.Kind))
			lastFix = string(fix.Kind)
			if c.observer != nil {
				c.observer.OnFix(*fix)
			}
		}

		backoff := c.backoffFor(analysis.ErrorType, attempt)
		if err := sleepWithContext(ctx, backoff); err != nil {
			return &RetryResult{
				Success:     false,
				Err:         err.Error(),
				Attempts:    attempt,
				Fixes:       fixes,
				TotalTimeMs: time.Since(start).Milliseconds(),
			}
		}
	}

	errText := ""
	if lastErr != nil {
		errText = lastErr.Error()
	}
	return &RetryResult{
		Success:     false,
		Err:         errText,
		Attempts:    c.cfg.MaxAttempts,
		Fixes:       fixes,
		TotalTimeMs: time.Since(start).Milliseconds(),
	}
}

// applyFix runs the fix's code through the executor when one is attached,
// then applies the pure context transform. Executor failures are logged and
// ignored; they never abort the loop.
func (c *Controller) applyFix(ctx context.Context, fix analyzer.CorrectiveAction, ec analyzer.ExecutionContext) analyzer.ExecutionContext {
	if fix.Code != "" && c.executor != nil {
		if err := c.executor.Run(ctx, fix.Code); err != nil {
			c.logger("[retry] fix %s failed to apply: %v", fix.Kind, err)
		}
	}
	return analyzer.Apply(fix, ec)
}

// backoffFor computes initial * multiplier^(attempt-1), stretched for
// network-ish categories and capped at the configured maximum.
func (c *Controller) backoffFor(errType analyzer.ErrorType, attempt int) time.Duration {
	backoff := c.cfg.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * c.cfg.Multiplier)
		if backoff >= c.cfg.MaxBackoff {
			return c.cfg.MaxBackoff
		}
	}

	switch errType {
	case analyzer.ErrorNetwork, analyzer.ErrorTimeout:
		backoff *= 2
	case analyzer.ErrorResourceLimit:
		backoff *= 3
	}

	if backoff > c.cfg.MaxBackoff {
		return c.cfg.MaxBackoff
	}
	return backoff
}

func (c *Controller) reportProgress(attempt int, lastErr error, lastFix string, elapsed time.Duration) {
	if c.observer == nil {
		return
	}
	p := Progress{
		Attempt:     attempt,
		MaxAttempts: c.cfg.MaxAttempts,
		LastFix:     lastFix,
		Elapsed:     elapsed,
	}
	if lastErr != nil {
		p.LastError = lastErr.Error()
	}
	c.observer.OnProgress(p)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
