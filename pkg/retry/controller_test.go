package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GO4ME1/morgus-agent-sub009/pkg/analyzer"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		Multiplier:     2,
		MaxBackoff:     10 * time.Millisecond,
	}
}

type recordingObserver struct {
	progress []Progress
	fixes    []analyzer.CorrectiveAction
}

func (o *recordingObserver) OnProgress(p Progress) { o.progress = append(o.progress, p) }

func (o *recordingObserver) OnFix(a analyzer.CorrectiveAction) { o.fixes = append(o.fixes, a) }

type scriptedExecutor struct {
	calls []string
	err   error
}

func (e *scriptedExecutor) Run(_ context.Context, code string) error {
	e.calls = append(e.calls, code)
	return e.err
}

func TestExecuteExhaustsBudget(t *testing.T) {
	c := NewController(analyzer.New(), WithConfig(fastConfig()))

	action := func(context.Context, analyzer.ExecutionContext) (any, error) {
		return nil, errors.New("ConnectionError: connection refused")
	}

	result := c.Execute(context.Background(), action, analyzer.ExecutionContext{})
	if result.Success {
		t.Fatalf("expected failure")
	}
	if result.Attempts != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", result.Attempts)
	}
	if len(result.Fixes) != 2 {
		t.Fatalf("expected maxAttempts-1 fixes, got %v", result.Fixes)
	}
	if result.Err == "" {
		t.Fatalf("expected terminal error to be recorded")
	}
}

func TestExecuteSucceedsSecondAttempt(t *testing.T) {
	c := NewController(analyzer.New(), WithConfig(fastConfig()))

	calls := 0
	action := func(context.Context, analyzer.ExecutionContext) (any, error) {
		calls++
		if calls < 2 {
			return nil, errors.New("TimeoutError: request timed out")
		}
		return "done", nil
	}

	result := c.Execute(context.Background(), action, analyzer.ExecutionContext{})
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", result.Attempts)
	}
	if len(result.Fixes) != 1 {
		t.Fatalf("expected one fix, got %v", result.Fixes)
	}
	if result.Result != "done" {
		t.Fatalf("expected action result carried through, got %v", result.Result)
	}
}

func TestExecuteFirstTrySuccess(t *testing.T) {
	c := NewController(analyzer.New(), WithConfig(fastConfig()))
	action := func(context.Context, analyzer.ExecutionContext) (any, error) {
		return 42, nil
	}
	result := c.Execute(context.Background(), action, analyzer.ExecutionContext{})
	if !result.Success || result.Attempts != 1 || len(result.Fixes) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestExecuteResourceLimitStopsImmediately(t *testing.T) {
	c := NewController(analyzer.New(), WithConfig(fastConfig()))
	action := func(context.Context, analyzer.ExecutionContext) (any, error) {
		return nil, errors.New("MemoryError: out of memory")
	}
	result := c.Execute(context.Background(), action, analyzer.ExecutionContext{})
	if result.Success {
		t.Fatalf("expected failure")
	}
	if result.Attempts != 1 {
		t.Fatalf("resource_limit must not be retried, got %d attempts", result.Attempts)
	}
	if len(result.Fixes) != 0 {
		t.Fatalf("no fixes should apply on a terminal category, got %v", result.Fixes)
	}
}

func TestExecuteObserverSeesEveryAttempt(t *testing.T) {
	obs := &recordingObserver{}
	c := NewController(analyzer.New(), WithConfig(fastConfig()), WithObserver(obs))

	action := func(context.Context, analyzer.ExecutionContext) (any, error) {
		return nil, errors.New("ConnectionError: connection reset")
	}
	_ = c.Execute(context.Background(), action, analyzer.ExecutionContext{})

	if len(obs.progress) != 3 {
		t.Fatalf("expected progress before each of 3 attempts, got %d", len(obs.progress))
	}
	if obs.progress[0].Attempt != 1 || obs.progress[0].LastError != "" {
		t.Fatalf("first report should be clean: %+v", obs.progress[0])
	}
	if obs.progress[1].LastError == "" || obs.progress[1].LastFix == "" {
		t.Fatalf("later reports carry last error and fix: %+v", obs.progress[1])
	}
	if len(obs.fixes) != 2 {
		t.Fatalf("expected 2 fix notifications, got %d", len(obs.fixes))
	}
}

func TestExecuteFixExecutorFailureIsIgnored(t *testing.T) {
	exec := &scriptedExecutor{err: errors.New("install blew up")}
	c := NewController(analyzer.New(), WithConfig(fastConfig()), WithFixExecutor(exec))

	calls := 0
	action := func(_ context.Context, ec analyzer.ExecutionContext) (any, error) {
		calls++
		if calls < 2 {
			return nil, errors.New("ModuleNotFoundError: No module named 'pandas'")
		}
		if ec.Parameters["installed_packages"] != "pandas" {
			return nil, errors.New("SyntaxError: context transform missing")
		}
		return "ok", nil
	}

	result := c.Execute(context.Background(), action, analyzer.ExecutionContext{})
	if !result.Success {
		t.Fatalf("executor failure must not abort the loop: %+v", result)
	}
	if len(exec.calls) != 1 || exec.calls[0] != "pip install pandas" {
		t.Fatalf("expected one install attempt, got %v", exec.calls)
	}
}

func TestExecuteWithoutExecutorStillTransforms(t *testing.T) {
	c := NewController(analyzer.New(), WithConfig(fastConfig()))

	calls := 0
	action := func(_ context.Context, ec analyzer.ExecutionContext) (any, error) {
		calls++
		if calls < 2 {
			return nil, errors.New("ModuleNotFoundError: No module named 'numpy'")
		}
		if ec.Parameters["installed_packages"] != "numpy" {
			return nil, errors.New("SyntaxError: transform lost")
		}
		return "ok", nil
	}

	result := c.Execute(context.Background(), action, analyzer.ExecutionContext{})
	if !result.Success {
		t.Fatalf("expected success without an executor: %+v", result)
	}
}

func TestExecuteContextCancelledDuringBackoff(t *testing.T) {
	cfg := fastConfig()
	cfg.InitialBackoff = time.Second
	cfg.MaxBackoff = time.Second
	c := NewController(analyzer.New(), WithConfig(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	action := func(context.Context, analyzer.ExecutionContext) (any, error) {
		cancel()
		return nil, errors.New("ConnectionError: connection refused")
	}

	start := time.Now()
	result := c.Execute(ctx, action, analyzer.ExecutionContext{})
	if result.Success {
		t.Fatalf("expected failure after cancellation")
	}
	if result.Attempts != 1 {
		t.Fatalf("expected loop to stop after cancellation, got %d attempts", result.Attempts)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("cancellation did not cut the backoff short")
	}
}

func TestExecuteTotalTimeRecorded(t *testing.T) {
	c := NewController(analyzer.New(), WithConfig(fastConfig()))
	action := func(context.Context, analyzer.ExecutionContext) (any, error) {
		time.Sleep(5 * time.Millisecond)
		return "ok", nil
	}
	result := c.Execute(context.Background(), action, analyzer.ExecutionContext{})
	if result.TotalTimeMs < 5 {
		t.Fatalf("expected wall-clock time recorded, got %dms", result.TotalTimeMs)
	}
}

func TestBackoffStretchesByCategory(t *testing.T) {
	c := NewController(analyzer.New(), WithConfig(Config{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		Multiplier:     2,
		MaxBackoff:     10 * time.Second,
	}))

	base := c.backoffFor(analyzer.ErrorSyntax, 1)
	if base != 100*time.Millisecond {
		t.Fatalf("expected 100ms base, got %v", base)
	}
	if got := c.backoffFor(analyzer.ErrorSyntax, 2); got != 200*time.Millisecond {
		t.Fatalf("expected 200ms on second attempt, got %v", got)
	}
	if got := c.backoffFor(analyzer.ErrorNetwork, 1); got != 200*time.Millisecond {
		t.Fatalf("expected network backoff doubled, got %v", got)
	}
	if got := c.backoffFor(analyzer.ErrorTimeout, 1); got != 200*time.Millisecond {
		t.Fatalf("expected timeout backoff doubled, got %v", got)
	}
	if got := c.backoffFor(analyzer.ErrorResourceLimit, 1); got != 300*time.Millisecond {
		t.Fatalf("expected resource backoff tripled, got %v", got)
	}
}

func TestBackoffCapped(t *testing.T) {
	c := NewController(analyzer.New(), WithConfig(Config{
		MaxAttempts:    5,
		InitialBackoff: time.Second,
		Multiplier:     10,
		MaxBackoff:     2 * time.Second,
	}))
	if got := c.backoffFor(analyzer.ErrorNetwork, 4); got != 2*time.Second {
		t.Fatalf("expected cap at 2s, got %v", got)
	}
}
