// Package cannon fires one prompt at several model backends concurrently and
// synthesizes a single answer from whatever comes back.
package cannon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GO4ME1/morgus-agent-sub009/pkg/adapter"
)

// ErrAllFailed is returned when every dispatched candidate call errored or
// produced empty output.
var ErrAllFailed = errors.New("cannon: all candidates failed")

// ModelCaller is the per-model call capability supplied by the host.
type ModelCaller func(ctx context.Context, prompt string, history []adapter.Message) (string, error)

// ModelResponse is one candidate's settled outcome.
type ModelResponse struct {
	Model          string  `json:"model"`
	Content        string  `json:"content"`
	Confidence     float64 `json:"confidence"`
	ResponseTimeMs int64   `json:"response_time_ms"`
	Err            error   `json:"-"`
}

// Synthesis methods.
const (
	MethodConsensus = "consensus"
	MethodBest      = "best"
	MethodMerged    = "merged"
)

// SynthesizedResponse is the single answer assembled from the surviving
// candidates. Models lists every contributor.
type SynthesizedResponse struct {
	ID         string   `json:"id"`
	Content    string   `json:"content"`
	Models     []string `json:"models"`
	Method     string   `json:"method"`
	Confidence float64  `json:"confidence"`
}

// Cannon dispatches prompts to a set of model callers.
type Cannon struct {
	callers map[string]ModelCaller
	debug   bool
	logger  func(format string, args ...any)
}

// Option configures a Cannon.
type Option func(*Cannon)

// WithDebug enables debug logging.
func WithDebug(debug bool) Option {
	return func(c *Cannon) {
		c.debug = debug
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger func(format string, args ...any)) Option {
	return func(c *Cannon) {
		c.logger = logger
	}
}

// New creates a Cannon over the given model callers.
func New(callers map[string]ModelCaller, opts ...Option) *Cannon {
	c := &Cannon{callers: callers, logger: log.Printf}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CallersFromAdapters maps every model each adapter supports to a caller
// backed by that adapter.
func CallersFromAdapters(adapters ...adapter.Adapter) map[string]ModelCaller {
	callers := make(map[string]ModelCaller)
	for _, a := range adapters {
		backend := a
		for _, model := range backend.Models() {
			name := model
			callers[name] = func(ctx context.Context, prompt string, history []adapter.Message) (string, error) {
				resp, err := backend.Generate(ctx, name, prompt, history)
				if err != nil {
					return "", err
				}
				return resp.Content, nil
			}
		}
	}
	return callers
}

// Fire dispatches the prompt to every listed model concurrently, waits for
// all calls to settle, and synthesizes one response. A single candidate's
// failure never cancels its siblings; Fire fails only when all candidates do.
func (c *Cannon) Fire(ctx context.Context, prompt string, models []string, history []adapter.Message) (*SynthesizedResponse, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("cannon: no models to fire at")
	}

	responses := make([]ModelResponse, len(models))
	var g errgroup.Group

	for i, model := range models {
		idx, name := i, model
		g.Go(func() error {
			start := time.Now()
			resp := ModelResponse{Model: name}

			caller, ok := c.callers[name]
			if !ok {
				resp.Err = fmt.Errorf("cannon: no caller bound for model %s", name)
				responses[idx] = resp
				return nil
			}

			content, err := caller(ctx, prompt, history)
			resp.ResponseTimeMs = time.Since(start).Milliseconds()
			if err != nil {
				resp.Err = err
				if c.debug {
					c.logger("[cannon] %s failed after %dms: %v", name, resp.ResponseTimeMs, err)
				}
				responses[idx] = resp
				return nil
			}

			resp.Content = content
			resp.Confidence = scoreConfidence(content)
			responses[idx] = resp
			return nil
		})
	}

	// Closures never return an error, so Wait is a pure join: synthesis
	// starts only after every dispatched call has settled.
	_ = g.Wait()

	survivors := make([]ModelResponse, 0, len(responses))
	for _, r := range responses {
		if r.Err == nil && r.Content != "" {
			survivors = append(survivors, r)
		}
	}

	if len(survivors) == 0 {
		return nil, ErrAllFailed
	}

	return synthesize(survivors), nil
}
