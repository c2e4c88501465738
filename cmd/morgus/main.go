package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GO4ME1/morgus-agent-sub009/pkg/adapter"
	"github.com/GO4ME1/morgus-agent-sub009/pkg/analyzer"
	"github.com/GO4ME1/morgus-agent-sub009/pkg/config"
	"github.com/GO4ME1/morgus-agent-sub009/pkg/core"
	"github.com/GO4ME1/morgus-agent-sub009/pkg/router"
)

var (
	configFile string
	debugFlag  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "morgus",
		Short: "Adaptive model routing with parallel fan-out and self-healing retries",
		Long: `Morgus routes each request to the best LLM backend based on task
	classification and a learned payoff matrix, fans out to multiple models
	when confidence is low, and retries failed executions with automatic
	corrective actions.`,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to core config file")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")

	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(routeCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(matrixCmd())
	rootCmd.AddCommand(analyzeCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func askCmd() *cobra.Command {
	var modelFlag string
	var parallelFlag bool

	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Send a prompt through the routing pipeline",
		Long: `Classifies the prompt, routes it to the best model, and executes.
	Low-confidence or explicitly parallel requests fan out to multiple
	models and synthesize one answer.

	Use --model to bypass routing, or --parallel to force fan-out across
	the top candidates.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := args[0]

			c, err := buildCore()
			if err != nil {
				return err
			}

			ctx := context.Background()

			if modelFlag != "" {
				resp, err := c.Fire(ctx, prompt, []string{modelFlag}, nil)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Model: %s\n", modelFlag)
				fmt.Println(resp.Content)
				return nil
			}

			if parallelFlag {
				tc := c.Classify(prompt)
				tc.RequiresParallel = true
				decision, err := c.Route(tc)
				if err != nil {
					return err
				}
				resp, err := c.Fire(ctx, prompt, decision.ParallelModels, nil)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Fanned out to %s (%s)\n",
					strings.Join(resp.Models, ", "), resp.Method)
				fmt.Println(resp.Content)
				return nil
			}

			result, err := c.Ask(ctx, prompt, nil)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "Task: %s/%s  Model: %s (confidence %.2f)\n",
				result.Task.Type, result.Task.Priority,
				result.Decision.PrimaryModel, result.Decision.Confidence)
			if result.FellBack {
				fmt.Fprintf(os.Stderr, "Fell back to %s\n", result.Decision.FallbackModel)
			}
			fmt.Println(result.Response.Content)
			return nil
		},
	}

	cmd.Flags().StringVar(&modelFlag, "model", "", "bypass routing and use a specific model")
	cmd.Flags().BoolVar(&parallelFlag, "parallel", false, "force parallel fan-out")

	return cmd
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [message]",
		Short: "Show how a message would be classified",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tc := router.Classify(args[0])
			data, err := json.MarshalIndent(tc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
}

func routeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route [message]",
		Short: "Show the routing decision for a message without executing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildCore()
			if err != nil {
				return err
			}

			tc := c.Classify(args[0])
			decision, err := c.Route(tc)
			if err != nil {
				return err
			}

			out := struct {
				Task     router.TaskContext `json:"task"`
				Decision router.Decision    `json:"decision"`
			}{Task: tc, Decision: *decision}

			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List registered model profiles and backend status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tQUALITY\tSPEED\tCOST\tSPECIALTIES\tSTATUS")

			for _, p := range cfg.Core.Registry().Profiles() {
				specs := make([]string, 0, len(p.Specialties))
				for _, s := range p.Specialties {
					specs = append(specs, string(s))
				}
				status := "no key"
				if cfg.HasAdapter(providerFor(p.Name)) {
					status = "ready"
				}
				fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%s\t%s\n",
					p.Name, p.Quality, p.Speed, p.CostWeight,
					strings.Join(specs, ", "), status)
			}

			return w.Flush()
		},
	}
}

func matrixCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "matrix",
		Short: "Show the payoff matrix",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildCore()
			if err != nil {
				return err
			}

			snapshot := c.SnapshotMatrix()

			var tasks []string
			for task := range snapshot {
				tasks = append(tasks, string(task))
			}
			sort.Strings(tasks)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TASK\tMODEL\tPAYOFF")
			for _, task := range tasks {
				models := snapshot[router.TaskType(task)]
				var names []string
				for name := range models {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Fprintf(w, "%s\t%s\t%.3f\n", task, name, models[name])
				}
			}

			return w.Flush()
		},
	}
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [error message]",
		Short: "Classify an execution error and suggest a fix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := analyzer.New()
			analysis := a.Analyze(args[0], analyzer.ExecutionContext{})

			data, err := json.MarshalIndent(analysis, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadWithCoreFile(configFile)
	}
	return config.Load()
}

func buildCore() (*core.Core, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	adapters, err := createAdapters(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create adapters: %w", err)
	}

	return core.New(
		core.WithCoreConfig(cfg.Core),
		core.WithAdapters(adapters...),
		core.WithDebug(debugFlag),
	), nil
}

func createAdapters(cfg *config.Config) ([]adapter.Adapter, error) {
	var adapters []adapter.Adapter

	if cfg.AnthropicAPIKey != "" {
		a, err := adapter.NewAnthropicAdapter(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create anthropic adapter: %w", err)
		}
		adapters = append(adapters, a)
	}

	if cfg.OpenAIAPIKey != "" {
		a, err := adapter.NewOpenAIAdapter(cfg.OpenAIAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai adapter: %w", err)
		}
		adapters = append(adapters, a)
	}

	if cfg.GoogleAPIKey != "" {
		a, err := adapter.NewGoogleAdapter(cfg.GoogleAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create google adapter: %w", err)
		}
		adapters = append(adapters, a)
	}

	if cfg.DeepSeekAPIKey != "" {
		a, err := adapter.NewDeepSeekAdapter(cfg.DeepSeekAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create deepseek adapter: %w", err)
		}
		adapters = append(adapters, a)
	}

	adapters = append(adapters, adapter.NewMockAdapter())

	return adapters, nil
}

// providerFor maps a model name to its backing provider.
func providerFor(model string) string {
	switch {
	case strings.HasPrefix(model, "claude"):
		return "anthropic"
	case strings.HasPrefix(model, "gpt"), strings.HasPrefix(model, "o1"):
		return "openai"
	case strings.HasPrefix(model, "gemini"):
		return "google"
	case strings.HasPrefix(model, "deepseek"):
		return "deepseek"
	default:
		return model
	}
}
