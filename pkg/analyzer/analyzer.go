package analyzer

import (
	"fmt"
	"regexp"
)

// retryConfidenceFloor is the policy threshold below which an analysis is
// never retried, regardless of what IsRetryable says.
const retryConfidenceFloor = 0.70

// detector pairs a pattern with an analysis builder. The detector table is
// ordered and first-match-wins; later patterns are intentionally shadowed by
// earlier ones, which is contractual behavior.
type detector struct {
	pattern *regexp.Regexp
	build   func(match []string, ec ExecutionContext) ErrorAnalysis
}

// Analyzer classifies execution error messages.
type Analyzer struct {
	detectors []detector
}

// New creates an analyzer with the built-in detector table.
func New() *Analyzer {
	return &Analyzer{detectors: buildDetectors()}
}

// Analyze classifies an error message into a typed analysis with a suggested
// fix. The fallback category is unknown.
func (a *Analyzer) Analyze(message string, ec ExecutionContext) *ErrorAnalysis {
	for _, d := range a.detectors {
		if match := d.pattern.FindStringSubmatch(message); match != nil {
			analysis := d.build(match, ec)
			return &analysis
		}
	}

	analysis := unknownAnalysis()
	return &analysis
}

// ShouldRetry applies the retry policy to an analysis. attempt is 1-based:
// once attempt reaches max, the budget is spent.
func ShouldRetry(a *ErrorAnalysis, attempt, max int) bool {
	if attempt >= max {
		return false
	}
	if !a.IsRetryable {
		return false
	}
	if a.Confidence < retryConfidenceFloor {
		return false
	}
	if a.Severity == SeverityCritical && a.SuggestedFix == nil {
		return false
	}
	return true
}

func buildDetectors() []detector {
	return []detector{
		{
			pattern: regexp.MustCompile(`(?i)(?:ModuleNotFoundError|ImportError): No module named ['"]?([A-Za-z0-9_.\-]+)['"]?`),
			build: func(match []string, _ ExecutionContext) ErrorAnalysis {
				pkg := match[1]
				return ErrorAnalysis{
					ErrorType:   ErrorMissingPackage,
					Severity:    SeverityMedium,
					IsRetryable: true,
					Confidence:  0.95,
					SuggestedFix: &CorrectiveAction{
						Kind:             ActionInstallPackage,
						Description:      fmt.Sprintf("install missing package %s", pkg),
						Code:             fmt.Sprintf("pip install %s", pkg),
						Parameters:       map[string]string{"package": pkg},
						EstimatedTimeSec: 30,
					},
					AlternativeApproaches: []string{
						"use a standard-library substitute",
						"vendor the required functionality inline",
					},
					EstimatedFixTimeSec: 30,
				}
			},
		},
		{
			pattern: regexp.MustCompile(`(?i)ImportError|cannot import name|undefined reference to import`),
			build: func(_ []string, _ ExecutionContext) ErrorAnalysis {
				return ErrorAnalysis{
					ErrorType:   ErrorImport,
					Severity:    SeverityMedium,
					IsRetryable: true,
					Confidence:  0.85,
					SuggestedFix: &CorrectiveAction{
						Kind:             ActionFixImport,
						Description:      "correct the failing import statement",
						EstimatedTimeSec: 15,
					},
					AlternativeApproaches: []string{"import the symbol from its actual module"},
					EstimatedFixTimeSec:   15,
				}
			},
		},
		{
			pattern: regexp.MustCompile(`(?i)SyntaxError|invalid syntax|unexpected token|unexpected EOF|unexpected indent`),
			build: func(_ []string, _ ExecutionContext) ErrorAnalysis {
				return ErrorAnalysis{
					ErrorType:   ErrorSyntax,
					Severity:    SeverityMedium,
					IsRetryable: true,
					Confidence:  0.90,
					SuggestedFix: &CorrectiveAction{
						Kind:             ActionFixSyntax,
						Description:      "repair the syntax error and regenerate",
						EstimatedTimeSec: 20,
					},
					EstimatedFixTimeSec: 20,
				}
			},
		},
		{
			pattern: regexp.MustCompile(`(?i)PermissionError|permission denied|access denied|EACCES|operation not permitted`),
			build: func(_ []string, _ ExecutionContext) ErrorAnalysis {
				return ErrorAnalysis{
					ErrorType:   ErrorPermission,
					Severity:    SeverityHigh,
					IsRetryable: true,
					Confidence:  0.85,
					SuggestedFix: &CorrectiveAction{
						Kind:             ActionChangePerms,
						Description:      "adjust file or directory permissions",
						EstimatedTimeSec: 10,
					},
					AlternativeApproaches: []string{"write to a user-owned directory instead"},
					EstimatedFixTimeSec:   10,
				}
			},
		},
		{
			pattern: regexp.MustCompile(`(?i)ConnectionError|ConnectionRefused|connection refused|connection reset|network is unreachable|ECONNREFUSED|ECONNRESET|getaddrinfo|name resolution`),
			build: func(_ []string, _ ExecutionContext) ErrorAnalysis {
				return ErrorAnalysis{
					ErrorType:   ErrorNetwork,
					Severity:    SeverityMedium,
					IsRetryable: true,
					Confidence:  0.90,
					SuggestedFix: &CorrectiveAction{
						Kind:             ActionRetryWithBackoff,
						Description:      "wait and retry the network call",
						EstimatedTimeSec: 5,
					},
					AlternativeApproaches: []string{"switch to a mirror endpoint"},
					EstimatedFixTimeSec:   5,
				}
			},
		},
		{
			pattern: regexp.MustCompile(`(?i)TimeoutError|timed out|deadline exceeded|ETIMEDOUT`),
			build: func(_ []string, _ ExecutionContext) ErrorAnalysis {
				return ErrorAnalysis{
					ErrorType:   ErrorTimeout,
					Severity:    SeverityMedium,
					IsRetryable: true,
					Confidence:  0.90,
					SuggestedFix: &CorrectiveAction{
						Kind:             ActionIncreaseTimeout,
						Description:      "raise the operation timeout and retry",
						EstimatedTimeSec: 5,
					},
					EstimatedFixTimeSec: 5,
				}
			},
		},
		{
			pattern: regexp.MustCompile(`(?i)MemoryError|out of memory|OOM|resource[\s_]?limit|resource exhausted|quota exceeded|rate limit`),
			build: func(_ []string, _ ExecutionContext) ErrorAnalysis {
				return ErrorAnalysis{
					// Proposed fix only; resource limits are never auto-retried.
					ErrorType:   ErrorResourceLimit,
					Severity:    SeverityCritical,
					IsRetryable: false,
					Confidence:  0.95,
					SuggestedFix: &CorrectiveAction{
						Kind:             ActionOptimizeCode,
						Description:      "reduce memory or quota pressure before rerunning",
						EstimatedTimeSec: 120,
					},
					AlternativeApproaches: []string{
						"process the input in smaller batches",
						"move the workload to a larger runtime",
					},
					EstimatedFixTimeSec: 120,
				}
			},
		},
		{
			pattern: regexp.MustCompile(`(?i)FileNotFoundError|no such file or directory|ENOENT|file does not exist`),
			build: func(_ []string, _ ExecutionContext) ErrorAnalysis {
				return ErrorAnalysis{
					ErrorType:   ErrorFileNotFound,
					Severity:    SeverityMedium,
					IsRetryable: true,
					Confidence:  0.90,
					SuggestedFix: &CorrectiveAction{
						Kind:             ActionAddErrorHandling,
						Description:      "guard the file access and create missing paths",
						EstimatedTimeSec: 20,
					},
					EstimatedFixTimeSec: 20,
				}
			},
		},
		{
			pattern: regexp.MustCompile(`(?i)TypeError|type mismatch|cannot convert|incompatible type`),
			build: func(_ []string, _ ExecutionContext) ErrorAnalysis {
				return ErrorAnalysis{
					ErrorType:   ErrorTypeMismatch,
					Severity:    SeverityMedium,
					IsRetryable: true,
					Confidence:  0.80,
					SuggestedFix: &CorrectiveAction{
						Kind:             ActionFixSyntax,
						Description:      "correct the mismatched types",
						EstimatedTimeSec: 20,
					},
					EstimatedFixTimeSec: 20,
				}
			},
		},
		{
			pattern: regexp.MustCompile(`(?i)RuntimeError|NameError|AttributeError|IndexError|KeyError|ZeroDivisionError|nil pointer|null pointer|panic:`),
			build: func(_ []string, _ ExecutionContext) ErrorAnalysis {
				return ErrorAnalysis{
					ErrorType:   ErrorRuntime,
					Severity:    SeverityMedium,
					IsRetryable: true,
					Confidence:  0.85,
					SuggestedFix: &CorrectiveAction{
						Kind:             ActionAddErrorHandling,
						Description:      "add defensive checks around the failing operation",
						EstimatedTimeSec: 20,
					},
					EstimatedFixTimeSec: 20,
				}
			},
		},
	}
}

func unknownAnalysis() ErrorAnalysis {
	return ErrorAnalysis{
		ErrorType:   ErrorUnknown,
		Severity:    SeverityLow,
		IsRetryable: true,
		Confidence:  0.75,
		SuggestedFix: &CorrectiveAction{
			Kind:             ActionRetryWithBackoff,
			Description:      "retry after a short backoff",
			EstimatedTimeSec: 5,
		},
		EstimatedFixTimeSec: 5,
	}
}
