// Package analyzer classifies execution errors into typed categories and
// proposes corrective actions for the retry controller.
package analyzer

// ErrorType categorizes an execution failure.
type ErrorType string

// Known error categories, in detector priority order.
const (
	ErrorMissingPackage ErrorType = "missing_package"
	ErrorImport         ErrorType = "import_error"
	ErrorSyntax         ErrorType = "syntax_error"
	ErrorPermission     ErrorType = "permission_error"
	ErrorNetwork        ErrorType = "network_error"
	ErrorTimeout        ErrorType = "timeout"
	ErrorResourceLimit  ErrorType = "resource_limit"
	ErrorFileNotFound   ErrorType = "file_not_found"
	ErrorTypeMismatch   ErrorType = "type_error"
	ErrorRuntime        ErrorType = "runtime_error"
	ErrorUnknown        ErrorType = "unknown"
)

// Severity grades how bad a failure is.
type Severity string

// Known severities.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ActionKind names a corrective action.
type ActionKind string

// The corrective action vocabulary. Total: every analysis suggests exactly
// one of these kinds.
const (
	ActionInstallPackage   ActionKind = "install_package"
	ActionFixSyntax        ActionKind = "fix_syntax"
	ActionChangePerms      ActionKind = "change_permissions"
	ActionIncreaseTimeout  ActionKind = "increase_timeout"
	ActionRetryWithBackoff ActionKind = "retry_with_backoff"
	ActionUseAlternative   ActionKind = "use_alternative_tool"
	ActionFixImport        ActionKind = "fix_import"
	ActionAddErrorHandling ActionKind = "add_error_handling"
	ActionOptimizeCode     ActionKind = "optimize_code"
)

// CorrectiveAction is a structured remedy proposed for a classified error.
type CorrectiveAction struct {
	Kind             ActionKind        `json:"kind"`
	Description      string            `json:"description"`
	Code             string            `json:"code,omitempty"`
	Parameters       map[string]string `json:"parameters,omitempty"`
	EstimatedTimeSec int               `json:"estimated_time_sec"`
}

// ErrorAnalysis is the analyzer's verdict on one failure.
type ErrorAnalysis struct {
	ErrorType             ErrorType         `json:"error_type"`
	Severity              Severity          `json:"severity"`
	IsRetryable           bool              `json:"is_retryable"`
	Confidence            float64           `json:"confidence"`
	SuggestedFix          *CorrectiveAction `json:"suggested_fix,omitempty"`
	AlternativeApproaches []string          `json:"alternative_approaches,omitempty"`
	EstimatedFixTimeSec   int               `json:"estimated_fix_time_sec"`
}

// ExecutionContext describes the action being retried. Corrective-action
// handlers transform it between attempts.
type ExecutionContext struct {
	Code             string            `json:"code,omitempty"`
	Language         string            `json:"language,omitempty"`
	Tool             string            `json:"tool,omitempty"`
	Parameters       map[string]string `json:"parameters,omitempty"`
	PreviousErrors   []string          `json:"previous_errors,omitempty"`
	PreviousAttempts int               `json:"previous_attempts"`
}

// Clone returns a deep copy so handlers can stay pure.
func (ec ExecutionContext) Clone() ExecutionContext {
	out := ec
	if ec.Parameters != nil {
		out.Parameters = make(map[string]string, len(ec.Parameters))
		for k, v := range ec.Parameters {
			out.Parameters[k] = v
		}
	}
	if ec.PreviousErrors != nil {
		out.PreviousErrors = append([]string(nil), ec.PreviousErrors...)
	}
	return out
}
