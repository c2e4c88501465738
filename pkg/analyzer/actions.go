package analyzer

import "strconv"

// defaultTimeoutSec seeds the timeout parameter when an increase is requested
// and none was set.
const defaultTimeoutSec = 30

// Apply runs the handler for an action's kind over the execution context and
// returns the transformed copy. Handlers are pure: the input context is never
// mutated. The switch is total over ActionKind; unrecognized kinds pass the
// context through unchanged.
func Apply(action CorrectiveAction, ec ExecutionContext) ExecutionContext {
	switch action.Kind {
	case ActionInstallPackage:
		return applyInstallPackage(action, ec)
	case ActionFixSyntax:
		return applyHint(ec, "fix_syntax", action.Description)
	case ActionChangePerms:
		return applyHint(ec, "change_permissions", action.Description)
	case ActionIncreaseTimeout:
		return applyIncreaseTimeout(ec)
	case ActionRetryWithBackoff:
		return ec.Clone()
	case ActionUseAlternative:
		return applyUseAlternative(action, ec)
	case ActionFixImport:
		return applyHint(ec, "fix_import", action.Description)
	case ActionAddErrorHandling:
		return applyHint(ec, "add_error_handling", action.Description)
	case ActionOptimizeCode:
		return applyHint(ec, "optimize_code", action.Description)
	default:
		return ec.Clone()
	}
}

// applyInstallPackage records the package so later attempts and prompts know
// it is expected to be present. The actual install runs through the host's
// fix executor, not here.
func applyInstallPackage(action CorrectiveAction, ec ExecutionContext) ExecutionContext {
	out := ec.Clone()
	pkg := action.Parameters["package"]
	if pkg == "" {
		return out
	}
	if out.Parameters == nil {
		out.Parameters = make(map[string]string)
	}
	installed := out.Parameters["installed_packages"]
	if installed != "" {
		installed += ","
	}
	out.Parameters["installed_packages"] = installed + pkg
	return out
}

// applyIncreaseTimeout doubles the context's timeout parameter, seeding it
// when unset.
func applyIncreaseTimeout(ec ExecutionContext) ExecutionContext {
	out := ec.Clone()
	if out.Parameters == nil {
		out.Parameters = make(map[string]string)
	}
	current, err := strconv.Atoi(out.Parameters["timeout_sec"])
	if err != nil || current <= 0 {
		current = defaultTimeoutSec
	} else {
		current *= 2
	}
	out.Parameters["timeout_sec"] = strconv.Itoa(current)
	return out
}

// applyUseAlternative swaps the tool when the action names one.
func applyUseAlternative(action CorrectiveAction, ec ExecutionContext) ExecutionContext {
	out := ec.Clone()
	if tool := action.Parameters["tool"]; tool != "" {
		out.Tool = tool
	}
	return out
}

// applyHint records a repair hint for the next attempt's prompt.
func applyHint(ec ExecutionContext, key, description string) ExecutionContext {
	out := ec.Clone()
	if out.Parameters == nil {
		out.Parameters = make(map[string]string)
	}
	out.Parameters["hint_"+key] = description
	return out
}
