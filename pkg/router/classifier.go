package router

import "strings"

// complexLengthThreshold is the message length beyond which a request is
// treated as complex even without a matching trigger.
const complexLengthThreshold = 200

// classifierRule binds a task type to its trigger words and the default
// priority that type carries.
type classifierRule struct {
	taskType TaskType
	priority Priority
	triggers []string
}

// classifierRules is evaluated in order, first match wins. Later rules are
// intentionally shadowed by earlier ones; the ordering is contractual.
var classifierRules = []classifierRule{
	{
		taskType: TaskCode,
		priority: PriorityQuality,
		triggers: []string{
			"code", "function", "script", "program", "debug",
			"implement", "compile", "refactor", "bug", "class", "api",
		},
	},
	{
		taskType: TaskResearch,
		priority: PrioritySpeed,
		triggers: []string{
			"search", "find", "research", "look up", "latest",
			"news", "current", "today",
		},
	},
	{
		taskType: TaskVision,
		priority: PriorityQuality,
		triggers: []string{
			"image", "picture", "photo", "diagram", "screenshot", "visual",
		},
	},
	{
		taskType: TaskComplex,
		priority: PriorityBalanced,
		triggers: []string{
			"explain", "analyze", "compare", "design",
		},
	},
}

// Classify maps a raw message to a task descriptor. It is pure and
// deterministic: the same message always yields the same context.
func Classify(message string) TaskContext {
	lower := strings.ToLower(message)

	for _, rule := range classifierRules {
		for _, trigger := range rule.triggers {
			if containsTrigger(lower, trigger) {
				return TaskContext{Type: rule.taskType, Priority: rule.priority}
			}
		}
	}

	if len(message) > complexLengthThreshold {
		return TaskContext{Type: TaskComplex, Priority: PriorityBalanced}
	}

	return TaskContext{Type: TaskSimple, Priority: PrioritySpeed}
}

// containsTrigger checks if the message contains the trigger phrase.
// It looks for the trigger as a word or phrase boundary match.
func containsTrigger(message, trigger string) bool {
	idx := strings.Index(message, trigger)
	if idx == -1 {
		return false
	}

	// Check word boundary before trigger
	if idx > 0 {
		prev := message[idx-1]
		if isWordChar(prev) {
			return false
		}
	}

	// Check word boundary after trigger
	endIdx := idx + len(trigger)
	if endIdx < len(message) {
		next := message[endIdx]
		if isWordChar(next) {
			return false
		}
	}

	return true
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}
