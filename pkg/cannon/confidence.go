package cannon

import "strings"

var hedgingWords = []string{"maybe", "perhaps", "possibly", "might", "could be"}

var definitiveWords = []string{"definitely", "certainly", "clearly", "obviously"}

// scoreConfidence assigns a heuristic confidence to a response body. The
// increments are contractual tuning, not derived values.
func scoreConfidence(content string) float64 {
	confidence := 0.5

	if len(content) > 500 {
		confidence += 0.1
	}
	if len(content) > 1000 {
		confidence += 0.1
	}
	if strings.Contains(content, "```") {
		confidence += 0.1
	}
	if hasBulletedList(content) {
		confidence += 0.05
	}

	lower := strings.ToLower(content)
	if containsAny(lower, hedgingWords) {
		confidence -= 0.1
	}
	if containsAny(lower, definitiveWords) {
		confidence += 0.05
	}

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

func hasBulletedList(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") || strings.HasPrefix(trimmed, "• ") {
			return true
		}
	}
	return false
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
