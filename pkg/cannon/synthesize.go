package cannon

import (
	"strings"

	"github.com/google/uuid"
)

// consensusThreshold is the minimum average pairwise similarity for a
// consensus pick. Contractual constant.
const consensusThreshold = 0.70

// synthesize reduces the surviving responses to one answer. With a single
// survivor the content is returned verbatim. With several, the response most
// similar to the rest wins as consensus when agreement is high enough;
// otherwise the highest-confidence response wins outright.
func synthesize(survivors []ModelResponse) *SynthesizedResponse {
	if len(survivors) == 1 {
		only := survivors[0]
		return &SynthesizedResponse{
			ID:         uuid.NewString(),
			Content:    only.Content,
			Models:     []string{only.Model},
			Method:     MethodBest,
			Confidence: only.Confidence,
		}
	}

	n := len(survivors)
	sims := make([][]float64, n)
	for i := range sims {
		sims[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		sims[i][i] = 1
		for j := i + 1; j < n; j++ {
			s := jaccardSimilarity(survivors[i].Content, survivors[j].Content)
			sims[i][j] = s
			sims[j][i] = s
		}
	}

	best := 0
	bestAvg := -1.0
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			sum += sims[i][j]
		}
		avg := sum / float64(n-1)
		if avg > bestAvg {
			best = i
			bestAvg = avg
		}
	}

	if bestAvg >= consensusThreshold {
		models := []string{survivors[best].Model}
		for j := 0; j < n; j++ {
			if j != best && sims[best][j] > consensusThreshold {
				models = append(models, survivors[j].Model)
			}
		}
		return &SynthesizedResponse{
			ID:         uuid.NewString(),
			Content:    survivors[best].Content,
			Models:     models,
			Method:     MethodConsensus,
			Confidence: bestAvg,
		}
	}

	top := 0
	for i := 1; i < n; i++ {
		if survivors[i].Confidence > survivors[top].Confidence {
			top = i
		}
	}
	return &SynthesizedResponse{
		ID:         uuid.NewString(),
		Content:    survivors[top].Content,
		Models:     []string{survivors[top].Model},
		Method:     MethodBest,
		Confidence: survivors[top].Confidence,
	}
}

// jaccardSimilarity compares two texts as lower-cased whitespace-tokenized
// word sets.
func jaccardSimilarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}
