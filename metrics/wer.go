package metrics

import "strings"

// WordErrorRate computes the edit distance between hypothesis and reference
// at word granularity, normalized by the reference length. An empty
// reference yields 0 against an empty hypothesis and 1 otherwise.
func WordErrorRate(hypothesis, reference string) float64 {
	return TokenErrorRate(strings.Fields(hypothesis), strings.Fields(reference))
}

// TokenErrorRate computes the normalized edit distance over token
// sequences. Phone error rate is this applied to phoneme tokens.
func TokenErrorRate(hypothesis, reference []string) float64 {
	if len(reference) == 0 {
		if len(hypothesis) == 0 {
			return 0
		}
		return 1
	}
	return float64(editDistance(hypothesis, reference)) / float64(len(reference))
}

// BatchWordErrorRate computes the corpus-level rate over parallel slices:
// total edits divided by total reference words.
func BatchWordErrorRate(hypotheses, references []string) float64 {
	totalEdits, totalWords := 0, 0
	emptyMismatch := false
	for i := range references {
		ref := strings.Fields(references[i])
		hyp := strings.Fields(hypotheses[i])
		if len(ref) == 0 {
			if len(hyp) != 0 {
				emptyMismatch = true
			}
			continue
		}
		totalEdits += editDistance(hyp, ref)
		totalWords += len(ref)
	}
	if totalWords == 0 {
		if emptyMismatch {
			return 1
		}
		return 0
	}
	return float64(totalEdits) / float64(totalWords)
}

// editDistance is the Levenshtein distance over token slices, two-row
// rolling computation.
func editDistance(a, b []string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
