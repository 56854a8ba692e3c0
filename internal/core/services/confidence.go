package services

// Confidence weighting: strong semantic match dominates, corroborating
// evidence contributes up to 30%, saturating at coverageSaturation passages.
// A single highly-similar chunk therefore cannot reach maximal confidence.
const (
	similarityWeight   = 0.7
	coverageWeight     = 0.3
	coverageSaturation = 5
)

// ConfidenceScore converts retrieval results into a single [0,1] confidence
// value. Returns 0.0 when no passages were retrieved.
func ConfidenceScore(numPassages int, similarities []float64) float64 {
	if len(similarities) == 0 {
		return 0.0
	}

	var sum float64
	for _, s := range similarities {
		sum += s
	}
	avg := sum / float64(len(similarities))

	coverage := float64(numPassages) / float64(coverageSaturation)
	if coverage > 1.0 {
		coverage = 1.0
	}

	confidence := similarityWeight*avg + coverageWeight*coverage

	if confidence < 0.0 {
		return 0.0
	}
	if confidence > 1.0 {
		return 1.0
	}
	return confidence
}
