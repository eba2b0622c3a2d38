package classify

import "math"

const (
	// DefaultConfidenceThreshold gates the classifier tier: predictions
	// below it are forced to benign
	DefaultConfidenceThreshold = 0.60

	// DefaultTemperature flattens overconfident distributions when the
	// temperature variant is enabled
	DefaultTemperature = 1.5

	epsPlain       = 1e-15
	epsTemperature = 1e-3
)

// Confidence converts a probability vector into a score in [0,1] via
// normalized Shannon entropy: 1 - H/log(N). A uniform vector scores 0, a
// one-hot vector scores 1. Fewer than two classes is degenerate and scores 1.
func Confidence(probs []float64) float64 {
	n := len(probs)
	if n <= 1 {
		return 1.0
	}

	entropy := 0.0
	for _, p := range probs {
		p = clip(p, epsPlain)
		entropy -= p * math.Log(p)
	}
	return 1.0 - entropy/math.Log(float64(n))
}

// ConfidenceTemperature is the temperature-scaled variant: probabilities are
// clipped with a coarser epsilon, renormalized, their logits divided by T and
// re-softmaxed before the entropy score. T>1 dampens spurious certainty from
// a model fit on limited data; T<=1 degrades to the plain form.
func ConfidenceTemperature(probs []float64, temperature float64) float64 {
	n := len(probs)
	if n <= 1 {
		return 1.0
	}
	if temperature <= 1 {
		return Confidence(probs)
	}

	clipped := make([]float64, n)
	sum := 0.0
	for i, p := range probs {
		clipped[i] = clip(p, epsTemperature)
		sum += clipped[i]
	}
	for i := range clipped {
		clipped[i] /= sum
	}

	// treat log(p) as a logit, flatten, softmax back
	expSum := 0.0
	scaled := make([]float64, n)
	for i, p := range clipped {
		scaled[i] = math.Exp(math.Log(p) / temperature)
		expSum += scaled[i]
	}

	entropy := 0.0
	for _, s := range scaled {
		p := s / expSum
		entropy -= p * math.Log(p)
	}
	return 1.0 - entropy/math.Log(float64(n))
}

// ArgMax returns the index of the largest probability (first on ties, -1 for
// an empty vector)
func ArgMax(probs []float64) int {
	best := -1
	bestP := math.Inf(-1)
	for i, p := range probs {
		if p > bestP {
			bestP = p
			best = i
		}
	}
	return best
}

// Calibrator applies the full gating policy: calibrate confidence, take the
// argmax, and force benign when the score is below threshold. Low confidence
// must never produce an alert.
type Calibrator struct {
	Threshold   float64
	Temperature float64 // 0 disables temperature scaling
}

// Decide returns the effective predicted class and its calibrated confidence
func (c Calibrator) Decide(probs []float64) (int, float64) {
	var conf float64
	if c.Temperature > 1 {
		conf = ConfidenceTemperature(probs, c.Temperature)
	} else {
		conf = Confidence(probs)
	}

	class := ArgMax(probs)
	if class < 0 || conf < c.Threshold {
		return ClassBenign, conf
	}
	return class, conf
}

func clip(p, eps float64) float64 {
	if p < eps {
		return eps
	}
	if p > 1 {
		return 1
	}
	return p
}
