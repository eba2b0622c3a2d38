package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfidence_NearUniformIsLow(t *testing.T) {
	// argmax is non-benign but the distribution carries almost no
	// information: calibrated confidence must stay far below the gate
	conf := Confidence([]float64{0.4, 0.3, 0.3})
	assert.Less(t, conf, DefaultConfidenceThreshold)
	assert.InDelta(t, 0.0088, conf, 0.001)
}

func TestConfidence_PeakedIsHigh(t *testing.T) {
	conf := Confidence([]float64{0.05, 0.05, 0.90})
	assert.Greater(t, conf, DefaultConfidenceThreshold)
	assert.InDelta(t, 0.641, conf, 0.001)
}

func TestConfidence_Extremes(t *testing.T) {
	assert.InDelta(t, 0.0, Confidence([]float64{0.25, 0.25, 0.25, 0.25}), 1e-9)
	assert.InDelta(t, 1.0, Confidence([]float64{1, 0, 0}), 1e-9)
}

func TestConfidence_DegenerateVector(t *testing.T) {
	assert.Equal(t, 1.0, Confidence([]float64{1.0}))
	assert.Equal(t, 1.0, Confidence(nil))
}

func TestConfidenceTemperature_FlattensPeaks(t *testing.T) {
	probs := []float64{0.05, 0.05, 0.90}
	plain := Confidence(probs)
	scaled := ConfidenceTemperature(probs, DefaultTemperature)

	assert.Less(t, scaled, plain, "temperature scaling must dampen certainty")
	assert.Greater(t, scaled, 0.0)
}

func TestConfidenceTemperature_UnityFallsBackToPlain(t *testing.T) {
	probs := []float64{0.2, 0.3, 0.5}
	assert.Equal(t, Confidence(probs), ConfidenceTemperature(probs, 1.0))
}

func TestArgMax(t *testing.T) {
	assert.Equal(t, 2, ArgMax([]float64{0.1, 0.2, 0.7}))
	assert.Equal(t, 0, ArgMax([]float64{0.5, 0.5}))
	assert.Equal(t, -1, ArgMax(nil))
}

func TestCalibrator_LowConfidenceForcesBenign(t *testing.T) {
	c := Calibrator{Threshold: DefaultConfidenceThreshold}

	class, conf := c.Decide([]float64{0.4, 0.3, 0.3})
	assert.Equal(t, ClassBenign, class, "low confidence must never keep a non-benign argmax")
	assert.Less(t, conf, DefaultConfidenceThreshold)
}

func TestCalibrator_PassThrough(t *testing.T) {
	c := Calibrator{Threshold: DefaultConfidenceThreshold}

	class, conf := c.Decide([]float64{0.05, 0.05, 0.90})
	assert.Equal(t, ClassWebScan, class)
	assert.InDelta(t, 0.641, conf, 0.001)
}

func TestCategoryForClass(t *testing.T) {
	assert.Equal(t, "SSH Brute-force", string(CategoryForClass(ClassBruteForce)))
	assert.Equal(t, "Web Scan", string(CategoryForClass(ClassWebScan)))
	assert.Equal(t, "ML Attack", string(CategoryForClass(ClassSQLi)))
}
