package classify

import (
	"logsentinel/internal/feature"
	"logsentinel/internal/types"
)

// Class indices in the model's versioned output ordering. The ordering is a
// wire contract with the model server and must never be reshuffled.
const (
	ClassBenign = iota
	ClassBruteForce
	ClassWebScan
	ClassSQLi
)

// Classifier is the narrow contract the pipeline consumes the statistical
// model through. The concrete model format is someone else's problem; any
// process that returns a probability vector over the class ordering above
// can serve it.
type Classifier interface {
	PredictProba(v feature.Vector) ([]float64, error)
}

// CategoryForClass maps a predicted class index to an alert category.
// Unknown indices fall back to the generic ML category.
func CategoryForClass(class int) types.Category {
	switch class {
	case ClassBruteForce:
		return types.CategorySSHBruteForce
	case ClassWebScan:
		return types.CategoryWebScan
	default:
		return types.CategoryMLAttack
	}
}
