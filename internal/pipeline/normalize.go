package pipeline

import (
	"errors"
	"math"

	"github.com/localrivet/textembed/internal/errortypes"
)

var errZeroNorm = errors.New("vector has zero norm")

// normalize rescales v in place to unit Euclidean norm. A zero vector cannot
// be normalized; it is rejected explicitly rather than letting the division
// propagate non-finite values.
func normalize(v []float32) error {
	var sumSquares float32
	for _, val := range v {
		sumSquares += val * val
	}

	length := float32(math.Sqrt(float64(sumSquares)))
	if length == 0 {
		return errortypes.DegenerateVectorError(errZeroNorm, "cannot normalize degenerate chunk vector")
	}

	for i := range v {
		v[i] /= length
	}
	return nil
}
