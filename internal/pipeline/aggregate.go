package pipeline

// DefaultLeadChunkWeight is the aggregation weight of the first chunk.
// The document's opening window is commonly its most representative span
// (title, lead paragraph), so it is weighted slightly above the rest. This
// is a tunable heuristic, not a derived constant.
const DefaultLeadChunkWeight = 1.2

// aggregate combines ordered chunk vectors into one document vector by
// weighted averaging: leadWeight on the first vector, 1.0 on every other.
// An empty input yields an empty vector. A single input is returned
// unchanged in value, since its weight cancels out.
//
// The result is not renormalized here: a weighted average of unit vectors
// has norm at most 1 and generally below it.
func aggregate(vecs [][]float32, leadWeight float64) []float32 {
	if len(vecs) == 0 {
		return []float32{}
	}
	if len(vecs) == 1 {
		// The lead weight cancels against the weight sum; skip the rounding
		// of a multiply-then-divide and return the vector as-is.
		out := make([]float32, len(vecs[0]))
		copy(out, vecs[0])
		return out
	}

	numCols := len(vecs[0])
	mean := make([]float32, numCols)

	var weightSum float64
	for i, vec := range vecs {
		weight := 1.0
		if i == 0 {
			weight = leadWeight
		}
		weightSum += weight

		for j, val := range vec {
			mean[j] += float32(weight) * val
		}
	}

	for j := range mean {
		mean[j] /= float32(weightSum)
	}

	return mean
}
