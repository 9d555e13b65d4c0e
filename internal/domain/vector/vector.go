// Package vector holds the similarity math shared by stores and retrieval.
package vector

import "math"

// Cosine returns the cosine of the angle between a and b in [-1,1].
// Zero vectors and vectors of different length yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return clamp(dot/(math.Sqrt(na)*math.Sqrt(nb)), -1, 1)
}

// Similarity maps cosine into [0,1] via (cos+1)/2. Every threshold comparison uses this scale.
func Similarity(a, b []float32) float64 {
	return Normalize(Cosine(a, b))
}

// Normalize maps a cosine value in [-1,1] into [0,1].
func Normalize(cos float64) float64 {
	return clamp((cos+1)/2, 0, 1)
}

// L2Normalize scales v to unit length in place. A zero vector is left unchanged.
func L2Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
