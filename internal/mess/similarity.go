package mess

import (
	"math"
	"sort"
)

// numericModel is the sorted reference sample of a numerical variable.
type numericModel struct {
	sorted   []float64
	min, max float64
}

func newNumericModel(sample []float64) *numericModel {
	s := sortedCopy(sample)
	return &numericModel{sorted: s, min: s[0], max: s[len(s)-1]}
}

// rankFraction is the share of reference values strictly below x.
func (m *numericModel) rankFraction(x float64) float64 {
	return float64(sort.SearchFloat64s(m.sorted, x)) / float64(len(m.sorted))
}

// similarity scores one target value against the reference distribution.
// Both range edges score exactly 0; values outside the range score below 0.
func (m *numericModel) similarity(x float64) float64 {
	if math.IsNaN(x) {
		return math.NaN()
	}
	if m.max == m.min {
		if x == m.min {
			return 0
		}
		return math.Inf(-1)
	}
	width := m.max - m.min
	switch {
	case x <= m.min:
		return (x - m.min) / width * 100
	case x >= m.max:
		return (m.max - x) / width * 100
	}
	f := m.rankFraction(x)
	if f <= 0.5 {
		return f * 200
	}
	return (1 - f) * 200
}

func (m *numericModel) column(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = m.similarity(x)
	}
	return out
}

// categoricalModel is the relative frequency of each reference category.
type categoricalModel struct {
	freq map[string]float64
}

func newCategoricalModel(sample []string) *categoricalModel {
	counts := make(map[string]int)
	for _, v := range sample {
		counts[v]++
	}
	n := float64(len(sample))
	freq := make(map[string]float64, len(counts))
	for k, c := range counts {
		freq[k] = float64(c) / n
	}
	return &categoricalModel{freq: freq}
}

// similarity is the reference frequency of x in (0, 1], -Inf for a
// category never observed in the reference, NaN for a missing value.
func (m *categoricalModel) similarity(x string) float64 {
	if x == "" {
		return math.NaN()
	}
	f, ok := m.freq[x]
	if !ok {
		return math.Inf(-1)
	}
	return f
}

func (m *categoricalModel) column(xs []string) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = m.similarity(x)
	}
	return out
}
