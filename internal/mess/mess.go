// Package mess computes Multivariate Environmental Similarity Surfaces.
//
// A Reference is prepared once from a reference table; Compute scores every
// target row against it, per variable, and reduces each row to its minimum
// similarity (MESS), the most dissimilar variable (MoD) and the most similar
// variable (MoS). Numerical similarities are on a percent scale that drops
// below zero outside the reference range; categorical similarities are the
// reference frequency in (0, 1], or -Inf for an unseen category. The two
// scales are not harmonised before the row reduction.
package mess

import (
	"math"
)

// Options controls a Compute call.
type Options struct {
	// Full keeps the per-variable similarity matrix on the result.
	Full bool
}

// Result holds the similarity outputs aligned with target rows.
type Result struct {
	Variables []string
	Kinds     []Kind
	// Similarity holds one column per variable, in Variables order.
	// It is nil unless Options.Full was set.
	Similarity [][]float64
	// Min is the MESS value per row; NaN when the row had no valid value.
	Min []float64
	// MoD and MoS index Variables; -1 when the row had no valid value.
	MoD []int
	MoS []int
}

// Compute is a one-shot NewReference followed by Reference.Compute.
func Compute(ref, target *Table, opt Options) (*Result, error) {
	r, err := NewReference(ref)
	if err != nil {
		return nil, err
	}
	return r.Compute(target, opt)
}

// Compute scores the target table against the reference. Target columns
// are matched to reference variables by name; extra target columns are
// ignored.
func (r *Reference) Compute(target *Table, opt Options) (*Result, error) {
	if err := target.validate(); err != nil {
		return nil, err
	}
	idx, err := r.alignment(target)
	if err != nil {
		return nil, err
	}
	sim := make([][]float64, len(r.vars))
	for j, v := range r.vars {
		tc := target.Columns[idx[j]]
		switch v.kind {
		case Categorical:
			labels := tc.Cat
			if tc.Kind == Numerical {
				labels = asLabels(tc.Num)
			}
			sim[j] = v.cat.column(labels)
		default:
			sim[j] = v.num.column(tc.Num)
		}
	}

	res := &Result{Variables: r.Variables(), Kinds: r.Kinds()}
	res.Min, res.MoD, res.MoS = reduce(sim, target.Rows())
	if opt.Full {
		res.Similarity = sim
	}
	return res, nil
}

// reduce computes the row minimum and the first column index holding the
// row minimum and maximum. NaN cells are skipped.
func reduce(sim [][]float64, rows int) (mins []float64, mod, mos []int) {
	mins = make([]float64, rows)
	mod = make([]int, rows)
	mos = make([]int, rows)
	for i := 0; i < rows; i++ {
		lo, hi := math.NaN(), math.NaN()
		loIdx, hiIdx := -1, -1
		for j := range sim {
			v := sim[j][i]
			if math.IsNaN(v) {
				continue
			}
			if loIdx < 0 || v < lo {
				lo, loIdx = v, j
			}
			if hiIdx < 0 || v > hi {
				hi, hiIdx = v, j
			}
		}
		mins[i], mod[i], mos[i] = lo, loIdx, hiIdx
	}
	return mins, mod, mos
}

// Len returns the number of target rows.
func (r *Result) Len() int { return len(r.Min) }

// MoDName returns the most dissimilar variable of row i.
func (r *Result) MoDName(i int) (string, bool) { return r.label(r.MoD[i]) }

// MoSName returns the most similar variable of row i.
func (r *Result) MoSName(i int) (string, bool) { return r.label(r.MoS[i]) }

func (r *Result) label(j int) (string, bool) {
	if j < 0 || j >= len(r.Variables) {
		return "", false
	}
	return r.Variables[j], true
}

// Row returns the per-variable similarities of row i, or nil when the
// matrix was not kept.
func (r *Result) Row(i int) []float64 {
	if r.Similarity == nil {
		return nil
	}
	out := make([]float64, len(r.Similarity))
	for j := range r.Similarity {
		out[j] = r.Similarity[j][i]
	}
	return out
}
