package mess

import "math"

// Summary aggregates a Result for reports and run history.
type Summary struct {
	Rows         int
	Defined      int // rows with a MESS value
	Extrapolated int // rows with MESS < 0
	Unseen       int // rows with MESS == -Inf
	Min, Max     float64
	Mean         float64 // over finite MESS values
	Variables    []VariableCount
}

// VariableCount is how often a variable was the MoD or MoS of a row.
type VariableCount struct {
	Name string
	Kind Kind
	MoD  int
	MoS  int
}

// Summary computes aggregate statistics over the result.
func (r *Result) Summary() Summary {
	s := Summary{Rows: r.Len(), Min: math.NaN(), Max: math.NaN(), Mean: math.NaN()}
	s.Variables = make([]VariableCount, len(r.Variables))
	for j, name := range r.Variables {
		s.Variables[j] = VariableCount{Name: name, Kind: r.Kinds[j]}
	}
	var sum float64
	var finite int
	for i, v := range r.Min {
		if math.IsNaN(v) {
			continue
		}
		s.Defined++
		if v < 0 {
			s.Extrapolated++
		}
		if math.IsInf(v, -1) {
			s.Unseen++
		}
		if s.Defined == 1 || v < s.Min {
			s.Min = v
		}
		if s.Defined == 1 || v > s.Max {
			s.Max = v
		}
		if !math.IsInf(v, 0) {
			sum += v
			finite++
		}
		if j := r.MoD[i]; j >= 0 {
			s.Variables[j].MoD++
		}
		if j := r.MoS[i]; j >= 0 {
			s.Variables[j].MoS++
		}
	}
	if finite > 0 {
		s.Mean = sum / float64(finite)
	}
	return s
}
