package mess

import (
	"math"
	"sort"
	"strconv"
)

// Reference is a prepared, immutable model of a reference sample. It can be
// reused across any number of Compute calls.
type Reference struct {
	vars    []variable
	kept    int
	dropped int
}

// variable holds the per-kind model of one reference column.
type variable struct {
	name string
	kind Kind
	num  *numericModel
	cat  *categoricalModel
}

// NewReference drops every reference row that is missing any variable and
// prepares the per-variable models in reference column order.
func NewReference(ref *Table) (*Reference, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}
	keep := make([]int, 0, ref.Rows())
	for i := 0; i < ref.Rows(); i++ {
		if ref.rowComplete(i) {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return nil, ErrEmptyReference
	}

	r := &Reference{kept: len(keep), dropped: ref.Rows() - len(keep)}
	r.vars = make([]variable, len(ref.Columns))
	for j, c := range ref.Columns {
		v := variable{name: c.Name, kind: c.Kind}
		switch c.Kind {
		case Categorical:
			sample := make([]string, len(keep))
			for k, i := range keep {
				sample[k] = c.Cat[i]
			}
			v.cat = newCategoricalModel(sample)
		default:
			sample := make([]float64, len(keep))
			for k, i := range keep {
				sample[k] = c.Num[i]
			}
			v.num = newNumericModel(sample)
		}
		r.vars[j] = v
	}
	return r, nil
}

// Variables returns the reference variable names in order.
func (r *Reference) Variables() []string {
	out := make([]string, len(r.vars))
	for i, v := range r.vars {
		out[i] = v.name
	}
	return out
}

// Kinds returns the reference variable kinds in order.
func (r *Reference) Kinds() []Kind {
	out := make([]Kind, len(r.vars))
	for i, v := range r.vars {
		out[i] = v.kind
	}
	return out
}

// SampleSize is the number of reference rows kept after missing-value removal.
func (r *Reference) SampleSize() int { return r.kept }

// Dropped is the number of reference rows removed for missing values.
func (r *Reference) Dropped() int { return r.dropped }

// Range returns the reference range of a numerical variable.
func (r *Reference) Range(name string) (lo, hi float64, ok bool) {
	for _, v := range r.vars {
		if v.name == name && v.num != nil {
			return v.num.min, v.num.max, true
		}
	}
	return 0, 0, false
}

// Levels returns the number of distinct categories of a categorical variable.
func (r *Reference) Levels(name string) (int, bool) {
	for _, v := range r.vars {
		if v.name == name && v.cat != nil {
			return len(v.cat.freq), true
		}
	}
	return 0, false
}

// alignment maps each reference variable to its target column index.
// It is built once per Compute call.
func (r *Reference) alignment(target *Table) ([]int, error) {
	byName := make(map[string]int, len(target.Columns))
	for i, c := range target.Columns {
		byName[c.Name] = i
	}
	idx := make([]int, len(r.vars))
	for j, v := range r.vars {
		ti, ok := byName[v.name]
		if !ok {
			return nil, &ColumnNotFoundError{Name: v.name, Available: target.Names()}
		}
		tc := target.Columns[ti]
		if v.kind == Numerical && tc.Kind == Categorical {
			return nil, &KindMismatchError{Name: v.name, Want: v.kind, Target: tc.Kind}
		}
		idx[j] = ti
	}
	return idx, nil
}

// asLabels renders a numerical target column as category labels.
func asLabels(vals []float64) []string {
	out := make([]string, len(vals))
	for i, x := range vals {
		if math.IsNaN(x) {
			continue
		}
		out[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return out
}

func sortedCopy(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}
