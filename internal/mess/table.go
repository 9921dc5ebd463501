package mess

import (
	"fmt"
	"math"
	"strings"
)

// Kind distinguishes numerical from categorical variables.
type Kind int

const (
	Numerical Kind = iota
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numerical:
		return "numerical"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Column is a named variable. Exactly one of Num or Cat is populated,
// depending on Kind. Missing numerical values are NaN; missing
// categorical values are the empty string.
type Column struct {
	Name string
	Kind Kind
	Num  []float64
	Cat  []string
}

// NumericalColumn builds a numerical column. NaN marks missing values.
func NumericalColumn(name string, vals []float64) Column {
	return Column{Name: name, Kind: Numerical, Num: vals}
}

// CategoricalColumn builds a categorical column. "" marks missing values.
func CategoricalColumn(name string, vals []string) Column {
	return Column{Name: name, Kind: Categorical, Cat: vals}
}

// Len returns the number of observations in the column.
func (c Column) Len() int {
	if c.Kind == Categorical {
		return len(c.Cat)
	}
	return len(c.Num)
}

// IsMissing reports whether row i holds a missing value.
func (c Column) IsMissing(i int) bool {
	if c.Kind == Categorical {
		return c.Cat[i] == ""
	}
	return math.IsNaN(c.Num[i])
}

// Table is an ordered set of equal-length columns. Tables built as
// literals are validated again by NewReference and Compute.
type Table struct {
	Columns []Column
}

// NewTable validates the columns and returns a table. Column names are
// stored trimmed of surrounding space.
func NewTable(cols ...Column) (*Table, error) {
	cp := make([]Column, len(cols))
	for i, c := range cols {
		c.Name = strings.TrimSpace(c.Name)
		cp[i] = c
	}
	t := &Table{Columns: cp}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// validate checks for columns, non-empty unique names and equal lengths.
func (t *Table) validate() error {
	if t == nil || len(t.Columns) == 0 {
		return ErrEmptyTable
	}
	seen := make(map[string]struct{}, len(t.Columns))
	rows := t.Columns[0].Len()
	for _, c := range t.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: column with empty name", ErrEmptyTable)
		}
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		seen[c.Name] = struct{}{}
		if c.Len() != rows {
			return fmt.Errorf("%w: column %q has %d rows, want %d", ErrLengthMismatch, c.Name, c.Len(), rows)
		}
	}
	return nil
}

// Rows returns the number of observations.
func (t *Table) Rows() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// Names returns the column names in table order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by exact name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// rowComplete reports whether no column is missing at row i.
func (t *Table) rowComplete(i int) bool {
	for _, c := range t.Columns {
		if c.IsMissing(i) {
			return false
		}
	}
	return true
}
