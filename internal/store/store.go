package store

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/KaramelBytes/mess-cli/internal/mess"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a run is not found
var ErrNotFound = errors.New("not found")

// Run is the recorded summary of one MESS computation.
type Run struct {
	ID               string        `json:"id"`
	CreatedAt        int64         `json:"created_at"` // unix milliseconds
	Reference        string        `json:"reference"`
	Target           string        `json:"target"`
	Rows             int           `json:"rows"`
	DefinedRows      int           `json:"defined_rows"`
	ExtrapolatedRows int           `json:"extrapolated_rows"`
	UnseenRows       int           `json:"unseen_rows"`
	MinMESS          float64       `json:"-"`
	MaxMESS          float64       `json:"-"`
	MeanMESS         float64       `json:"-"`
	FullMatrix       bool          `json:"full_matrix"`
	Variables        []RunVariable `json:"variables,omitempty"`
	// VariableCount is filled by List, which does not load Variables.
	VariableCount int `json:"variable_count"`
}

// RunVariable is the per-variable MoD/MoS tally of a run.
type RunVariable struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	MoD  int    `json:"mod"`
	MoS  int    `json:"mos"`
}

// NewRun builds a run record with a fresh ID from a result summary.
func NewRun(reference, target string, s mess.Summary, full bool) Run {
	r := Run{
		ID:               uuid.NewString(),
		CreatedAt:        time.Now().UnixMilli(),
		Reference:        reference,
		Target:           target,
		Rows:             s.Rows,
		DefinedRows:      s.Defined,
		ExtrapolatedRows: s.Extrapolated,
		UnseenRows:       s.Unseen,
		MinMESS:          s.Min,
		MaxMESS:          s.Max,
		MeanMESS:         s.Mean,
		FullMatrix:       full,
		VariableCount:    len(s.Variables),
	}
	for _, v := range s.Variables {
		r.Variables = append(r.Variables, RunVariable{Name: v.Name, Kind: v.Kind.String(), MoD: v.MoD, MoS: v.MoS})
	}
	return r
}

// Created returns the creation time.
func (r Run) Created() time.Time { return time.UnixMilli(r.CreatedAt) }

// RunStore persists run history.
type RunStore interface {
	Add(ctx context.Context, r Run) error
	Get(ctx context.Context, id string) (Run, error)
	// List returns runs newest first, without per-variable rows.
	List(ctx context.Context) ([]Run, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Non-finite MESS statistics are stored as NULL. Min and max can only be
// non-finite as -Inf (an unseen category) or NaN (no defined rows), so
// they are recovered from the row counts.
func finiteOrNil(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func restoreBound(v sql.NullFloat64, defined int) float64 {
	switch {
	case v.Valid:
		return v.Float64
	case defined > 0:
		return math.Inf(-1)
	default:
		return math.NaN()
	}
}

func restoreMean(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
