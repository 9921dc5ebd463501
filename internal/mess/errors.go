package mess

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyTable indicates a table without usable columns.
	ErrEmptyTable = errors.New("table has no columns")
	// ErrDuplicateColumn indicates two columns share a name.
	ErrDuplicateColumn = errors.New("duplicate column name")
	// ErrLengthMismatch indicates columns of different lengths.
	ErrLengthMismatch = errors.New("column length mismatch")
	// ErrEmptyReference indicates no reference row survived missing-value removal.
	ErrEmptyReference = errors.New("reference has no complete rows")
	// ErrColumnNotFound indicates a reference variable missing from the target.
	ErrColumnNotFound = errors.New("column not found in target")
	// ErrKindMismatch indicates a target column that cannot take the reference kind.
	ErrKindMismatch = errors.New("column kind mismatch")
)

// ColumnNotFoundError names the reference variable the target lacks.
type ColumnNotFoundError struct {
	Name      string
	Available []string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("reference variable %q has no matching target column (target has %v)", e.Name, e.Available)
}

func (e *ColumnNotFoundError) Unwrap() error { return ErrColumnNotFound }

// KindMismatchError reports a categorical target column paired with a
// numerical reference variable.
type KindMismatchError struct {
	Name   string
	Want   Kind
	Target Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("variable %q is %s in the reference but %s in the target", e.Name, e.Want, e.Target)
}

func (e *KindMismatchError) Unwrap() error { return ErrKindMismatch }
