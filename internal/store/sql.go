package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// sqlRunStore implements RunStore over database/sql. Queries are written
// with ? placeholders; rebind adapts them to the driver.
type sqlRunStore struct {
	db     *sql.DB
	rebind func(string) string
}

func (s *sqlRunStore) Add(ctx context.Context, r Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO runs (
			id, created_at, reference, target, variables, total_rows,
			defined_rows, extrapolated_rows, unseen_rows,
			min_mess, max_mess, mean_mess, full_matrix
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		r.ID, r.CreatedAt, r.Reference, r.Target, len(r.Variables), r.Rows,
		r.DefinedRows, r.ExtrapolatedRows, r.UnseenRows,
		finiteOrNil(r.MinMESS), finiteOrNil(r.MaxMESS), finiteOrNil(r.MeanMESS), r.FullMatrix,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for i, v := range r.Variables {
		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO run_variables (run_id, position, name, kind, mod_count, mos_count)
			VALUES (?, ?, ?, ?, ?, ?)`),
			r.ID, i, v.Name, v.Kind, v.MoD, v.MoS,
		)
		if err != nil {
			return fmt.Errorf("insert run variable %q: %w", v.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const runColumns = `id, created_at, reference, target, variables, total_rows,
	defined_rows, extrapolated_rows, unseen_rows,
	min_mess, max_mess, mean_mess, full_matrix`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var r Run
	var minV, maxV, meanV sql.NullFloat64
	err := sc.Scan(
		&r.ID, &r.CreatedAt, &r.Reference, &r.Target, &r.VariableCount, &r.Rows,
		&r.DefinedRows, &r.ExtrapolatedRows, &r.UnseenRows,
		&minV, &maxV, &meanV, &r.FullMatrix,
	)
	if err != nil {
		return r, err
	}
	r.MinMESS = restoreBound(minV, r.DefinedRows)
	r.MaxMESS = restoreBound(maxV, r.DefinedRows)
	r.MeanMESS = restoreMean(meanV)
	return r, nil
}

func (s *sqlRunStore) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+runColumns+` FROM runs WHERE id = ?`), id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return r, ErrNotFound
	}
	if err != nil {
		return r, fmt.Errorf("query run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT name, kind, mod_count, mos_count
		FROM run_variables WHERE run_id = ? ORDER BY position`), id)
	if err != nil {
		return r, fmt.Errorf("query run variables: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v RunVariable
		if err := rows.Scan(&v.Name, &v.Kind, &v.MoD, &v.MoS); err != nil {
			return r, fmt.Errorf("scan run variable: %w", err)
		}
		r.Variables = append(r.Variables, v)
	}
	return r, rows.Err()
}

func (s *sqlRunStore) List(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *sqlRunStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM run_variables WHERE run_id = ?`), id); err != nil {
		return fmt.Errorf("delete run variables: %w", err)
	}
	result, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM runs WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *sqlRunStore) Close() error {
	return s.db.Close()
}

func noRebind(q string) string { return q }

// dollarRebind rewrites ? placeholders as $1, $2, ...
func dollarRebind(q string) string {
	var b strings.Builder
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}
