package blocking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"stitch/internal/predicate"
	"stitch/internal/recordset"
	"stitch/internal/textutil"
)

// SQLBackend blocks through a relational store: per pass it materializes a
// run-scoped candidate table from an equi-join of the record tables and
// streams it back in bounded chunks. Supported dialects are sqlite (the
// modernc driver, file-based) and postgres (lib/pq).
//
// The connection is single-writer: every schema-mutating statement runs on
// the coordinating goroutine. Workers only ever see in-memory chunks.
type SQLBackend struct {
	db      *sql.DB
	dialect string
	prefix  string
	setA    *recordset.Set
	setB    *recordset.Set
	tableA  string
	tableB  string
	columns map[string]string // logical field -> sanitized column
}

// NewSQLBackend loads both record sets into run-scoped tables. runToken
// namespaces every table so concurrent runs sharing a server cannot collide.
// Pass the same set twice for dedup runs.
func NewSQLBackend(ctx context.Context, db *sql.DB, dialect, runToken string, setA, setB *recordset.Set) (*SQLBackend, error) {
	b := &SQLBackend{
		db:      db,
		dialect: dialect,
		prefix:  "stitch_" + textutil.SanitizeToken(runToken),
		setA:    setA,
		setB:    setB,
		columns: map[string]string{},
	}

	if err := b.resolveColumns(); err != nil {
		return nil, err
	}

	b.tableA = b.prefix + "_a"
	if setB == setA {
		b.tableB = b.tableA
	} else {
		b.tableB = b.prefix + "_b"
	}

	if err := b.loadSet(ctx, b.tableA, setA); err != nil {
		return nil, err
	}
	if b.tableB != b.tableA {
		if err := b.loadSet(ctx, b.tableB, setB); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b *SQLBackend) resolveColumns() error {
	fields := append(b.setA.Fields(), b.setB.Fields()...)
	used := map[string]string{}
	for _, logical := range fields {
		if _, ok := b.columns[logical]; ok {
			continue
		}
		col := "f_" + textutil.SanitizeToken(logical)
		if prev, clash := used[col]; clash && prev != logical {
			return fmt.Errorf("blocking variables %q and %q collide on column %q", prev, logical, col)
		}
		used[col] = logical
		b.columns[logical] = col
	}
	return nil
}

func (b *SQLBackend) column(logical string) string {
	if col, ok := b.columns[logical]; ok {
		return col
	}
	return "f_" + textutil.SanitizeToken(logical)
}

func (b *SQLBackend) loadSet(ctx context.Context, table string, set *recordset.Set) error {
	fields := set.Fields()
	cols := make([]string, 0, len(fields)+2)
	cols = append(cols, `"idx" INTEGER NOT NULL`, `"rec_id" TEXT NOT NULL`)
	for _, f := range fields {
		cols = append(cols, fmt.Sprintf("%q TEXT", b.column(f)))
	}

	if _, err := b.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
		return fmt.Errorf("drop stale table %s: %w", table, err)
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(cols, ", "))
	if _, err := b.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}

	names := make([]string, 0, len(fields)+2)
	names = append(names, `"idx"`, `"rec_id"`)
	for _, f := range fields {
		names = append(names, fmt.Sprintf("%q", b.column(f)))
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(names, ", "), b.placeholders(len(names)))

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	for i := 0; i < set.Len(); i++ {
		rec := set.Record(i)
		args := make([]any, 0, len(fields)+2)
		args = append(args, rec.Ordinal, rec.ID)
		for _, f := range fields {
			// Blocking equality operates on normalized keys; the raw values
			// stay on the in-memory sets for scoring.
			args = append(args, set.Key(i, f))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("insert record %d into %s: %w", i, table, err)
		}
	}
	if err := stmt.Close(); err != nil {
		tx.Rollback()
		return fmt.Errorf("close insert statement: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit load transaction: %w", err)
	}
	return nil
}

func (b *SQLBackend) placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		if b.dialect == "postgres" {
			parts[i] = fmt.Sprintf("$%d", i+1)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}

func (b *SQLBackend) GenerateCandidates(ctx context.Context, spec Spec, excl Exclusion) (Stream, int64, error) {
	if err := checkVars(b.setA, b.setB, spec); err != nil {
		return nil, 0, err
	}
	if len(spec.VarsA) == 0 {
		return &sliceStream{}, 0, nil
	}

	cond := b.joinCondition(spec, excl)
	candTable := fmt.Sprintf("%s_cand_%s", b.prefix, textutil.SanitizeToken(spec.Name))

	if _, err := b.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", candTable)); err != nil {
		return nil, 0, Wrap(nil, spec.Name, "drop stale candidate table", "", err)
	}
	create := fmt.Sprintf(
		`CREATE TABLE %s ("indv_id_a" TEXT, "indv_id_b" TEXT, "idx_a" INTEGER, "idx_b" INTEGER)`,
		candTable)
	if _, err := b.db.ExecContext(ctx, create); err != nil {
		return nil, 0, Wrap(nil, spec.Name, "create candidate table", "", err)
	}

	insert := fmt.Sprintf(`
        INSERT INTO %s ("indv_id_a", "indv_id_b", "idx_a", "idx_b")
        SELECT a."rec_id", b."rec_id", a."idx", b."idx"
        FROM %s a INNER JOIN %s b ON %s`,
		candTable, b.tableA, b.tableB, cond)
	res, err := b.db.ExecContext(ctx, insert)
	if err != nil {
		return nil, 0, Wrap(nil, spec.Name, "materialize candidates", "", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		inserted = -1
	}

	rows, err := b.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT "indv_id_a", "indv_id_b", "idx_a", "idx_b" FROM %s`, candTable))
	if err != nil {
		return nil, 0, Wrap(ErrNotFound, spec.Name, "read candidate table", candTable, err)
	}

	return &sqlStream{backend: b, table: candTable, rows: rows}, inserted, nil
}

// joinCondition renders the pass predicate: the equality conjunction over
// the blocking tuple, minus everything satisfiable by a committed pass, plus
// the dedup self-join guards.
func (b *SQLBackend) joinCondition(spec Spec, excl Exclusion) string {
	node := predicate.PassConjunction(spec.VarsA, spec.VarsB)
	if !excl.Empty() {
		node = predicate.And{Nodes: []predicate.Node{
			node,
			predicate.Not{Node: excl.Predicate()},
		}}
	}
	mapped := predicate.MapFields(node, b.column, b.column)
	cond := predicate.SQL(mapped, "a", "b")
	if spec.Dedup {
		cond += ` AND a."idx" < b."idx" AND a."rec_id" <> b."rec_id"`
	}
	return cond
}

// Close drops the run-scoped record tables.
func (b *SQLBackend) Close() error {
	tables := []string{b.tableA}
	if b.tableB != b.tableA {
		tables = append(tables, b.tableB)
	}
	var errs []error
	for _, table := range tables {
		if _, err := b.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			errs = append(errs, fmt.Errorf("drop table %s: %w", table, err))
		}
	}
	return errors.Join(errs...)
}

// sqlStream cursors over a materialized candidate table and drops it on
// Close.
type sqlStream struct {
	backend *SQLBackend
	table   string
	rows    *sql.Rows
	done    bool
}

func (s *sqlStream) Next(ctx context.Context, limit int) ([]Pair, error) {
	if s.done {
		return nil, nil
	}
	if limit <= 0 {
		limit = 1
	}
	pairs := make([]Pair, 0, limit)
	for len(pairs) < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.rows.Next() {
			s.done = true
			if err := s.rows.Err(); err != nil {
				return nil, fmt.Errorf("stream candidates from %s: %w", s.table, err)
			}
			break
		}
		var p Pair
		if err := s.rows.Scan(&p.IDA, &p.IDB, &p.IdxA, &p.IdxB); err != nil {
			return nil, fmt.Errorf("scan candidate row: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

func (s *sqlStream) Close() error {
	var errs []error
	if s.rows != nil {
		if err := s.rows.Close(); err != nil {
			errs = append(errs, err)
		}
		s.rows = nil
	}
	// Pass-scoped artifact: gone once the pass has been streamed.
	if _, err := s.backend.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", s.table)); err != nil {
		errs = append(errs, fmt.Errorf("drop candidate table %s: %w", s.table, err))
	}
	return errors.Join(errs...)
}
