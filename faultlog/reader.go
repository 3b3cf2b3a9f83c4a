package faultlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/structs"

	"github.com/sarchlab/edac/fault"
)

// Query selects fault entries. Zero fields do not filter.
type Query struct {
	// Kinds restricts the result to the given fault kinds.
	Kinds []fault.Kind

	// Since drops entries logged before this time.
	Since time.Time

	// Limit is the maximum number of entries to return, newest first.
	Limit int
}

// A Reader lists logged faults.
type Reader struct {
	db *sql.DB
}

// NewReader opens the fault log at the resolved path for reading.
func NewReader(path string) (*Reader, error) {
	path = ResolvePath(path)

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("faultlog: open %s: %w", path, err)
	}

	return &Reader{db: db}, nil
}

// NewReaderWithDB creates a reader over an open database.
func NewReaderWithDB(db *sql.DB) *Reader {
	return &Reader{db: db}
}

func (q Query) where() (string, []any) {
	var (
		conds []string
		args  []any
	)

	if len(q.Kinds) > 0 {
		marks := make([]string, len(q.Kinds))
		for i, k := range q.Kinds {
			marks[i] = "?"
			args = append(args, k.String())
		}

		conds = append(conds, "Kind IN ("+strings.Join(marks, ", ")+")")
	}

	if !q.Since.IsZero() {
		conds = append(conds, "Time >= ?")
		args = append(args, q.Since.UnixNano())
	}

	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns the matching reports, newest first.
func (r *Reader) List(ctx context.Context, q Query) ([]*fault.Report, error) {
	where, args := q.where()

	query := "SELECT " + strings.Join(structs.Names(Entry{}), ", ") +
		" FROM " + TableName + where + " ORDER BY Time DESC"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("faultlog: query: %w", err)
	}
	defer rows.Close()

	var reports []*fault.Report

	for rows.Next() {
		var e Entry

		if err := rows.Scan(e.scanTargets()...); err != nil {
			return nil, fmt.Errorf("faultlog: scan: %w", err)
		}

		rep, err := e.Report()
		if err != nil {
			return nil, fmt.Errorf("faultlog: entry %s: %w", e.ID, err)
		}

		reports = append(reports, rep)
	}

	return reports, rows.Err()
}

// Count returns the number of logged faults per kind.
func (r *Reader) Count(ctx context.Context) (map[fault.Kind]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT Kind, COUNT(*) FROM "+TableName+" GROUP BY Kind")
	if err != nil {
		return nil, fmt.Errorf("faultlog: count: %w", err)
	}
	defer rows.Close()

	counts := make(map[fault.Kind]int)

	for rows.Next() {
		var (
			name string
			n    int
		)

		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("faultlog: scan: %w", err)
		}

		k, err := fault.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("faultlog: %w", err)
		}

		counts[k] = n
	}

	return counts, rows.Err()
}

// Close closes the database.
func (r *Reader) Close() error {
	return r.db.Close()
}
