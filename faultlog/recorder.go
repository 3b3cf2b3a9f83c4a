package faultlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/edac/fault"
)

// DefaultBatchSize is how many entries are buffered before they are written.
const DefaultBatchSize = 64

// A Recorder is a fault.Sink that stores every report it receives.
//
// Reports are buffered and written in one transaction once the buffer is
// full, on Flush, and when the process exits through atexit. Report never
// returns an error; write failures are kept and returned by the next Flush.
type Recorder struct {
	db        *sql.DB
	lock      sync.Mutex
	batchSize int
	entries   []Entry
	err       error
}

// DefaultPath returns a fresh database file name.
func DefaultPath() string {
	return "edac_faults_" + xid.New().String() + ".sqlite3"
}

// ResolvePath returns the database file a fault log path refers to. An empty
// path becomes a new unique name and a path without an extension gets
// ".sqlite3".
func ResolvePath(path string) string {
	switch {
	case path == "":
		return DefaultPath()
	case filepath.Ext(path) == "":
		return path + ".sqlite3"
	}

	return path
}

// New opens or creates the fault log at the resolved path.
func New(path string) (*Recorder, error) {
	path = ResolvePath(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Database created for fault log: %s\n", path)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("faultlog: open %s: %w", path, err)
	}

	return NewWithDB(db)
}

// NewWithDB creates a recorder over an open database.
func NewWithDB(db *sql.DB) (*Recorder, error) {
	r := &Recorder{
		db:        db,
		batchSize: DefaultBatchSize,
	}

	if err := r.createTable(); err != nil {
		return nil, err
	}

	atexit.Register(func() { _ = r.Flush() })

	return r, nil
}

// SetBatchSize changes how many entries are buffered. Values below one mean
// every report is written at once.
func (r *Recorder) SetBatchSize(n int) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.batchSize = max(n, 1)
}

// DB returns the underlying database.
func (r *Recorder) DB() *sql.DB {
	return r.db
}

func (r *Recorder) createTable() error {
	fields := strings.Join(structs.Names(Entry{}), ", \n\t")
	query := `CREATE TABLE IF NOT EXISTS ` + TableName +
		` (` + "\n\t" + fields + "\n" + `);`

	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("faultlog: create table: %w", err)
	}

	return nil
}

// Report buffers a report.
func (r *Recorder) Report(rep *fault.Report) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.entries = append(r.entries, EntryFromReport(rep))

	if len(r.entries) >= r.batchSize {
		if err := r.flush(); err != nil && r.err == nil {
			r.err = err
		}
	}
}

// Flush writes out the buffered entries. It also returns a failure from an
// earlier write triggered by Report.
func (r *Recorder) Flush() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	err := r.flush()
	if r.err != nil {
		err, r.err = r.err, nil
	}

	return err
}

func (r *Recorder) flush() error {
	if len(r.entries) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("faultlog: begin: %w", err)
	}

	stmt, err := tx.Prepare(insertStatement())
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("faultlog: prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range r.entries {
		if _, err := stmt.Exec(structs.Values(e)...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("faultlog: insert %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("faultlog: commit: %w", err)
	}

	r.entries = nil

	return nil
}

// Close flushes and closes the database.
func (r *Recorder) Close() error {
	err := r.Flush()

	if cerr := r.db.Close(); err == nil {
		err = cerr
	}

	return err
}

func insertStatement() string {
	n := structs.Names(Entry{})
	for i := range n {
		n[i] = "?"
	}

	return "INSERT INTO " + TableName + " VALUES (" + strings.Join(n, ", ") + ")"
}

var _ fault.Sink = (*Recorder)(nil)
