// Package record stores every candidate evaluation of a sizing run in a SQL
// database, so that a run can be inspected after it finishes.
package record

import (
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"

	// Recorders may write to MySQL.
	_ "github.com/go-sql-driver/mysql"
	// The default recorder writes to SQLite.
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/tilesize/opt"
)

// TableName is the table that holds the evaluations.
const TableName = "evaluations"

const defaultBatchSize = 10000

const createTableSQL = `CREATE TABLE IF NOT EXISTS ` + TableName + ` (
	run_id TEXT,
	seq INTEGER,
	param TEXT,
	step INTEGER,
	value REAL,
	area REAL,
	delay REAL,
	cost REAL,
	valid INTEGER
)`

const insertSQL = `INSERT INTO ` + TableName +
	` (run_id, seq, param, step, value, area, delay, cost, valid)` +
	` VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Recorder buffers evaluation records and writes them in batches.
type Recorder struct {
	db    *sql.DB
	runID string

	lock      sync.Mutex
	pending   []opt.Record
	batchSize int
	seq       int
}

var _ opt.Observer = (*Recorder)(nil)

// New creates a recorder that writes to <name>.sqlite3. An empty name picks a
// unique one. The file must not exist yet.
func New(name string) (*Recorder, error) {
	if name == "" {
		name = "tilesize_" + xid.New().String()
	}

	filename := name + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		return nil, errors.Errorf("file %s already exists", filename)
	}

	r, err := NewWithDriver("sqlite3", filename)
	if err != nil {
		return nil, err
	}

	slog.Info("database created for recording", "File", filename)

	return r, nil
}

// NewWithDriver creates a recorder on any registered SQL driver, for example
// "mysql" with a DSN such as user:pass@tcp(host:3306)/db.
func NewWithDriver(driver, dsn string) (*Recorder, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", driver)
	}

	r, err := NewWithDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return r, nil
}

// NewWithDB creates a recorder on an open database. Buffered records are
// flushed when the program exits through atexit.
func NewWithDB(db *sql.DB) (*Recorder, error) {
	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, errors.Wrap(err, "create evaluation table")
	}

	r := &Recorder{
		db:        db,
		runID:     xid.New().String(),
		batchSize: defaultBatchSize,
	}

	atexit.Register(func() {
		if err := r.Flush(); err != nil {
			slog.Error("flush evaluation records", "Error", err)
		}
	})

	return r, nil
}

// RunID returns the ID that tags every row written by this recorder.
func (r *Recorder) RunID() string {
	return r.runID
}

// SetBatchSize sets the number of buffered records that triggers a write.
func (r *Recorder) SetBatchSize(n int) {
	if n < 1 {
		panic(fmt.Sprintf("batch size must be at least 1, got %d", n))
	}

	r.lock.Lock()
	r.batchSize = n
	r.lock.Unlock()
}

// Observe buffers one record and writes the buffer once it is full.
func (r *Recorder) Observe(rec opt.Record) {
	r.lock.Lock()
	r.pending = append(r.pending, rec)
	full := len(r.pending) >= r.batchSize
	r.lock.Unlock()

	if !full {
		return
	}

	if err := r.Flush(); err != nil {
		panic(err)
	}
}

// Flush writes every buffered record in one transaction.
func (r *Recorder) Flush() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if len(r.pending) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	seq := r.seq
	for _, rec := range r.pending {
		_, err := stmt.Exec(r.runID, seq, rec.Param, rec.Step, rec.Value,
			rec.Area, float64(rec.Delay), nullCost(rec.Cost), rec.Valid)
		if err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "insert record %d", seq)
		}
		seq++
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit records")
	}

	r.pending = nil
	r.seq = seq

	return nil
}

// Close flushes the buffer and closes the database.
func (r *Recorder) Close() error {
	if err := r.Flush(); err != nil {
		return err
	}

	return r.db.Close()
}

// Invalid candidates cost +Inf, which not every database stores.
func nullCost(c float64) sql.NullFloat64 {
	if math.IsInf(c, 0) || math.IsNaN(c) {
		return sql.NullFloat64{}
	}

	return sql.NullFloat64{Float64: c, Valid: true}
}
