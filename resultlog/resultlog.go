// Package resultlog appends one benchmark row per run to a comma separated
// log file. The header is written when the file is created. Appends from
// concurrent processes are serialized with an advisory file lock.
package resultlog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"
	"github.com/hupe1980/distcluster/internal/fs"
)

// Columns are the header fields in file order.
var Columns = []string{
	"method_name",
	"seed",
	"num_GPUs",
	"K",
	"n_obs",
	"n_dim",
	"setup_time",
	"initialization_time",
	"computation_time",
	"n_iter",
}

// ErrMalformedRow is returned by ReadAll for rows with the wrong field count.
var ErrMalformedRow = errors.New("resultlog: malformed row")

// Row is one run. When Failure is set it replaces every timing field.
type Row struct {
	Method         string
	Seed           int64
	NumUnits       int
	K              int
	NObs           int
	NDim           int
	Setup          float64
	Initialization float64
	Computation    float64
	Iterations     int
	Failure        string
}

// Fields renders the row in column order. Timings are seconds in decimal
// notation.
func (r Row) Fields() []string {
	timing := func(v float64) string {
		if r.Failure != "" {
			return r.Failure
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return []string{
		r.Method,
		strconv.FormatInt(r.Seed, 10),
		strconv.Itoa(r.NumUnits),
		strconv.Itoa(r.K),
		strconv.Itoa(r.NObs),
		strconv.Itoa(r.NDim),
		timing(r.Setup),
		timing(r.Initialization),
		timing(r.Computation),
		strconv.Itoa(r.Iterations),
	}
}

// Options configures a Log.
type Options struct {
	// FileSystem performs the file operations. Defaults to the local disk.
	FileSystem fs.FileSystem
}

// Log is an append-only result log at a fixed path.
type Log struct {
	path string
	fs   fs.FileSystem
	lock *flock.Flock
}

// Open returns a Log for path. The file is not touched until Append or
// EnsureHeader.
func Open(path string, optFns ...func(o *Options)) *Log {
	opts := Options{FileSystem: fs.Default}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Log{path: path, fs: opts.FileSystem, lock: flock.New(path + ".lock")}
}

// Path returns the log file path.
func (l *Log) Path() string { return l.path }

// Append writes row, creating the file with a header first if needed. The
// row is written with a single call so a failed write leaves no partial
// line behind.
func (l *Log) Append(row Row) error {
	unlock, err := l.acquire()
	if err != nil {
		return err
	}
	defer unlock()

	f, err := l.fs.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("resultlog: open %s: %w", l.path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("resultlog: stat %s: %w", l.path, err)
	}

	var records [][]string
	if info.Size() == 0 {
		records = append(records, Columns)
	}
	return l.write(f, append(records, row.Fields())...)
}

// EnsureHeader creates the log with only a header when it does not exist.
func (l *Log) EnsureHeader() error {
	unlock, err := l.acquire()
	if err != nil {
		return err
	}
	defer unlock()

	f, err := l.fs.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("resultlog: create %s: %w", l.path, err)
	}
	return l.write(f, Columns)
}

// ReadAll returns the data rows as raw fields, header excluded.
func (l *Log) ReadAll() ([][]string, error) {
	f, err := l.fs.OpenFile(l.path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return readRows(f)
}

func (l *Log) acquire() (func(), error) {
	if err := l.fs.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, fmt.Errorf("resultlog: %w", err)
	}
	if err := l.lock.Lock(); err != nil {
		return nil, fmt.Errorf("resultlog: lock %s: %w", l.path, err)
	}
	return func() { _ = l.lock.Unlock() }, nil
}

// write encodes records, writes them in one call, syncs and closes f.
func (l *Log) write(f fs.File, records ...[]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		_ = f.Close()
		return fmt.Errorf("resultlog: encode: %w", err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		return fmt.Errorf("resultlog: write %s: %w", l.path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("resultlog: sync %s: %w", l.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("resultlog: close %s: %w", l.path, err)
	}
	return nil
}

func readRows(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("resultlog: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	rows := records[1:]
	for i, rec := range rows {
		if len(rec) != len(Columns) {
			return nil, fmt.Errorf("%w: line %d has %d fields", ErrMalformedRow, i+2, len(rec))
		}
	}
	return rows, nil
}
