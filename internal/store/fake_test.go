package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
)

// fakeCall is one statement the fake database received.
type fakeCall struct {
	sql  string
	args []any
}

// fakeDB answers queries with canned rows. respond receives the SQL text and
// arguments and returns the result rows or an error.
type fakeDB struct {
	mu      sync.Mutex
	calls   []fakeCall
	respond func(sql string, args []any) ([][]any, error)
	pingErr error
	closed  int
}

func (f *fakeDB) record(sql string, args []any) ([][]any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{sql: sql, args: args})
	f.mu.Unlock()
	if f.respond == nil {
		return nil, nil
	}
	return f.respond(sql, args)
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	rows, err := f.record(sql, args)
	if err != nil {
		return nil, err
	}
	return &fakeRows{db: f, data: rows, pos: -1}, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	rows, err := f.record(sql, args)
	return fakeRow{data: rows, err: err}
}

func (f *fakeDB) Ping(context.Context) error {
	return f.pingErr
}

func (f *fakeDB) queries() []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeCall(nil), f.calls...)
}

// routes builds a respond func that picks rows by the first SQL fragment
// contained in the statement.
func routes(m map[string][][]any) func(string, []any) ([][]any, error) {
	return func(sql string, _ []any) ([][]any, error) {
		for frag, rows := range m {
			if strings.Contains(sql, frag) {
				return rows, nil
			}
		}
		return nil, nil
	}
}

type fakeRows struct {
	db   *fakeDB
	data [][]any
	pos  int
	done bool
}

func (r *fakeRows) Close() {
	if r.done {
		return
	}
	r.done = true
	r.db.mu.Lock()
	r.db.closed++
	r.db.mu.Unlock()
}

func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte { return nil }
func (r *fakeRows) Conn() *pgx.Conn { return nil }

func (r *fakeRows) Next() bool {
	if r.done {
		return false
	}
	r.pos++
	if r.pos >= len(r.data) {
		r.Close()
		return false
	}
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return scanInto(r.data[r.pos], dest)
}

func (r *fakeRows) Values() ([]any, error) {
	return r.data[r.pos], nil
}

type fakeRow struct {
	data [][]any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(r.data) == 0 {
		return pgx.ErrNoRows
	}
	return scanInto(r.data[0], dest)
}

// scanInto assigns a fake row to scan targets, mimicking the conversions the
// mappers rely on: nil becomes NULL and strings fill pgtype.Text.
func scanInto(row []any, dest []any) error {
	if len(row) != len(dest) {
		return fmt.Errorf("fake scan: %d values into %d targets", len(row), len(dest))
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *pgtype.Text:
			if v == nil {
				*d = pgtype.Text{}
				continue
			}
			*d = pgtype.Text{String: v.(string), Valid: true}
		case *pgtype.Date:
			if v == nil {
				*d = pgtype.Date{}
				continue
			}
			*d = pgtype.Date{Time: v.(time.Time), Valid: true}
		default:
			dv := reflect.ValueOf(dest[i]).Elem()
			if v == nil {
				dv.SetZero()
				continue
			}
			sv := reflect.ValueOf(v)
			if !sv.Type().ConvertibleTo(dv.Type()) {
				return fmt.Errorf("fake scan: column %d: %T into %s", i, v, dv.Type())
			}
			dv.Set(sv.Convert(dv.Type()))
		}
	}
	return nil
}

func newTestPostgres(db *fakeDB) *Postgres {
	return &Postgres{db: db, log: zerolog.Nop()}
}
