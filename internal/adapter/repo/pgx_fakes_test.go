package repo

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type simpleRow struct {
	scan func(dest ...any) error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

// valuesRow scans a fixed tuple into destinations of matching pointer types.
func valuesRow(values ...any) simpleRow {
	return simpleRow{scan: func(dest ...any) error {
		return assign(dest, values)
	}}
}

func assign(dest, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i, v := range values {
		target := reflect.ValueOf(dest[i])
		if target.Kind() != reflect.Pointer {
			return fmt.Errorf("scan: destination %d is not a pointer", i)
		}
		if v == nil {
			target.Elem().Set(reflect.Zero(target.Elem().Type()))
			continue
		}
		target.Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

type testRowsBase struct{}

func (testRowsBase) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (testRowsBase) Conn() *pgx.Conn { return nil }

func (testRowsBase) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (testRowsBase) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

func (testRowsBase) RawValues() [][]byte { return nil }

type tupleRows struct {
	testRowsBase
	tuples [][]any
	idx    int
}

func (r *tupleRows) Next() bool {
	if r.idx >= len(r.tuples) {
		return false
	}
	r.idx++
	return true
}

func (r *tupleRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.tuples) {
		return pgx.ErrNoRows
	}
	return assign(dest, r.tuples[r.idx-1])
}

func (r *tupleRows) Err() error { return nil }

func (r *tupleRows) Close() {}

// errRow fails every scan with err.
func errRow(err error) simpleRow {
	return simpleRow{scan: func(...any) error { return err }}
}

type call struct {
	query string
	args  []any
}

// fakeSQL records every statement and answers from scripted results.
type fakeSQL struct {
	calls    []call
	execTag  pgconn.CommandTag
	execErr  error
	row      pgx.Row
	rows     [][]any
	queryErr error
}

func (f *fakeSQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, call{query: query, args: args})
	return f.execTag, f.execErr
}

func (f *fakeSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	f.calls = append(f.calls, call{query: query, args: args})
	if f.row == nil {
		return simpleRow{}
	}
	return f.row
}

func (f *fakeSQL) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	f.calls = append(f.calls, call{query: query, args: args})
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &tupleRows{tuples: f.rows}, nil
}
