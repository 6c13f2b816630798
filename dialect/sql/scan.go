package sql

import (
	"fmt"

	"github.com/syssam/dirtydb/field"
)

// ScanRows reads every remaining row of rows into column maps. Column
// values are converted with field.FromDriver using the database type the
// driver reports. rows is closed on return.
func ScanRows(rows ColumnScanner) ([]field.ColumnAndValue, error) {
	var out []field.ColumnAndValue
	err := EachRow(rows, func(row field.ColumnAndValue) error {
		out = append(out, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EachRow calls fn with every remaining row of rows and stops at the
// first error fn returns. rows is closed on return.
func EachRow(rows ColumnScanner, fn func(field.ColumnAndValue) error) (rerr error) {
	defer func() {
		if err := rows.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("dialect/sql: close rows: %w", err)
		}
	}()
	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("dialect/sql: columns: %w", err)
	}
	types := databaseTypes(rows, len(columns))
	for rows.Next() {
		dest := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("dialect/sql: scan: %w", err)
		}
		row := make(field.ColumnAndValue, len(columns))
		for i, col := range columns {
			row[col] = field.FromDriver(dest[i], types[i])
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("dialect/sql: rows: %w", err)
	}
	return nil
}

// ScanOne reads the first row of rows, if any.
func ScanOne(rows ColumnScanner) (field.ColumnAndValue, bool, error) {
	all, err := ScanRows(rows)
	if err != nil || len(all) == 0 {
		return nil, false, err
	}
	return all[0], true, nil
}

// databaseTypes returns the database type name of every column. Types are
// left empty when the driver has no metadata; some drivers panic instead
// of returning an error in that case.
func databaseTypes(rows ColumnScanner, n int) (types []string) {
	types = make([]string, n)
	defer func() {
		if recover() != nil {
			types = make([]string, n)
		}
	}()
	cts, err := rows.ColumnTypes()
	if err != nil {
		return types
	}
	for i, ct := range cts {
		if i < n {
			types[i] = ct.DatabaseTypeName()
		}
	}
	return types
}
