package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// InsertBuilder renders a multi-row INSERT with $n placeholders numbered
// across rows.
type InsertBuilder struct {
	table    string
	columns  []string
	rows     [][]any
	conflict string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

// Suffix is appended verbatim, typically an ON CONFLICT clause.
func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.conflict = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) OnConflict(clause *ConflictClause) *InsertBuilder {
	if clause == nil {
		b.conflict = ""
		return b
	}
	return b.Suffix(clause.String())
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	switch {
	case strings.TrimSpace(b.table) == "":
		return "", nil, fmt.Errorf("insert table is required")
	case len(b.columns) == 0:
		return "", nil, fmt.Errorf("insert columns are required")
	case len(b.rows) == 0:
		return "", nil, fmt.Errorf("insert values are required")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", b.table, strings.Join(b.columns, ", "))

	args := make([]any, 0, len(b.rows)*len(b.columns))
	for i, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", i, len(row), len(b.columns))
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		writeTuple(&sb, len(args)+1, len(row))
		args = append(args, row...)
	}

	if b.conflict != "" {
		sb.WriteByte(' ')
		sb.WriteString(b.conflict)
	}
	return sb.String(), args, nil
}

// writeTuple writes ($first, ..., $first+n-1).
func writeTuple(sb *strings.Builder, first, n int) {
	sb.WriteByte('(')
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(placeholder(first + i))
	}
	sb.WriteByte(')')
}

func placeholder(i int) string {
	return "$" + strconv.Itoa(i)
}
