package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// statement accumulates SQL text and positional ($n) arguments.
type statement struct {
	sql  strings.Builder
	args []any
}

func (s *statement) write(parts ...string) {
	for _, part := range parts {
		s.sql.WriteString(part)
	}
}

func (s *statement) bind(value any) {
	s.args = append(s.args, value)
	s.sql.WriteString("$" + strconv.Itoa(len(s.args)))
}

// bindExpr copies expr, binding each '?' to the next value. Extra '?' are left as is.
func (s *statement) bindExpr(expr string, values []any) {
	next := 0
	for i := 0; i < len(expr); i++ {
		if expr[i] == '?' && next < len(values) {
			s.bind(values[next])
			next++
			continue
		}
		s.sql.WriteByte(expr[i])
	}
}

func (s *statement) where(conditions []Condition) {
	for i, c := range conditions {
		if i == 0 {
			s.write(" WHERE ")
		} else {
			s.write(" AND ")
		}
		c.appendSQL(s)
	}
}

func (s *statement) list(keyword string, items []string) {
	if len(items) > 0 {
		s.write(" ", keyword, " ", strings.Join(items, ", "))
	}
}

func (s *statement) done() (string, []any, error) {
	return s.sql.String(), s.args, nil
}

type Condition interface {
	appendSQL(s *statement)
}

type compareCondition struct {
	column   string
	operator string
	value    any
}

func Eq(column string, value any) Condition {
	return compareCondition{column: column, operator: "=", value: value}
}

// Gte renders column >= value.
func Gte(column string, value any) Condition {
	return compareCondition{column: column, operator: ">=", value: value}
}

// Lte renders column <= value.
func Lte(column string, value any) Condition {
	return compareCondition{column: column, operator: "<=", value: value}
}

func (c compareCondition) appendSQL(s *statement) {
	s.write(c.column, " ", c.operator, " ")
	s.bind(c.value)
}

type inCondition struct {
	column string
	values []any
}

// In renders column IN (...). An empty list matches nothing.
func In(column string, values []any) Condition {
	return inCondition{column: column, values: values}
}

func (c inCondition) appendSQL(s *statement) {
	if len(c.values) == 0 {
		s.write("1=0")
		return
	}
	s.write(c.column, " IN (")
	for i, v := range c.values {
		if i > 0 {
			s.write(", ")
		}
		s.bind(v)
	}
	s.write(")")
}

type isNullCondition string

func IsNull(column string) Condition {
	return isNullCondition(column)
}

func (c isNullCondition) appendSQL(s *statement) {
	s.write(string(c), " IS NULL")
}

type exprCondition struct {
	expr string
	args []any
}

// Expr embeds raw SQL; each '?' binds the next arg.
func Expr(expr string, args ...any) Condition {
	return exprCondition{expr: expr, args: args}
}

func (c exprCondition) appendSQL(s *statement) {
	s.bindExpr(c.expr, c.args)
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	groupBy []string
	orderBy []string
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) GroupBy(columns ...string) *SelectBuilder {
	b.groupBy = append(b.groupBy, columns...)
	return b
}

func (b *SelectBuilder) OrderBy(terms ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, terms...)
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	var s statement
	s.write("SELECT ", strings.Join(b.columns, ", "), " FROM ", b.table)
	s.where(b.where)
	s.list("GROUP BY", b.groupBy)
	s.list("ORDER BY", b.orderBy)
	return s.done()
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

// Values appends one row; call it once per row for multi-row inserts.
func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

// Suffix is appended verbatim after VALUES, typically an ON CONFLICT or RETURNING clause.
func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
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

	var s statement
	s.write("INSERT INTO ", b.table, " (", strings.Join(b.columns, ", "), ") VALUES ")
	for rowIdx, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", rowIdx, len(row), len(b.columns))
		}
		if rowIdx > 0 {
			s.write(", ")
		}
		s.write("(")
		for colIdx, value := range row {
			if colIdx > 0 {
				s.write(", ")
			}
			s.bind(value)
		}
		s.write(")")
	}
	if b.suffix != "" {
		s.write(" ", b.suffix)
	}
	return s.done()
}

type assignment struct {
	column string
	value  any
	expr   *exprCondition
}

type UpdateBuilder struct {
	table  string
	sets   []assignment
	where  []Condition
	suffix string
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, value: value})
	return b
}

// SetExpr assigns a raw SQL expression such as NOW().
func (b *UpdateBuilder) SetExpr(column, expr string, args ...any) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, expr: &exprCondition{expr: expr, args: args}})
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *UpdateBuilder) Suffix(sql string) *UpdateBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("update table is required")
	}
	if len(b.sets) == 0 {
		return "", nil, fmt.Errorf("update sets are required")
	}

	var s statement
	s.write("UPDATE ", b.table, " SET ")
	for i, set := range b.sets {
		if i > 0 {
			s.write(", ")
		}
		s.write(set.column, " = ")
		if set.expr != nil {
			set.expr.appendSQL(&s)
			continue
		}
		s.bind(set.value)
	}
	s.where(b.where)
	if b.suffix != "" {
		s.write(" ", b.suffix)
	}
	return s.done()
}

type DeleteBuilder struct {
	table string
	where []Condition
}

func DeleteFrom(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

func (b *DeleteBuilder) Where(conditions ...Condition) *DeleteBuilder {
	b.where = append(b.where, conditions...)
	return b
}

// ToSQL refuses to build an unscoped delete.
func (b *DeleteBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("delete table is required")
	}
	if len(b.where) == 0 {
		return "", nil, fmt.Errorf("delete conditions are required")
	}

	var s statement
	s.write("DELETE FROM ", b.table)
	s.where(b.where)
	return s.done()
}
