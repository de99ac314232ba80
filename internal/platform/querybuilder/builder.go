// Package querybuilder renders the handful of postgres statements the team
// store needs, with positional $n placeholders.
package querybuilder

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// argList numbers placeholders in the order values are bound.
type argList struct {
	values []any
}

func (a *argList) bind(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

// Condition is one AND-joined predicate of a WHERE clause.
type Condition func(args *argList) string

func Eq(column string, value any) Condition {
	return func(args *argList) string {
		return column + " = " + args.bind(value)
	}
}

func writeWhere(buf *strings.Builder, conditions []Condition, args *argList) {
	for i, cond := range conditions {
		if i == 0 {
			buf.WriteString(" WHERE ")
		} else {
			buf.WriteString(" AND ")
		}
		buf.WriteString(cond(args))
	}
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	limit   int
	suffix  string
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

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

// Suffix appends a trailing clause such as FOR UPDATE.
func (b *SelectBuilder) Suffix(sql string) *SelectBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 || strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select needs columns and a table")
	}

	var (
		buf  strings.Builder
		args argList
	)
	fmt.Fprintf(&buf, "SELECT %s FROM %s", strings.Join(b.columns, ", "), b.table)
	writeWhere(&buf, b.where, &args)
	if b.limit > 0 {
		buf.WriteString(" LIMIT " + strconv.Itoa(b.limit))
	}
	if b.suffix != "" {
		buf.WriteString(" " + b.suffix)
	}
	return buf.String(), args.values, nil
}

type assignment struct {
	column string
	render func(args *argList) string
}

type UpdateBuilder struct {
	table string
	sets  []assignment
	where []Condition
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, render: func(args *argList) string {
		return args.bind(value)
	}})
	return b
}

// SetExpr assigns a raw SQL expression such as NOW().
func (b *UpdateBuilder) SetExpr(column, expr string) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, render: func(*argList) string {
		return expr
	}})
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" || len(b.sets) == 0 {
		return "", nil, fmt.Errorf("update needs a table and at least one column")
	}
	if len(b.where) == 0 {
		return "", nil, fmt.Errorf("update of %s without a WHERE clause", b.table)
	}

	var (
		buf  strings.Builder
		args argList
	)
	buf.WriteString("UPDATE " + b.table + " SET ")
	for i, set := range b.sets {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(set.column + " = " + set.render(&args))
	}
	writeWhere(&buf, b.where, &args)
	return buf.String(), args.values, nil
}

// InsertModel builds a single-row INSERT from the exported db-tagged fields of model.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	value := reflect.Indirect(reflect.ValueOf(model))
	if value.Kind() != reflect.Struct {
		return "", nil, fmt.Errorf("insert model must be a struct, got %T", model)
	}

	var (
		columns      []string
		placeholders []string
		args         argList
	)
	typ := value.Type()
	for i := range typ.NumField() {
		field := typ.Field(i)
		column, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		column = strings.TrimSpace(column)
		if !field.IsExported() || column == "" || column == "-" {
			continue
		}
		columns = append(columns, column)
		placeholders = append(placeholders, args.bind(value.Field(i).Interface()))
	}
	if len(columns) == 0 {
		return "", nil, fmt.Errorf("insert model %T has no db columns", model)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	if suffix = strings.TrimSpace(suffix); suffix != "" {
		query += " " + suffix
	}
	return query, args.values, nil
}
