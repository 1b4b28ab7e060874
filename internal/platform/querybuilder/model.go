package querybuilder

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// InsertModel builds a single-row insert from the db-tagged exported fields of model.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	return InsertModels(table, []any{model}, suffix)
}

// InsertModels builds one multi-row insert. Every model must map to the same column list.
func InsertModels[T any](table string, models []T, suffix string) (string, []any, error) {
	if len(models) == 0 {
		return "", nil, fmt.Errorf("insert models: no rows")
	}

	builder := InsertInto(table).Suffix(suffix)
	var columns []string
	for idx, model := range models {
		fields, err := modelFields(model)
		if err != nil {
			return "", nil, fmt.Errorf("insert models row %d: %w", idx, err)
		}
		if idx == 0 {
			columns = fields.columns
			builder.Columns(columns...)
		} else if !slices.Equal(columns, fields.columns) {
			return "", nil, fmt.Errorf("insert models row %d: column mismatch", idx)
		}
		builder.Values(fields.values...)
	}
	return builder.ToSQL()
}

type boundFields struct {
	columns []string
	values  []any
}

func modelFields(model any) (boundFields, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer || value.Kind() == reflect.Interface {
		if value.IsNil() {
			return boundFields{}, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return boundFields{}, fmt.Errorf("model must be struct, got %s", value.Kind())
	}

	typ := value.Type()
	out := boundFields{
		columns: make([]string, 0, typ.NumField()),
		values:  make([]any, 0, typ.NumField()),
	}
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		column := columnFromTag(field.Tag.Get("db"))
		if column == "" {
			continue
		}
		out.columns = append(out.columns, column)
		out.values = append(out.values, value.Field(i).Interface())
	}

	if len(out.columns) == 0 {
		return boundFields{}, fmt.Errorf("model has no db columns")
	}
	return out, nil
}

func columnFromTag(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	name = strings.TrimSpace(name)
	if name == "-" {
		return ""
	}
	return name
}
