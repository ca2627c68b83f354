package postgres

import (
	"reflect"
	"sync"
)

// columnIndex is the path to a db-tagged field, through embedded structs.
type columnIndex struct {
	name  string
	index []int
}

var columnCache sync.Map // map[reflect.Type][]columnIndex

func columnsOf(t reflect.Type) []columnIndex {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := columnCache.Load(t); ok {
		return cached.([]columnIndex)
	}

	var cols []columnIndex
	if t.Kind() == reflect.Struct {
		for _, f := range reflect.VisibleFields(t) {
			if f.Anonymous {
				continue
			}
			tag := f.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			cols = append(cols, columnIndex{name: tag, index: f.Index})
		}
	}

	columnCache.Store(t, cols)
	return cols
}

// ExtractDBColumns returns the column names of T's "db" tags, embedded structs included,
// in declaration order. Repositories call it once at package initialisation.
//
//	columns := ExtractDBColumns[supplier.Supplier]()
//	// ["id", "organization_id", "created_at", "updated_at", "code", "name", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	cols := columnsOf(reflect.TypeOf(zero))
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}

// StructToMap converts a struct to a column→value map using "db" tags, for
// squirrel's SetMap. Fields tagged "-" or untagged are skipped.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	cols := columnsOf(rv.Type())
	res := make(map[string]any, len(cols))
	for _, c := range cols {
		res[c.name] = rv.FieldByIndex(c.index).Interface()
	}
	return res
}

// Without returns m minus the given keys.
func Without(m map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}
