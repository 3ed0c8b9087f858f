package postboard

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// SQLRepository maps a flat struct onto one table. Columns come from `db` tags,
// falling back to the lower-cased field name; the "id" column is the primary key.
type SQLRepository[T Document] struct {
	db        *sql.DB
	tableName string
	columns   []string
}

func NewSQLRepository[T Document](db *sql.DB) *SQLRepository[T] {
	var doc T
	return &SQLRepository[T]{
		db:        db,
		tableName: doc.GetTableName(),
		columns:   columnNames(reflect.TypeOf(doc)),
	}
}

func (r *SQLRepository[T]) DB() *sql.DB {
	return r.db
}

// Save inserts doc. It never overwrites: a duplicate id is an error.
func (r *SQLRepository[T]) Save(ctx context.Context, doc T) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	values := r.extractValues(doc)
	placeholders := make([]string, len(values))
	for i := range values {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		r.tableName,
		strings.Join(r.columns, ","),
		strings.Join(placeholders, ","))

	_, err := r.db.ExecContext(ctx, query, values...)
	return err
}

// FindAll returns every row ordered by orderBy ascending.
func (r *SQLRepository[T]) FindAll(ctx context.Context, orderBy string) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s ASC",
		strings.Join(r.columns, ","), r.tableName, orderBy)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanRows(rows)
}

func (r *SQLRepository[T]) scanRows(rows *sql.Rows) ([]T, error) {
	results := []T{}
	for rows.Next() {
		var item T
		val := reflect.ValueOf(&item).Elem()
		scanArgs := make([]interface{}, val.NumField())
		for i := 0; i < val.NumField(); i++ {
			scanArgs[i] = val.Field(i).Addr().Interface()
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

func (r *SQLRepository[T]) extractValues(doc T) []interface{} {
	v := reflect.ValueOf(doc)
	values := make([]interface{}, v.NumField())
	for i := 0; i < v.NumField(); i++ {
		values[i] = v.Field(i).Interface()
	}
	return values
}

func (r *SQLRepository[T]) CreateTable(ctx context.Context) error {
	var entity T
	typ := reflect.TypeOf(entity)

	columns := make([]string, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		sqlType := "TEXT"
		switch field.Type.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
			sqlType = "INTEGER"
		case reflect.Int64, reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			sqlType = "BIGINT"
		case reflect.Bool:
			sqlType = "BOOLEAN"
		case reflect.Float32, reflect.Float64:
			sqlType = "REAL"
		}

		columnDef := fmt.Sprintf("%s %s NOT NULL", r.columns[i], sqlType)
		if r.columns[i] == "id" {
			columnDef += " PRIMARY KEY"
		}
		columns = append(columns, columnDef)
	}

	createQuery := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", r.tableName, strings.Join(columns, ", "))

	_, err := r.db.ExecContext(ctx, createQuery)
	return err
}

func columnNames(typ reflect.Type) []string {
	names := make([]string, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		name := field.Tag.Get("db")
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		names[i] = name
	}
	return names
}
