package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap is a free-form JSON object column.
type JSONMap map[string]any

// JSON stores a value as a JSON document in a TEXT column. The zero value is
// SQL NULL and JSON null.
type JSON[T any] struct {
	V     T
	Valid bool
}

// NewJSON wraps v as a valid JSON column value.
func NewJSON[T any](v T) JSON[T] {
	return JSON[T]{V: v, Valid: true}
}

// Scan implements sql.Scanner.
func (j *JSON[T]) Scan(src any) error {
	var raw []byte
	switch s := src.(type) {
	case nil:
		var zero T
		j.V, j.Valid = zero, false
		return nil
	case []byte:
		raw = s
	case string:
		raw = []byte(s)
	default:
		return fmt.Errorf("cannot scan %T into JSON column", src)
	}
	if err := json.Unmarshal(raw, &j.V); err != nil {
		return fmt.Errorf("failed to decode JSON column: %w", err)
	}
	j.Valid = true
	return nil
}

// Value implements driver.Valuer.
func (j JSON[T]) Value() (driver.Value, error) {
	if !j.Valid {
		return nil, nil
	}
	b, err := json.Marshal(j.V)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON column: %w", err)
	}
	return string(b), nil
}

func (j JSON[T]) MarshalJSON() ([]byte, error) {
	if !j.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(j.V)
}

func (j *JSON[T]) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		var zero T
		j.V, j.Valid = zero, false
		return nil
	}
	if err := json.Unmarshal(b, &j.V); err != nil {
		return err
	}
	j.Valid = true
	return nil
}
