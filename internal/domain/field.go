package domain

import "encoding/json"

// Field wraps an optional JSON value so that an absent key, an explicit
// null, and a concrete value remain distinguishable after decoding.
type Field[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// NewField returns a present, non-null field holding v.
func NewField[T any](v T) Field[T] {
	return Field[T]{Set: true, Valid: true, Value: v}
}

// NullField returns a present field carrying an explicit null.
func NullField[T any]() Field[T] {
	return Field[T]{Set: true}
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(data) == "null" {
		f.Valid = false
		return nil
	}
	if err := json.Unmarshal(data, &f.Value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set || !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
