package utils

import (
	"bytes"
	"encoding/json"
)

// Nullable 可置空的 JSON 字段，区分未提供、null 和具体值
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON 字段出现即视为已提供，null 时 Value 为 nil
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// Of 构造一个已提供的值
func Of[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}
