package models

// Result is the envelope returned by agent queries. NoData marks a
// successful query over a window that held no fixes.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	NoData  bool   `json:"no_data,omitempty"`
}

// OK wraps data in a successful result
func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: &data}
}

// Empty is a successful result for a window without data
func Empty[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: &data, NoData: true}
}

// Fail is an unsuccessful result carrying err's message
func Fail[T any](err error) Result[T] {
	return Result[T]{Success: false, Error: err.Error()}
}
