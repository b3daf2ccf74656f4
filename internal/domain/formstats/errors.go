package formstats

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout indica que la consulta completa excedió su presupuesto de tiempo.
	ErrTimeout = errors.New("aggregation timed out")
)

const (
	ErrKindInvalidRange  = "invalid_range"
	ErrKindRangeTooLarge = "range_too_large"
	ErrKindInvalidCode   = "invalid_code"
)

// ValidationError se devuelve antes de tocar el store.
type ValidationError struct {
	Kind    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// StoreError: el backend no respondió (listado o todas las lecturas fallaron).
// Distinto de "cero resultados".
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
