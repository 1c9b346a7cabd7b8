package domain

// errors.go — kinds de error estructurados del pipeline simulate → estimate.
//
// La validación de parámetros ocurre una sola vez en el boundary del
// simulador/estimador y falla rápido: nunca se devuelven resultados parciales.
// Los estados numéricamente degenerados dentro de los algoritmos (risk set
// vacío, división por cero) NO son errores: los manejan las reglas de
// terminación/skip del propio estimador.

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter indica un parámetro de entrada inválido
	// (counts o periodos no positivos, nivel de confianza fuera de rango).
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrEmptySample indica que el estimador fue invocado con cero entidades.
	ErrEmptySample = errors.New("empty sample")

	// ErrDegenerateHazard indica que el hazard devolvió un valor fuera de [0,1].
	// Se rechaza en vez de clampear: señala un bug de modelado aguas arriba.
	ErrDegenerateHazard = errors.New("degenerate hazard")
)

// ParamError identifica el parámetro ofensivo en un fallo de validación.
type ParamError struct {
	Name  string
	Value any
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v", e.Name, e.Value)
}

// Unwrap hace que errors.Is(err, ErrInvalidParameter) funcione.
func (e *ParamError) Unwrap() error { return ErrInvalidParameter }

// NewParamError construye el error de validación para el parámetro dado.
func NewParamError(name string, value any) error {
	return &ParamError{Name: name, Value: value}
}
