package hazard

// hazard.go — la familia de hazard por periodo que alimenta al simulador.
//
// El contrato es un par de funciones puras sobre una CDF monótona F:
//
//	PeriodEventRate(t)     = (F(t) − F(t−1)) / (1 − F(t−1))
//	CumulativeEventRate(t) = F(t)
//
// Cualquier familia que respete la monotonía sirve; los parámetros son
// explícitos en el constructor, sin estado mutable ni lookups ambientales.

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/cohortsim/internal/domain"
)

// Model expone el par de funciones que consume el simulador.
// CumulativeEventRate debe ser no decreciente en t y ambas funciones deben
// devolver valores en [0,1]; el simulador rechaza valores fuera de rango.
type Model interface {
	// PeriodEventRate devuelve P(evento en el periodo t | sin evento antes de t).
	PeriodEventRate(t int) float64
	// CumulativeEventRate devuelve F(t): P(evento ocurrido para el periodo t).
	CumulativeEventRate(t int) float64
}

// Weibull es la familia de referencia de dos parámetros (shape k, scale λ):
// F(t) = 1 − exp(−(t/λ)^k).
type Weibull struct {
	shape float64
	scale float64
}

// NewWeibull valida los parámetros (ambos estrictamente positivos).
func NewWeibull(shape, scale float64) (Weibull, error) {
	if shape <= 0 || math.IsNaN(shape) {
		return Weibull{}, fmt.Errorf("hazard.NewWeibull: %w", domain.NewParamError("shape", shape))
	}
	if scale <= 0 || math.IsNaN(scale) {
		return Weibull{}, fmt.Errorf("hazard.NewWeibull: %w", domain.NewParamError("scale", scale))
	}
	return Weibull{shape: shape, scale: scale}, nil
}

// CumulativeEventRate implementa F(t) = 1 − exp(−(t/λ)^k). F(t) = 0 para t <= 0.
func (w Weibull) CumulativeEventRate(t int) float64 {
	if t <= 0 {
		return 0
	}
	return 1 - math.Exp(-math.Pow(float64(t)/w.scale, w.shape))
}

// PeriodEventRate devuelve la probabilidad condicional del periodo t.
// En el caso límite F(t−1) = 1 (la CDF ya saturó en precisión float64) la
// condicional es 1: el evento es seguro para quien llegó hasta ahí.
func (w Weibull) PeriodEventRate(t int) float64 {
	prev := w.CumulativeEventRate(t - 1)
	denom := 1 - prev
	if denom <= 0 {
		return 1
	}
	return (w.CumulativeEventRate(t) - prev) / denom
}

// Survival devuelve 1 − F(t), la curva analítica contra la que se valida la
// estimación no paramétrica.
func (w Weibull) Survival(t int) float64 {
	return 1 - w.CumulativeEventRate(t)
}

// String identifica la familia y sus parámetros en logs y persistencia.
func (w Weibull) String() string {
	return fmt.Sprintf("weibull(k=%.2f, λ=%.1f)", w.shape, w.scale)
}
