package ports

import (
	"context"

	"github.com/alejandrodnm/cohortsim/internal/domain"
)

// Reporter presenta un run al usuario, contrastando la curva estimada con la
// supervivencia analítica de referencia ref(t) = 1 − F(t) del hazard generador.
type Reporter interface {
	// Report muestra la curva del run frente a ref.
	// En la implementación de consola, imprime una tabla formateada.
	Report(ctx context.Context, run domain.Run, ref func(t int) float64) error
}
