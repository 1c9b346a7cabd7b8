package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/cohortsim/internal/domain"
)

// Storage persiste los resultados de cada run de simulación.
type Storage interface {
	// SaveRun persiste el run completo, puntos de curva incluidos.
	SaveRun(ctx context.Context, run domain.Run) error

	// GetRun devuelve el run con el ID dado, puntos de curva incluidos.
	GetRun(ctx context.Context, id string) (domain.Run, error)

	// History devuelve los resúmenes de runs del rango dado, más recientes
	// primero. Por peso, los resúmenes NO incluyen los puntos de curva.
	History(ctx context.Context, from, to time.Time) ([]domain.Run, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
