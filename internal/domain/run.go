package domain

import "time"

// Run es el resultado completo de un ciclo simulate → estimate.
// Es lo que se persiste y lo que consume el reporter.
type Run struct {
	ID        string
	CreatedAt time.Time
	Seed      int64

	// --- Parámetros de la simulación ---
	N               int
	EndPeriod       int
	HorizonPeriod   int
	MinimumDuration int
	Hazard          string  // descripción de la familia, p.ej. "weibull(k=1.50, λ=60.0)"
	Confidence      float64 // nivel de confianza de los intervalos

	// --- Resultado ---
	Events       int     // deals con evento dentro de la ventana
	Censored     int     // deals censurados (madurez u horizonte)
	MaxDeviation float64 // max |S(t) − analítica| sobre los tiempos de evento
	Curve        SurvivalCurve
}

// EventFraction devuelve la fracción de deals con evento observado.
func (r Run) EventFraction() float64 {
	if r.N == 0 {
		return 0
	}
	return float64(r.Events) / float64(r.N)
}
