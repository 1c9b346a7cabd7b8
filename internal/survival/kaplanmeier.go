package survival

// kaplanmeier.go — estimador producto-límite (Kaplan–Meier) con varianza de
// Greenwood e intervalos de confianza normales.
//
// El fold sobre los tiempos de evento ordenados es inherentemente secuencial:
// producto corrido S(t_j) = S(t_{j−1})·(1 − d_j/n_j) y suma corrida de
// Greenwood, ambos en un único pase lineal sobre el sample ordenado por
// duración. Las observaciones censuradas no crean escalones pero sí reducen
// el risk set al salir.

import (
	"fmt"
	"math"
	"sort"

	"github.com/alejandrodnm/cohortsim/internal/domain"
)

// Estimator construye curvas de supervivencia a partir de samples censurados.
type Estimator struct {
	z          float64
	confidence float64
}

// New crea un estimador con el nivel de confianza dado (0 < confidence < 1).
// El cuantil normal de dos colas sale de z = √2·erf⁻¹(confidence);
// 0.95 → 1.959964.
func New(confidence float64) (Estimator, error) {
	if confidence <= 0 || confidence >= 1 || math.IsNaN(confidence) {
		return Estimator{}, fmt.Errorf("survival.New: %w", domain.NewParamError("confidence", confidence))
	}
	return Estimator{
		z:          math.Sqrt2 * math.Erfinv(confidence),
		confidence: confidence,
	}, nil
}

// Z devuelve el cuantil normal usado para los intervalos.
func (e Estimator) Z() float64 { return e.z }

// Confidence devuelve el nivel de confianza configurado.
func (e Estimator) Confidence() float64 { return e.confidence }

// Estimate construye la curva producto-límite del sample.
// Garantías: S no creciente, S ∈ [0,1], S(0) = 1, y si en algún escalón
// n_j = d_j la curva cae a 0 y se queda ahí. Falla con ErrEmptySample si el
// sample no tiene entidades.
func (e Estimator) Estimate(sample domain.Sample) (domain.SurvivalCurve, error) {
	if len(sample) == 0 {
		return domain.SurvivalCurve{}, fmt.Errorf("survival.Estimate: %w", domain.ErrEmptySample)
	}

	obs := make([]domain.Observation, len(sample))
	copy(obs, sample)
	sort.Slice(obs, func(i, j int) bool { return obs[i].Duration < obs[j].Duration })

	eventTimes := distinctEventTimes(obs)

	curve := domain.SurvivalCurve{
		N:      len(sample),
		Points: make([]domain.CurvePoint, 0, len(eventTimes)+1),
	}
	curve.Points = append(curve.Points, domain.CurvePoint{
		Time: 0, AtRisk: len(sample), Survival: 1, CILower: 1, CIUpper: 1,
	})

	s := 1.0
	greenwood := 0.0
	idx := 0 // primera observación con Duration >= t (obs está ordenado)
	for _, t := range eventTimes {
		for idx < len(obs) && obs[idx].Duration < t {
			idx++
		}
		atRisk := len(obs) - idx
		if atRisk == 0 {
			// La curva ya cayó a 0: sin entidades en riesgo no hay escalón.
			continue
		}

		events := 0
		for k := idx; k < len(obs) && obs[k].Duration == t; k++ {
			if !obs[k].Censored {
				events++
			}
		}

		s *= 1 - float64(events)/float64(atRisk)
		if atRisk > events {
			greenwood += float64(events) / (float64(atRisk) * float64(atRisk-events))
		}
		// Si atRisk == events, S = 0 y su error estándar también: el término
		// de Greenwood degenera (n−d = 0) pero multiplica a S² = 0.
		stdErr := s * math.Sqrt(greenwood)

		curve.Points = append(curve.Points, domain.CurvePoint{
			Time:     t,
			AtRisk:   atRisk,
			Events:   events,
			Survival: s,
			StdErr:   stdErr,
			CILower:  clamp01(s - e.z*stdErr),
			CIUpper:  clamp01(s + e.z*stdErr),
		})
	}

	return curve, nil
}

// distinctEventTimes devuelve los tiempos con al menos un evento no censurado,
// ascendentes. obs debe venir ordenado por duración.
func distinctEventTimes(obs []domain.Observation) []int {
	var times []int
	for _, o := range obs {
		if o.Censored {
			continue
		}
		if len(times) == 0 || times[len(times)-1] != o.Duration {
			times = append(times, o.Duration)
		}
	}
	return times
}

// clamp01 recorta x al rango [0,1]. Obligatorio para los intervalos: la curva
// es una probabilidad.
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
