package domain

// curve.go — la curva de supervivencia escalonada que produce el estimador.
//
// La curva se construye una vez a partir de un Sample finalizado y es
// inmutable después: los consumidores (reporter, storage) solo la leen.

import "math"

// CurvePoint es un registro de la función de supervivencia en un tiempo de
// evento distinto del sample. El primer punto de toda curva es el implícito
// (0, N, 0, 1, 0, 1, 1).
type CurvePoint struct {
	Time     int     // tiempo (relativo al inicio de cada deal)
	AtRisk   int     // n_j: deals con duration >= Time
	Events   int     // d_j: eventos exactamente en Time
	Survival float64 // S(t_j), producto corrido
	StdErr   float64 // sqrt(varianza de Greenwood)
	CILower  float64 // S - z·SE, clampeado a [0,1]
	CIUpper  float64 // S + z·SE, clampeado a [0,1]
}

// SurvivalCurve es la estimación producto-límite (Kaplan–Meier) completa.
type SurvivalCurve struct {
	N      int          // tamaño de la cohorte estimada
	Points []CurvePoint // ascendente por Time; Points[0] es el punto implícito t=0
}

// At devuelve S(t): el valor del escalón vigente en el tiempo t.
// Para t anterior al primer punto devuelve 1.
func (c SurvivalCurve) At(t int) float64 {
	s := 1.0
	for _, p := range c.Points {
		if p.Time > t {
			break
		}
		s = p.Survival
	}
	return s
}

// MaxDeviation devuelve la desviación máxima puntual |S(t) − ref(t)|,
// evaluada en los tiempos de evento de la curva contra la supervivencia de
// referencia ref (típicamente la analítica 1 − F(t) del hazard generador).
func (c SurvivalCurve) MaxDeviation(ref func(t int) float64) float64 {
	maxDev := 0.0
	for _, p := range c.Points {
		dev := math.Abs(p.Survival - ref(p.Time))
		if dev > maxDev {
			maxDev = dev
		}
	}
	return maxDev
}

// CICoverage devuelve la fracción de puntos (excluyendo el implícito t=0)
// cuyo intervalo de confianza contiene ref(t). Devuelve 1 si la curva no
// tiene escalones.
func (c SurvivalCurve) CICoverage(ref func(t int) float64) float64 {
	total, covered := 0, 0
	for _, p := range c.Points {
		if p.Time == 0 {
			continue
		}
		total++
		if r := ref(p.Time); p.CILower <= r && r <= p.CIUpper {
			covered++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(covered) / float64(total)
}
