package simulation

// simulator.go — simulador de cohortes dirigido por hazard.
//
// Genera N deals con periodo de inicio y madurez nominal aleatorios y avanza
// periodo a periodo aplicando el hazard SOLO a los deals at-risk. El pase es
// secuencial: las decisiones de cada periodo dependen del risk set
// actualizado de los periodos anteriores, y la reproducibilidad exige un
// orden de draws fijo sobre la fuente aleatoria que siembra el caller.

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/alejandrodnm/cohortsim/internal/domain"
	"github.com/alejandrodnm/cohortsim/internal/hazard"
)

// Config contiene los parámetros del simulador.
type Config struct {
	N               int // tamaño de la cohorte
	EndPeriod       int // último periodo en el que pueden originarse deals (>= 1)
	HorizonPeriod   int // cutoff de observación (>= EndPeriod)
	MinimumDuration int // separación mínima adicional entre inicio y madurez nominal
}

// Simulator genera cohortes de deals censurados a partir de un hazard.
type Simulator struct {
	cfg Config
}

// New valida la configuración y construye el simulador.
// HorizonPeriod < EndPeriod no es fatal: se corrige a EndPeriod con un warning.
func New(cfg Config) (*Simulator, error) {
	if cfg.N < 0 {
		return nil, fmt.Errorf("simulation.New: %w", domain.NewParamError("n", cfg.N))
	}
	if cfg.EndPeriod < 1 {
		return nil, fmt.Errorf("simulation.New: %w", domain.NewParamError("end_period", cfg.EndPeriod))
	}
	if cfg.MinimumDuration < 0 {
		return nil, fmt.Errorf("simulation.New: %w", domain.NewParamError("minimum_duration", cfg.MinimumDuration))
	}
	if cfg.HorizonPeriod < cfg.EndPeriod {
		slog.Warn("horizon before end of origination window, correcting",
			"horizon_period", cfg.HorizonPeriod,
			"end_period", cfg.EndPeriod,
		)
		cfg.HorizonPeriod = cfg.EndPeriod
	}
	return &Simulator{cfg: cfg}, nil
}

// Config devuelve la configuración efectiva (con el horizonte ya corregido).
func (s *Simulator) Config() Config { return s.cfg }

// Simulate genera la cohorte completa y la devuelve finalizada, en orden de ID.
// El mismo rng sembrado produce exactamente la misma cohorte: los draws siguen
// un orden fijo (primero los N pares inicio/madurez, luego un uniform por deal
// at-risk en cada periodo ascendente).
func (s *Simulator) Simulate(ctx context.Context, h hazard.Model, rng *rand.Rand) (domain.Cohort, error) {
	if h == nil {
		return nil, fmt.Errorf("simulation.Simulate: %w", domain.NewParamError("hazard", nil))
	}
	if rng == nil {
		return nil, fmt.Errorf("simulation.Simulate: %w", domain.NewParamError("rng", nil))
	}

	cohort := make(domain.Cohort, s.cfg.N)
	for i := range cohort {
		start := 1 + rng.Intn(s.cfg.EndPeriod)
		offset := 1 + rng.Intn(s.cfg.EndPeriod)
		maturity := start + offset + s.cfg.MinimumDuration

		// Límite provisional de observación: el deal sale censurado en su
		// madurez o en el horizonte, lo que llegue antes. El horizonte es
		// >= EndPeriod >= start, así que el límite nunca es negativo.
		limit := min(maturity, s.cfg.HorizonPeriod) - start

		cohort[i] = domain.Deal{
			ID:             i + 1,
			StartPeriod:    start,
			MaturityPeriod: maturity,
			HorizonPeriod:  s.cfg.HorizonPeriod,
			Duration:       limit,
			State:          domain.StateAtRisk,
		}
	}

	// Pase forward: periodos en orden creciente, para que un evento temprano
	// nunca sea sobreescrito por uno posterior. Un deal solo recibe draw si
	// sigue at-risk y t cae estrictamente antes de su cap (t < Duration): en
	// el periodo del cap la madurez/horizonte gana y el deal sale censurado.
	for t := 1; t <= s.cfg.EndPeriod; t++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("simulation.Simulate: period %d: %w", t, err)
		}

		rate := h.PeriodEventRate(t)
		if rate < 0 || rate > 1 || math.IsNaN(rate) {
			return nil, fmt.Errorf("simulation.Simulate: rate %v at period %d: %w",
				rate, t, domain.ErrDegenerateHazard)
		}

		for i := range cohort {
			d := &cohort[i]
			if d.State != domain.StateAtRisk || t >= d.Duration {
				continue
			}
			if rng.Float64() < rate {
				d.EventPeriod = d.StartPeriod + t
				d.Duration = t
				d.State = domain.StateEvent
			}
		}
	}

	// Cierre: los deals sin evento salen como censored-exit en su cap.
	for i := range cohort {
		if cohort[i].State == domain.StateAtRisk {
			cohort[i].State = domain.StateCensored
		}
	}

	slog.Debug("cohort simulated",
		"n", len(cohort),
		"events", cohort.Events(),
		"censored", len(cohort)-cohort.Events(),
		"end_period", s.cfg.EndPeriod,
		"horizon_period", s.cfg.HorizonPeriod,
	)
	return cohort, nil
}
