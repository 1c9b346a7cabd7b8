package simulation

// runner.go — orquestador del ciclo simulate → estimate → report → persist.
//
// Misma forma que un ciclo de scan: los ports (storage, reporter) se inyectan
// desde cmd/ y son opcionales; sus errores degradan a warning para no tirar
// un resultado ya computado.

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/cohortsim/internal/domain"
	"github.com/alejandrodnm/cohortsim/internal/hazard"
	"github.com/alejandrodnm/cohortsim/internal/ports"
	"github.com/alejandrodnm/cohortsim/internal/survival"
)

// Runner encadena simulador y estimador sobre un hazard fijo.
type Runner struct {
	sim      *Simulator
	est      survival.Estimator
	hazard   hazard.Model
	storage  ports.Storage
	reporter ports.Reporter
}

// NewRunner crea un Runner con todas las dependencias inyectadas.
// storage y reporter pueden ser nil (modo sin persistencia / silencioso).
func NewRunner(
	sim *Simulator,
	est survival.Estimator,
	h hazard.Model,
	storage ports.Storage,
	reporter ports.Reporter,
) *Runner {
	return &Runner{
		sim:      sim,
		est:      est,
		hazard:   h,
		storage:  storage,
		reporter: reporter,
	}
}

// RunOnce ejecuta exactamente un ciclo con el seed dado y devuelve el Run.
func (r *Runner) RunOnce(ctx context.Context, seed int64) (domain.Run, error) {
	start := time.Now()

	run, err := r.runCycle(ctx, seed)
	if err != nil {
		return domain.Run{}, err
	}

	if r.reporter != nil {
		if err := r.reporter.Report(ctx, run, r.refSurvival); err != nil {
			slog.Warn("reporter error", "err", err)
		}
	}
	if r.storage != nil {
		if err := r.storage.SaveRun(ctx, run); err != nil {
			slog.Warn("storage error", "err", err)
		}
	}

	slog.Info("run complete",
		"run_id", run.ID,
		"n", run.N,
		"events", run.Events,
		"censored", run.Censored,
		"max_deviation", fmt.Sprintf("%.4f", run.MaxDeviation),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return run, nil
}

// runCycle hace simulate → estimate y arma el Run, sin tocar los ports.
func (r *Runner) runCycle(ctx context.Context, seed int64) (domain.Run, error) {
	rng := rand.New(rand.NewSource(seed))

	cohort, err := r.sim.Simulate(ctx, r.hazard, rng)
	if err != nil {
		return domain.Run{}, fmt.Errorf("simulation.runCycle: simulate: %w", err)
	}

	sample := cohort.Sample()
	curve, err := r.est.Estimate(sample)
	if err != nil {
		return domain.Run{}, fmt.Errorf("simulation.runCycle: estimate: %w", err)
	}

	cfg := r.sim.Config()
	return domain.Run{
		ID:              uuid.New().String(),
		CreatedAt:       time.Now().UTC(),
		Seed:            seed,
		N:               cfg.N,
		EndPeriod:       cfg.EndPeriod,
		HorizonPeriod:   cfg.HorizonPeriod,
		MinimumDuration: cfg.MinimumDuration,
		Hazard:          fmt.Sprint(r.hazard),
		Confidence:      r.est.Confidence(),
		Events:          sample.Events(),
		Censored:        sample.CensoredCount(),
		MaxDeviation:    curve.MaxDeviation(r.refSurvival),
		Curve:           curve,
	}, nil
}

// refSurvival es la supervivencia analítica 1 − F(t) del hazard generador.
func (r *Runner) refSurvival(t int) float64 {
	return 1 - r.hazard.CumulativeEventRate(t)
}
