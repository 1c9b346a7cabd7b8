package simulation

// replicate.go — réplicas Monte Carlo independientes sobre un worker pool.
//
// Dentro de una réplica todo es secuencial (el pase por periodos depende del
// risk set actualizado y de un orden de draws fijo); el paralelismo va un
// nivel arriba: réplicas independientes, cada una con su rng derivado de
// baseSeed + index, así el batch entero es reproducible.

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/alejandrodnm/cohortsim/internal/domain"
)

// Replication es el resumen de una réplica del batch.
type Replication struct {
	Index         int
	Seed          int64
	Events        int
	Censored      int
	MaxDeviation  float64 // max |S(t) − analítica| de esta réplica
	EventFraction float64
}

// BatchResult agrega las réplicas de un batch Monte Carlo.
type BatchResult struct {
	Replications  []Replication // ordenadas por Index
	MeanDeviation float64       // media de MaxDeviation sobre las réplicas
	MaxDeviation  float64       // peor MaxDeviation del batch
	MeanEventRate float64       // fracción media de deals con evento
}

// Replicate ejecuta reps ciclos simulate+estimate independientes en paralelo.
// workers <= 0 usa runtime.NumCPU(). Con progress activo muestra una barra
// sobre las réplicas completadas. Las réplicas fallidas se loguean y se
// omiten; si fallan todas, el batch entero es un error.
func (r *Runner) Replicate(ctx context.Context, baseSeed int64, reps, workers int, progress bool) (BatchResult, error) {
	if reps < 1 {
		return BatchResult{}, fmt.Errorf("simulation.Replicate: %w", domain.NewParamError("replications", reps))
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > reps {
		workers = reps
	}

	workCh := make(chan int, reps)
	resultCh := make(chan Replication, reps)

	// Worker pool: cada worker toma índices de réplica de workCh y publica
	// resúmenes en resultCh. El Run completo de cada réplica se descarta:
	// en modo batch solo interesa el agregado.
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workCh {
				seed := baseSeed + int64(idx)
				run, err := r.runCycle(ctx, seed)
				if err != nil {
					slog.Warn("replication failed",
						"index", idx,
						"seed", seed,
						"err", err,
					)
					continue
				}
				resultCh <- Replication{
					Index:         idx,
					Seed:          seed,
					Events:        run.Events,
					Censored:      run.Censored,
					MaxDeviation:  run.MaxDeviation,
					EventFraction: run.EventFraction(),
				}
			}
		}()
	}

	for i := 0; i < reps; i++ {
		workCh <- i
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var bar *progressbar.ProgressBar
	if progress {
		bar = progressbar.Default(int64(reps))
	}

	result := BatchResult{Replications: make([]Replication, 0, reps)}
	for rep := range resultCh {
		result.Replications = append(result.Replications, rep)
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if len(result.Replications) == 0 {
		return BatchResult{}, fmt.Errorf("simulation.Replicate: all %d replications failed", reps)
	}

	sort.Slice(result.Replications, func(i, j int) bool {
		return result.Replications[i].Index < result.Replications[j].Index
	})

	for _, rep := range result.Replications {
		result.MeanDeviation += rep.MaxDeviation
		result.MeanEventRate += rep.EventFraction
		if rep.MaxDeviation > result.MaxDeviation {
			result.MaxDeviation = rep.MaxDeviation
		}
	}
	n := float64(len(result.Replications))
	result.MeanDeviation /= n
	result.MeanEventRate /= n

	slog.Info("replication batch complete",
		"replications", len(result.Replications),
		"requested", reps,
		"workers", workers,
		"mean_deviation", fmt.Sprintf("%.4f", result.MeanDeviation),
		"max_deviation", fmt.Sprintf("%.4f", result.MaxDeviation),
	)
	return result, nil
}
