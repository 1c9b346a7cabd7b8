package simulation

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/cohortsim/internal/domain"
	"github.com/alejandrodnm/cohortsim/internal/hazard"
)

// constHazard es un hazard trivial para tests: rate fijo por periodo.
type constHazard struct{ rate float64 }

func (h constHazard) PeriodEventRate(int) float64 { return h.rate }

func (h constHazard) CumulativeEventRate(t int) float64 {
	if t <= 0 {
		return 0
	}
	return 1 - math.Pow(1-h.rate, float64(t))
}

func testConfig() Config {
	return Config{N: 1000, EndPeriod: 200, HorizonPeriod: 200, MinimumDuration: 30}
}

// --- Validación de parámetros ---

func TestNew_InvalidEndPeriod(t *testing.T) {
	_, err := New(Config{N: 10, EndPeriod: 0, HorizonPeriod: 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidParameter))
}

func TestNew_NegativeN(t *testing.T) {
	_, err := New(Config{N: -1, EndPeriod: 10, HorizonPeriod: 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidParameter))
}

func TestNew_NegativeMinimumDuration(t *testing.T) {
	_, err := New(Config{N: 10, EndPeriod: 10, HorizonPeriod: 10, MinimumDuration: -1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidParameter))
}

func TestNew_HorizonBeforeEndCorrected(t *testing.T) {
	// horizon < end_period no es fatal: se corrige a end_period con warning.
	sim, err := New(Config{N: 10, EndPeriod: 100, HorizonPeriod: 50})
	require.NoError(t, err)
	assert.Equal(t, 100, sim.Config().HorizonPeriod)
}

// --- Simulación ---

func TestSimulate_Deterministic(t *testing.T) {
	// Mismo seed → mismo Sample, entidad por entidad.
	w, err := hazard.NewWeibull(1.5, 120)
	require.NoError(t, err)
	sim, err := New(testConfig())
	require.NoError(t, err)

	first, err := sim.Simulate(context.Background(), w, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	second, err := sim.Simulate(context.Background(), w, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	assert.Equal(t, first.Sample(), second.Sample())
	assert.Equal(t, first, second)
}

func TestSimulate_Invariants(t *testing.T) {
	w, _ := hazard.NewWeibull(1.2, 60)
	cfg := testConfig()
	sim, _ := New(cfg)

	cohort, err := sim.Simulate(context.Background(), w, rand.New(rand.NewSource(99)))
	require.NoError(t, err)
	require.Len(t, cohort, cfg.N)

	for i, d := range cohort {
		assert.Equal(t, i+1, d.ID, "IDs follow insertion order")
		assert.GreaterOrEqual(t, d.StartPeriod, 1)
		assert.LessOrEqual(t, d.StartPeriod, cfg.EndPeriod)
		assert.GreaterOrEqual(t, d.MaturityPeriod, d.StartPeriod+1+cfg.MinimumDuration)
		assert.Equal(t, cfg.HorizonPeriod, d.HorizonPeriod)

		limit := min(d.MaturityPeriod, d.HorizonPeriod) - d.StartPeriod
		switch d.State {
		case domain.StateEvent:
			// censored=false ⇒ event_period − start_period = duration, y el
			// evento ocurre estrictamente antes de madurez y horizonte.
			assert.Equal(t, d.Duration, d.EventPeriod-d.StartPeriod)
			assert.Less(t, d.Duration, limit)
			assert.GreaterOrEqual(t, d.Duration, 1)
		case domain.StateCensored:
			assert.Equal(t, limit, d.Duration)
			assert.Zero(t, d.EventPeriod, "event period never set on censored deals")
		default:
			t.Fatalf("deal %d left in state %s", d.ID, d.State)
		}
	}
}

func TestSimulate_ZeroN(t *testing.T) {
	sim, _ := New(Config{N: 0, EndPeriod: 10, HorizonPeriod: 10})
	cohort, err := sim.Simulate(context.Background(), constHazard{rate: 0.5}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Empty(t, cohort)
}

func TestSimulate_ZeroHazardCensorsEverything(t *testing.T) {
	sim, _ := New(Config{N: 50, EndPeriod: 20, HorizonPeriod: 40, MinimumDuration: 2})
	cohort, err := sim.Simulate(context.Background(), constHazard{rate: 0}, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	for _, d := range cohort {
		assert.Equal(t, domain.StateCensored, d.State)
	}
	assert.Equal(t, 0, cohort.Events())
}

func TestSimulate_CertainHazardEventsAtFirstPeriod(t *testing.T) {
	// rate=1: todo deal con cap > 1 tiene el evento exactamente en t=1; los
	// deals con cap <= 1 nunca reciben draw y salen censurados.
	sim, _ := New(Config{N: 50, EndPeriod: 20, HorizonPeriod: 20})
	cohort, err := sim.Simulate(context.Background(), constHazard{rate: 1}, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	for _, d := range cohort {
		limit := min(d.MaturityPeriod, d.HorizonPeriod) - d.StartPeriod
		if limit > 1 {
			assert.Equal(t, domain.StateEvent, d.State)
			assert.Equal(t, 1, d.Duration)
		} else {
			assert.Equal(t, domain.StateCensored, d.State)
		}
	}
}

func TestSimulate_DegenerateHazardRejected(t *testing.T) {
	sim, _ := New(Config{N: 10, EndPeriod: 10, HorizonPeriod: 10})

	for _, rate := range []float64{1.5, -0.1, math.NaN()} {
		_, err := sim.Simulate(context.Background(), constHazard{rate: rate}, rand.New(rand.NewSource(1)))
		require.Error(t, err, "rate=%v", rate)
		assert.True(t, errors.Is(err, domain.ErrDegenerateHazard), "rate=%v", rate)
	}
}

func TestSimulate_NilDependencies(t *testing.T) {
	sim, _ := New(Config{N: 10, EndPeriod: 10, HorizonPeriod: 10})

	_, err := sim.Simulate(context.Background(), nil, rand.New(rand.NewSource(1)))
	assert.True(t, errors.Is(err, domain.ErrInvalidParameter))

	_, err = sim.Simulate(context.Background(), constHazard{rate: 0.1}, nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidParameter))
}

func TestSimulate_ContextCancelled(t *testing.T) {
	sim, _ := New(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Simulate(ctx, constHazard{rate: 0.1}, rand.New(rand.NewSource(1)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
