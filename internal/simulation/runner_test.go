package simulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/cohortsim/internal/domain"
	"github.com/alejandrodnm/cohortsim/internal/hazard"
	"github.com/alejandrodnm/cohortsim/internal/survival"
)

type mockStorage struct {
	saved []domain.Run
	err   error
}

func (m *mockStorage) SaveRun(_ context.Context, run domain.Run) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, run)
	return nil
}

func (m *mockStorage) GetRun(context.Context, string) (domain.Run, error) {
	return domain.Run{}, errors.New("not implemented")
}

func (m *mockStorage) History(context.Context, time.Time, time.Time) ([]domain.Run, error) {
	return nil, nil
}

func (m *mockStorage) Close() error { return nil }

type mockReporter struct {
	reported []domain.Run
	err      error
}

func (m *mockReporter) Report(_ context.Context, run domain.Run, _ func(int) float64) error {
	if m.err != nil {
		return m.err
	}
	m.reported = append(m.reported, run)
	return nil
}

func newTestRunner(t *testing.T, cfg Config, store *mockStorage, rep *mockReporter) *Runner {
	t.Helper()
	w, err := hazard.NewWeibull(1.5, 60)
	require.NoError(t, err)
	sim, err := New(cfg)
	require.NoError(t, err)
	est, err := survival.New(0.95)
	require.NoError(t, err)

	// Los nil tipados no sirven como "sin port": el runner compara la
	// interfaz contra nil.
	if store == nil && rep == nil {
		return NewRunner(sim, est, w, nil, nil)
	}
	return NewRunner(sim, est, w, store, rep)
}

func TestRunOnce_PopulatesRun(t *testing.T) {
	store := &mockStorage{}
	rep := &mockReporter{}
	runner := newTestRunner(t, Config{N: 300, EndPeriod: 80, HorizonPeriod: 80, MinimumDuration: 5}, store, rep)

	run, err := runner.RunOnce(context.Background(), 17)
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, int64(17), run.Seed)
	assert.Equal(t, 300, run.N)
	assert.Equal(t, 80, run.EndPeriod)
	assert.Equal(t, run.N, run.Events+run.Censored)
	assert.Contains(t, run.Hazard, "weibull")
	assert.Equal(t, 0.95, run.Confidence)
	assert.NotEmpty(t, run.Curve.Points)
	assert.GreaterOrEqual(t, run.MaxDeviation, 0.0)
	assert.LessOrEqual(t, run.MaxDeviation, 1.0)

	require.Len(t, store.saved, 1)
	require.Len(t, rep.reported, 1)
	assert.Equal(t, run.ID, store.saved[0].ID)
	assert.Equal(t, run.ID, rep.reported[0].ID)
}

func TestRunOnce_PortErrorsAreNonFatal(t *testing.T) {
	// Un fallo del storage o del reporter degrada a warning: el resultado ya
	// computado se devuelve igualmente.
	store := &mockStorage{err: errors.New("disk full")}
	rep := &mockReporter{err: errors.New("broken pipe")}
	runner := newTestRunner(t, Config{N: 50, EndPeriod: 30, HorizonPeriod: 30}, store, rep)

	run, err := runner.RunOnce(context.Background(), 3)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
}

func TestRunOnce_EmptyCohortFails(t *testing.T) {
	runner := newTestRunner(t, Config{N: 0, EndPeriod: 10, HorizonPeriod: 10}, nil, nil)

	_, err := runner.RunOnce(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmptySample))
}

func TestRunOnce_Reproducible(t *testing.T) {
	runner := newTestRunner(t, Config{N: 400, EndPeriod: 100, HorizonPeriod: 100, MinimumDuration: 10}, nil, nil)

	first, err := runner.RunOnce(context.Background(), 23)
	require.NoError(t, err)
	second, err := runner.RunOnce(context.Background(), 23)
	require.NoError(t, err)

	// El ID y el timestamp difieren; la curva y los conteos no.
	assert.Equal(t, first.Curve, second.Curve)
	assert.Equal(t, first.Events, second.Events)
	assert.Equal(t, first.MaxDeviation, second.MaxDeviation)
}

func TestRunCycle_ConvergesToAnalyticCurve(t *testing.T) {
	// Con n grande y censura lejos de la ventana de eventos, la curva
	// producto-límite converge a la supervivencia analítica 1 − F(t): el
	// horizonte enorme y minimum_duration=100 dejan los primeros 50 periodos
	// sin censura, donde la estimación es puramente binomial.
	w, err := hazard.NewWeibull(1, 30)
	require.NoError(t, err)
	sim, err := New(Config{N: 10000, EndPeriod: 50, HorizonPeriod: 10000, MinimumDuration: 100})
	require.NoError(t, err)
	est, err := survival.New(0.95)
	require.NoError(t, err)
	runner := NewRunner(sim, est, w, nil, nil)

	run, err := runner.runCycle(context.Background(), 20240101)
	require.NoError(t, err)

	assert.Less(t, run.MaxDeviation, 0.025,
		"KM curve should converge to the analytic survival for n=10000")
	assert.Greater(t, run.Curve.CICoverage(w.Survival), 0.8,
		"most pointwise CIs should cover the analytic curve")
}
