package storage

// sqlite.go — persistencia de runs en SQLite (pure Go, sin CGo).
//
// Estrategia:
//   - `runs`: una fila resumen por run (parámetros, seed, conteos, desviación).
//   - `curve_points`: los escalones de la curva, fila por (run, time).
//   - Prune automático al arrancar: runs con más de 90 días se borran junto
//     con sus puntos. El histórico sirve para comparar calibraciones, no como
//     archivo permanente.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/cohortsim/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Resumen por run de simulación
CREATE TABLE IF NOT EXISTS runs (
    id               TEXT PRIMARY KEY,
    created_at       DATETIME NOT NULL,
    seed             INTEGER  NOT NULL,
    n                INTEGER  NOT NULL,
    end_period       INTEGER  NOT NULL,
    horizon_period   INTEGER  NOT NULL,
    minimum_duration INTEGER  NOT NULL,
    hazard           TEXT     NOT NULL,
    confidence       REAL     NOT NULL,
    events           INTEGER  NOT NULL DEFAULT 0,
    censored         INTEGER  NOT NULL DEFAULT 0,
    max_deviation    REAL     NOT NULL DEFAULT 0
);

-- Escalones de la curva producto-límite, incluido el punto implícito t=0
CREATE TABLE IF NOT EXISTS curve_points (
    run_id   TEXT    NOT NULL REFERENCES runs(id),
    time     INTEGER NOT NULL,
    at_risk  INTEGER NOT NULL,
    events   INTEGER NOT NULL,
    survival REAL    NOT NULL,
    std_err  REAL    NOT NULL,
    ci_lower REAL    NOT NULL,
    ci_upper REAL    NOT NULL,
    PRIMARY KEY (run_id, time)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
`

const retentionRuns = 90 * 24 * time.Hour

// SQLiteStorage implementa ports.Storage usando SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia runs antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveRun persiste el resumen y los puntos de curva en una transacción.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run domain.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, seed, n, end_period, horizon_period,
		                  minimum_duration, hazard, confidence, events, censored, max_deviation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt, run.Seed, run.N, run.EndPeriod, run.HorizonPeriod,
		run.MinimumDuration, run.Hazard, run.Confidence, run.Events, run.Censored, run.MaxDeviation,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO curve_points (run_id, time, at_risk, events, survival, std_err, ci_lower, ci_upper)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: prepare points: %w", err)
	}
	defer stmt.Close()

	for _, p := range run.Curve.Points {
		if _, err := stmt.ExecContext(ctx, run.ID, p.Time, p.AtRisk, p.Events,
			p.Survival, p.StdErr, p.CILower, p.CIUpper); err != nil {
			return fmt.Errorf("storage.SaveRun: insert point t=%d: %w", p.Time, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return nil
}

// GetRun devuelve el run completo, puntos de curva incluidos.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (domain.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, seed, n, end_period, horizon_period,
		       minimum_duration, hazard, confidence, events, censored, max_deviation
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err != nil {
		return domain.Run{}, fmt.Errorf("storage.GetRun: run %q: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT time, at_risk, events, survival, std_err, ci_lower, ci_upper
		FROM curve_points WHERE run_id = ? ORDER BY time ASC`, id)
	if err != nil {
		return domain.Run{}, fmt.Errorf("storage.GetRun: points of %q: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.CurvePoint
		if err := rows.Scan(&p.Time, &p.AtRisk, &p.Events, &p.Survival,
			&p.StdErr, &p.CILower, &p.CIUpper); err != nil {
			return domain.Run{}, fmt.Errorf("storage.GetRun: scan point: %w", err)
		}
		run.Curve.Points = append(run.Curve.Points, p)
	}
	if err := rows.Err(); err != nil {
		return domain.Run{}, fmt.Errorf("storage.GetRun: iterate points: %w", err)
	}
	run.Curve.N = run.N

	return run, nil
}

// History devuelve los resúmenes de runs del rango [from, to], más recientes
// primero, sin puntos de curva.
func (s *SQLiteStorage) History(ctx context.Context, from, to time.Time) ([]domain.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, seed, n, end_period, horizon_period,
		       minimum_duration, hazard, confidence, events, censored, max_deviation
		FROM runs
		WHERE created_at BETWEEN ? AND ?
		ORDER BY created_at DESC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("storage.History: query: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.History: scan: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.History: iterate: %w", err)
	}
	return runs, nil
}

// Close cierra la conexión.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld borra runs (y sus puntos) más viejos que la retención.
// Best-effort: un fallo aquí no impide arrancar.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionRuns)
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM curve_points WHERE run_id IN (SELECT id FROM runs WHERE created_at < ?)`,
		cutoff); err != nil {
		return
	}
	_, _ = s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff)
}

// scanner abstrae sql.Row y sql.Rows para scanRun.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (domain.Run, error) {
	var run domain.Run
	err := row.Scan(&run.ID, &run.CreatedAt, &run.Seed, &run.N, &run.EndPeriod,
		&run.HorizonPeriod, &run.MinimumDuration, &run.Hazard, &run.Confidence,
		&run.Events, &run.Censored, &run.MaxDeviation)
	if err != nil {
		return domain.Run{}, err
	}
	run.Curve.N = run.N
	return run, nil
}
