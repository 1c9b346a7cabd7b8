package report

// console.go — el reporte de comparación en consola: curva producto-límite
// estimada frente a la supervivencia analítica del hazard generador.
//
// Dos modos, como el resto del tooling: compacto (una línea de resumen) y
// tabla completa con un escalón por fila.

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/cohortsim/internal/domain"
)

// Console implementa ports.Reporter.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un reporter que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un reporter para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Report imprime el run en el modo configurado.
func (c *Console) Report(_ context.Context, run domain.Run, ref func(t int) float64) error {
	if len(run.Curve.Points) == 0 {
		fmt.Fprintf(c.out, "[%s] empty curve — nothing to report\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printFull(run, ref)
	} else {
		c.printCompact(run, ref)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(run domain.Run, ref func(t int) float64) {
	now := time.Now().Format("15:04:05")
	last := run.Curve.Points[len(run.Curve.Points)-1]

	fmt.Fprintf(c.out, "[%s] n=%d events=%d censored=%d | KM tail S(%d)=%.4f | max dev=%.4f | CI coverage=%.1f%%\n",
		now, run.N, run.Events, run.Censored,
		last.Time, last.Survival,
		run.Curve.MaxDeviation(ref),
		run.Curve.CICoverage(ref)*100,
	)
}

// printFull imprime la tabla completa, escalón por escalón.
func (c *Console) printFull(run domain.Run, ref func(t int) float64) {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] run %s — %s, n=%d, seed=%d\n",
		now, run.ID, run.Hazard, run.N, run.Seed)

	ciLabel := fmt.Sprintf("%.0f%% CI", run.Confidence*100)

	table := tablewriter.NewWriter(c.out)
	table.Header("t", "At risk", "Events", "S(t)", "Std err", ciLabel, "Analytic", "Dev")

	for _, p := range run.Curve.Points {
		analytic := ref(p.Time)
		table.Append(
			fmt.Sprintf("%d", p.Time),
			fmt.Sprintf("%d", p.AtRisk),
			fmt.Sprintf("%d", p.Events),
			fmt.Sprintf("%.4f", p.Survival),
			fmt.Sprintf("%.4f", p.StdErr),
			fmt.Sprintf("[%.4f, %.4f]", p.CILower, p.CIUpper),
			fmt.Sprintf("%.4f", analytic),
			fmt.Sprintf("%+.4f", p.Survival-analytic),
		)
	}

	table.Render()

	fmt.Fprintf(c.out, "  S(t) = Kaplan–Meier | Analytic = 1 − F(t) del hazard generador\n")
	fmt.Fprintf(c.out, "  max dev=%.4f | CI coverage=%.1f%% | events=%d censored=%d\n\n",
		run.Curve.MaxDeviation(ref),
		run.Curve.CICoverage(ref)*100,
		run.Events, run.Censored,
	)
}
