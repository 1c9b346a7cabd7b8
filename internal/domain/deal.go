package domain

// deal.go — el modelo de una entidad ("deal") bajo observación.
//
// Cada deal es una máquina de estados explícita {at-risk, event, censored}:
// el pase forward del simulador solo actualiza deals en estado at-risk y, una
// vez fijado el periodo del evento, nunca lo sobreescribe (el primer periodo
// que califica gana). La salida censurada cubre tanto madurez sin evento
// como el corte por horizonte de observación.

// State es el estado de observación de un deal.
type State int

const (
	// StateAtRisk: el deal sigue bajo observación, expuesto al hazard.
	StateAtRisk State = iota
	// StateEvent: el evento ocurrió estrictamente antes de madurez y horizonte.
	StateEvent
	// StateCensored: la observación terminó sin evento (madurez u horizonte).
	StateCensored
)

// String devuelve el nombre legible del estado.
func (s State) String() string {
	switch s {
	case StateAtRisk:
		return "at-risk"
	case StateEvent:
		return "event"
	case StateCensored:
		return "censored"
	default:
		return "unknown"
	}
}

// Deal es una entidad simulada de la cohorte.
type Deal struct {
	ID             int // 1..N, orden de inserción estable
	StartPeriod    int // periodo de originación, uniforme en [1, end_period]
	MaturityPeriod int // madurez nominal: siempre > StartPeriod
	HorizonPeriod  int // cutoff de observación, compartido por toda la cohorte
	EventPeriod    int // periodo absoluto del evento; 0 = sin evento
	Duration       int // tiempo observado, relativo a StartPeriod
	State          State
}

// Censored devuelve true si la observación terminó sin evento.
func (d Deal) Censored() bool { return d.State != StateEvent }

// Observation proyecta el deal al par (duration, censored) que consume el
// estimador.
func (d Deal) Observation() Observation {
	return Observation{Duration: d.Duration, Censored: d.Censored()}
}

// Observation es el par (duración, indicador de censura) de un deal.
type Observation struct {
	Duration int
	Censored bool
}

// Sample es la colección ordenada de observaciones de una cohorte.
// Es el ÚNICO input del estimador: es agnóstico a cómo se generaron las
// duraciones y la censura.
type Sample []Observation

// Events cuenta las observaciones no censuradas.
func (s Sample) Events() int {
	n := 0
	for _, o := range s {
		if !o.Censored {
			n++
		}
	}
	return n
}

// CensoredCount cuenta las observaciones censuradas.
func (s Sample) CensoredCount() int { return len(s) - s.Events() }

// Cohort es el conjunto de deals finalizados de una simulación, en orden de ID.
type Cohort []Deal

// Sample proyecta la cohorte a los pares (duration, censored) en orden de ID.
func (c Cohort) Sample() Sample {
	sample := make(Sample, len(c))
	for i, d := range c {
		sample[i] = d.Observation()
	}
	return sample
}

// Events cuenta los deals cuyo evento ocurrió dentro de la ventana observada.
func (c Cohort) Events() int {
	n := 0
	for _, d := range c {
		if d.State == StateEvent {
			n++
		}
	}
	return n
}
