package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del simulador.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Hazard     HazardConfig     `yaml:"hazard"`
	Estimator  EstimatorConfig  `yaml:"estimator"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
}

// SimulationConfig controla la generación de la cohorte.
type SimulationConfig struct {
	N               int   `yaml:"n"`                // tamaño de la cohorte
	EndPeriod       int   `yaml:"end_period"`       // último periodo de originación
	HorizonPeriod   int   `yaml:"horizon_period"`   // cutoff de observación (>= end_period)
	MinimumDuration int   `yaml:"minimum_duration"` // separación mínima inicio→madurez
	Replications    int   `yaml:"replications"`     // réplicas Monte Carlo (1 = run único)
	Workers         int   `yaml:"workers"`          // goroutines del batch (0 = NumCPU)
	Seed            int64 `yaml:"seed"`             // seed base para reproducibilidad
}

// HazardConfig contiene los parámetros de la familia Weibull de referencia.
type HazardConfig struct {
	Shape float64 `yaml:"shape"` // k
	Scale float64 `yaml:"scale"` // λ, en periodos
}

// EstimatorConfig controla los intervalos de confianza del estimador.
type EstimatorConfig struct {
	ConfidenceLevel float64 `yaml:"confidence_level"` // (0,1); default 0.95
}

// StorageConfig controla dónde se persisten los runs.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Los valores del .env sobreescriben los del YAML para las keys que
// correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Default devuelve la configuración con todos los defaults aplicados,
// para ejecutar sin archivo YAML.
func Default() *Config {
	cfg := &Config{}
	applyEnvOverrides(cfg)
	setDefaults(cfg)
	return cfg
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("COHORTSIM_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("COHORTSIM_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Simulation.Seed = seed
		}
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Simulation.N <= 0 {
		cfg.Simulation.N = 1000
	}
	if cfg.Simulation.EndPeriod <= 0 {
		cfg.Simulation.EndPeriod = 200
	}
	if cfg.Simulation.HorizonPeriod <= 0 {
		cfg.Simulation.HorizonPeriod = cfg.Simulation.EndPeriod
	}
	if cfg.Simulation.MinimumDuration < 0 {
		cfg.Simulation.MinimumDuration = 0
	}
	if cfg.Simulation.Replications <= 0 {
		cfg.Simulation.Replications = 1
	}
	if cfg.Simulation.Seed == 0 {
		cfg.Simulation.Seed = 42
	}
	if cfg.Hazard.Shape <= 0 {
		cfg.Hazard.Shape = 1.5
	}
	if cfg.Hazard.Scale <= 0 {
		cfg.Hazard.Scale = 120
	}
	if cfg.Estimator.ConfidenceLevel <= 0 || cfg.Estimator.ConfidenceLevel >= 1 {
		cfg.Estimator.ConfidenceLevel = 0.95
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "cohortsim.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
