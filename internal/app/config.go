// Package app wires every component package into a single explicit
// Container built once at process start (spec.md §9 Design Notes:
// "module-level singletons ... make the core an explicit container").
//
// Grounded on the teacher's cmd/worldsim/main.go wiring sequence
// (open DB -> build engine/simulation -> build API server) and its
// literal-constant-plus-os.Getenv config style; generalized from
// inline main() locals into a reusable Config/Container pair so tests
// can build a fresh Container per test.
package app

import (
	"os"
	"strconv"
)

// Config holds every environment-overridable deployment setting,
// following the teacher's main.go pattern of hardcoded defaults
// overridable via os.Getenv rather than a config-file library
// (DESIGN.md records why: the teacher never reaches for viper/yaml
// for configuration, only for data).
type Config struct {
	DBPath        string
	HTTPPort      int
	AdminKey      string
	MasterSeed    int64
	TimeScale     float64 // simulated hours per autorun tick
	AnthropicKey  string
	OracleRatePerMin int
	CacheCapacity int
	CacheTTLSeconds int
	TicksPerHour  uint64
}

// DefaultConfig returns the hardcoded baseline, mirroring the
// teacher's literal seed/db-path/port constants.
func DefaultConfig() Config {
	return Config{
		DBPath:           "data/npcforge.db",
		HTTPPort:         8080,
		AdminKey:         "",
		MasterSeed:       42,
		TimeScale:        1.0, // spec.md Open Questions: unit is hours/tick; default left to config
		AnthropicKey:     "",
		OracleRatePerMin: 20,
		CacheCapacity:    5000,
		CacheTTLSeconds:  300,
		TicksPerHour:     24,
	}
}

// LoadConfig applies environment overrides on top of DefaultConfig,
// matching the teacher's main.go: os.Getenv checked individually per
// field, falling back to the hardcoded default when unset or
// unparsable.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("NPCFORGE_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("NPCFORGE_HTTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HTTPPort = n
		}
	}
	cfg.AdminKey = os.Getenv("NPCFORGE_ADMIN_KEY")
	cfg.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	if v := os.Getenv("NPCFORGE_MASTER_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MasterSeed = n
		}
	}
	if v := os.Getenv("NPCFORGE_TIME_SCALE"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.TimeScale = n
		}
	}
	if v := os.Getenv("NPCFORGE_ORACLE_RATE_PER_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.OracleRatePerMin = n
		}
	}
	if v := os.Getenv("NPCFORGE_TICKS_PER_HOUR"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.TicksPerHour = n
		}
	}
	return cfg
}
