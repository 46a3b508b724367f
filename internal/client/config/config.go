// Package config handles configuration for the CLI client. Sources are
// applied in order of increasing precedence: built-in defaults, an optional
// JSON file (-c/-config), and command-line flags.
package config

// Config holds runtime settings for the PlanHub CLI.
//
// Fields:
//   - ServerAddr: base URL of the PlanHub API (e.g. "http://localhost:8080").
//   - DataDirName: name of the per-user data directory holding local state.
type Config struct {
	ServerAddr  string
	DataDirName string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerAddr = "http://localhost:8080"
	c.DataDirName = "planhub"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
