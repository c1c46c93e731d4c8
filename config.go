// TOML configuration for the search engine and registry.
package words

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// duration wraps time.Duration so TOML values like "30s" decode directly.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// EngineConfig tunes the cascade.
type EngineConfig struct {
	// MaxResults is the default result cap when a request does not set one.
	MaxResults int `toml:"max_results"`

	// MinScore drops results scoring below it.
	MinScore float64 `toml:"min_score"`

	// GateThreshold is the score a fuzzy result must reach to count as
	// high quality when deciding whether semantic search is worth running.
	GateThreshold float64 `toml:"gate_threshold"`

	// GateFraction divides MaxResults to get the high-quality result count
	// that satisfies the gate.
	GateFraction int `toml:"gate_fraction"`

	// EmbedTimeout bounds query embedding; on expiry the engine falls back
	// to the non-semantic results it already has.
	EmbedTimeout duration `toml:"embed_timeout"`
}

// RegistryConfig tunes corpus loading and hot reload.
type RegistryConfig struct {
	// DataDir holds one <language>.txt vocabulary file per language.
	DataDir string `toml:"data_dir"`

	// ArtifactDir caches embedding artifacts between restarts. Empty
	// disables the cache.
	ArtifactDir string `toml:"artifact_dir"`

	// Languages to load. Empty means every vocabulary file in DataDir.
	Languages []string `toml:"languages"`

	// PollInterval is how often the registry checks vocabularies for
	// changes. Zero disables polling.
	PollInterval duration `toml:"poll_interval"`
}

// Config is the full application configuration.
type Config struct {
	LogLevel string         `toml:"log_level"`
	Engine   EngineConfig   `toml:"engine"`
	Registry RegistryConfig `toml:"registry"`
	Embedder EmbedderConfig `toml:"embedder"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Engine: EngineConfig{
			MaxResults:    10,
			MinScore:      0.0,
			GateThreshold: 0.7,
			GateFraction:  3,
			EmbedTimeout:  duration{5 * time.Second},
		},
		Registry: RegistryConfig{
			DataDir:      "data",
			PollInterval: duration{30 * time.Second},
		},
	}
}

// LoadConfig reads a TOML file over the defaults. An empty path returns the
// defaults untouched.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("loading config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Engine.MaxResults <= 0:
		return fmt.Errorf("engine.max_results must be positive, got %d", c.Engine.MaxResults)
	case c.Engine.MinScore < 0 || c.Engine.MinScore > 1:
		return fmt.Errorf("engine.min_score must be in [0, 1], got %g", c.Engine.MinScore)
	case c.Engine.GateThreshold < 0 || c.Engine.GateThreshold > 1:
		return fmt.Errorf("engine.gate_threshold must be in [0, 1], got %g", c.Engine.GateThreshold)
	case c.Engine.GateFraction <= 0:
		return fmt.Errorf("engine.gate_fraction must be positive, got %d", c.Engine.GateFraction)
	case c.Engine.EmbedTimeout.Duration < 0:
		return fmt.Errorf("engine.embed_timeout must not be negative")
	case c.Registry.PollInterval.Duration < 0:
		return fmt.Errorf("registry.poll_interval must not be negative")
	}
	return nil
}
