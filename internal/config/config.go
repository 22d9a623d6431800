package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/reltypes/internal/imbalance"
	"github.com/danielpatrickdp/reltypes/internal/stats"
)

// #region types

// Config describes one pipeline run: where the corpus lives, which files
// are partitions, and what the artifacts are called.
type Config struct {
	BaseDir       string           `yaml:"base_dir"`
	Partitions    []string         `yaml:"partitions"`
	PartitionGlob string           `yaml:"partition_glob"`
	RelationIDs   string           `yaml:"rel2id"`
	Seeding       string           `yaml:"seeding"`
	Indent        bool             `yaml:"indent"`
	Outputs       Outputs          `yaml:"outputs"`
	Imbalance     imbalance.Config `yaml:"imbalance"`
	Store         StoreConfig      `yaml:"store"`
	Log           LogConfig        `yaml:"log"`
}

// Outputs holds artifact file names, relative to BaseDir.
type Outputs struct {
	RelationCounts  string `yaml:"rel_counter"`
	SetCounts       string `yaml:"set_counts"`
	Imbalanced      string `yaml:"imbalanced"`
	PrunedStats     string `yaml:"pruned_stats"`
	NormalizedStats string `yaml:"normalized_stats"`
	Reverse         string `yaml:"reverse"`
	Summary         string `yaml:"summary"`
	OneTypeSuffix   string `yaml:"one_type_suffix"`
}

// StoreConfig locates the optional SQLite run history. Empty Path disables it.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// #endregion types

// #region defaults

// Default returns the layout of the NYT corpus directory.
func Default() Config {
	return Config{
		BaseDir:     "../nyt",
		Partitions:  []string{"train.json", "test.json"},
		RelationIDs: "rel2id.json",
		Seeding:     string(stats.SeedLegacy),
		Outputs: Outputs{
			RelationCounts:  "rel_counter.json",
			SetCounts:       "rel_entity_type.json",
			Imbalanced:      "imba_set_count_path.json",
			PrunedStats:     "pruned_entity_stats.json",
			NormalizedStats: "one_entity_stats.json",
			Reverse:         "reverse_problem.json",
			Summary:         "summary.json",
			OneTypeSuffix:   "_one",
		},
		Imbalance: imbalance.DefaultConfig(),
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// #endregion defaults

// #region load

// Load overlays the YAML file at path on the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.BaseDir = envOr("RELTYPES_BASE_DIR", cfg.BaseDir)
	cfg.Store.Path = envOr("RELTYPES_DB", cfg.Store.Path)
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion load

// #region validate

// Validate checks the settings a run depends on.
func (c Config) Validate() error {
	var errs []error
	if c.BaseDir == "" {
		errs = append(errs, errors.New("base_dir is empty"))
	}
	if len(c.Partitions) == 0 && c.PartitionGlob == "" {
		errs = append(errs, errors.New("no partitions and no partition_glob"))
	}
	if _, err := stats.ParseSeeding(c.Seeding); err != nil {
		errs = append(errs, err)
	}
	if err := c.Imbalance.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Outputs.OneTypeSuffix == "" {
		errs = append(errs, errors.New("outputs.one_type_suffix is empty: normalized partitions would overwrite the corpus"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// #endregion validate

// #region paths

// Path resolves an artifact or input name against BaseDir.
func (c Config) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.BaseDir, name)
}

// OneTypeName maps a partition file name to its normalized counterpart:
// train.json -> train_one.json.
func (c Config) OneTypeName(partition string) string {
	base := filepath.Base(partition)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + c.Outputs.OneTypeSuffix + ext
}

// ArtifactNames returns every file name a run writes for the given
// partitions. Partition discovery skips these.
func (c Config) ArtifactNames(partitions []string) map[string]bool {
	names := map[string]bool{filepath.Base(c.RelationIDs): true}
	for _, n := range []string{
		c.Outputs.RelationCounts,
		c.Outputs.SetCounts,
		c.Outputs.Imbalanced,
		c.Outputs.PrunedStats,
		c.Outputs.NormalizedStats,
		c.Outputs.Reverse,
		c.Outputs.Summary,
	} {
		names[n] = true
	}
	for _, p := range partitions {
		names[c.OneTypeName(p)] = true
	}
	return names
}

// IsNormalized reports whether name looks like a normalized partition, so
// that a glob such as *.json does not pick up a previous run's output.
func (c Config) IsNormalized(name string) bool {
	ext := filepath.Ext(name)
	return strings.HasSuffix(strings.TrimSuffix(name, ext), c.Outputs.OneTypeSuffix)
}

// #endregion paths
