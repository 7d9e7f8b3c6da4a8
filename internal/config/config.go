package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Match type values accepted in [match].type.
const (
	MatchOneToOne   = "one-to-one"
	MatchOneToMany  = "one-to-many"
	MatchManyToMany = "many-to-many"
	MatchDedup      = "dedup"
)

// Match contains the top-level matching parameters.
type Match struct {
	Type           string   `toml:"type"`
	Workers        int      `toml:"workers"`
	GroundTruthIDs []string `toml:"ground_truth_ids"`
}

// Dataset describes one side of the match: where the records live and how
// logical field names map onto concrete columns.
type Dataset struct {
	Name     string            `toml:"name"`
	Path     string            `toml:"path"`
	IDColumn string            `toml:"id_column"`
	Fields   map[string]string `toml:"fields"`
}

// Database configures the optional relational blocking backend. When the
// section is absent the engine blocks in memory.
type Database struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// Pass configures one numbered blocking pass. An empty block tuple means the
// pass is skipped. A "_inv" suffix on any block entry marks the pass as
// inverted: side B's tuple order is reversed.
type Pass struct {
	Block     []string `toml:"block"`
	ChunkSize int      `toml:"chunk_size"`
	Compare   []string `toml:"compare"`
}

// Comparer configures similarity scoring for one comparison variable.
type Comparer struct {
	Method       string  `toml:"method"`
	MissingValue float64 `toml:"missing_value"`
	Strict       float64 `toml:"strict"`
	Moderate     float64 `toml:"moderate"`
	Relaxed      float64 `toml:"relaxed"`
	Review       float64 `toml:"review"`
}

// Output configures where shards and the merged result file are written.
type Output struct {
	Dir      string `toml:"dir"`
	Compress bool   `toml:"compress"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for a matching run.
type Config struct {
	Match     Match               `toml:"match"`
	DatasetA  Dataset             `toml:"dataset_a"`
	DatasetB  Dataset             `toml:"dataset_b"`
	Database  *Database           `toml:"database"`
	Passes    map[string]Pass     `toml:"passes"`
	Comparers map[string]Comparer `toml:"comparers"`
	Output    Output              `toml:"output"`
	Logging   Logging             `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/stitch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("stitch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// Dedup reports whether the run matches a dataset against itself.
func (c *Config) Dedup() bool {
	return c.Match.Type == MatchDedup
}

// PassNumbers returns the configured pass numbers in ascending order.
func (c *Config) PassNumbers() []int {
	nums := make([]int, 0, len(c.Passes))
	for key := range c.Passes {
		num, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			continue
		}
		nums = append(nums, num)
	}
	sort.Ints(nums)
	return nums
}

// PassByNumber returns the pass config for a pass number.
func (c *Config) PassByNumber(num int) (Pass, bool) {
	pass, ok := c.Passes[strconv.Itoa(num)]
	return pass, ok
}

// EnsureDirectories creates required directories for a run.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %q: %w", c.Output.Dir, err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
