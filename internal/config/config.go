package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	LibraryDir string `toml:"library_dir"`
	LogDir     string `toml:"log_dir"`
	BackupDir  string `toml:"backup_dir"`
	TrashDir   string `toml:"trash_dir"`
}

// Scan contains configuration for directory scans and catalog ingestion.
type Scan struct {
	Recursive     bool     `toml:"recursive"`
	Workers       int      `toml:"workers"`
	HashAlgorithm string   `toml:"hash_algorithm"`
	Extensions    []string `toml:"extensions"`
	BatchMin      int      `toml:"batch_min"`
	BatchMax      int      `toml:"batch_max"`
}

// Duplicates contains configuration for duplicate detection.
type Duplicates struct {
	Tolerance                float64  `toml:"tolerance"`
	CompareFields            []string `toml:"compare_fields"`
	UseMetadata              bool     `toml:"use_metadata"`
	UseHash                  bool     `toml:"use_hash"`
	UseSize                  bool     `toml:"use_size"`
	KeepHighestQuality       bool     `toml:"keep_highest_quality"`
	Similarity               string   `toml:"similarity"`
	FoldDiacritics           bool     `toml:"fold_diacritics"`
	DurationToleranceSeconds float64  `toml:"duration_tolerance_seconds"`
	PersistGroups            bool     `toml:"persist_groups"`
	PartitionByArtist        bool     `toml:"partition_by_artist"`
	TrashRetentionDays       int      `toml:"trash_retention_days"`
}

// Organizer contains configuration for pattern-based file organization.
type Organizer struct {
	Pattern           string `toml:"pattern"`
	BaseDir           string `toml:"base_dir"`
	MoveAcrossDevices bool   `toml:"move_across_devices"`
}

// Backup contains configuration for catalog backups.
type Backup struct {
	KeepCount int  `toml:"keep_count"`
	Compress  bool `toml:"compress"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for tunekeep.
//
// Configuration sections by subsystem:
//   - Paths: catalog, library, log, backup, and trash directories
//   - Scan: directory walk, hashing, and batch ingestion settings
//   - Duplicates: detection strategies and tolerances
//   - Organizer: naming pattern and destination root
//   - Backup: retention and compression
//   - Logging: log format, level, and retention
type Config struct {
	Paths      Paths      `toml:"paths"`
	Scan       Scan       `toml:"scan"`
	Duplicates Duplicates `toml:"duplicates"`
	Organizer  Organizer  `toml:"organizer"`
	Backup     Backup     `toml:"backup"`
	Logging    Logging    `toml:"logging"`
}

const defaultConfigLocation = "~/.config/tunekeep/config.toml"

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigLocation)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
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

	defaultPath, err := expandPath(defaultConfigLocation)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tunekeep.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories tunekeep writes into.
// LibraryDir is never created; a missing library is reported by the scanner.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.BackupDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the SQLite catalog.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "library.db")
}

// LockPath returns the location of the single-writer lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "tunekeep.lock")
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

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
