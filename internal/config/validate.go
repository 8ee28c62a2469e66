package config

import (
	"errors"
	"fmt"
	"slices"
)

var (
	hashAlgorithms = []string{"md5", "sha256", "xxhash", "blake3"}
	similarities   = []string{"ratio", "jaro-winkler", "levenshtein", "token-cosine"}
	compareFields  = []string{"artist", "title", "album", "genre"}
	logLevels      = []string{"debug", "info", "warn", "error"}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateDuplicates(); err != nil {
		return err
	}
	if c.Backup.KeepCount < 1 {
		return errors.New("backup.keep_count must be >= 1")
	}
	if !slices.Contains(logLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of %v", logLevels)
	}
	return nil
}

func (c *Config) validateScan() error {
	if !slices.Contains(hashAlgorithms, c.Scan.HashAlgorithm) {
		return fmt.Errorf("scan.hash_algorithm %q is not supported (use one of %v)", c.Scan.HashAlgorithm, hashAlgorithms)
	}
	if err := ensurePositiveMap(map[string]int{
		"scan.workers":   c.Scan.Workers,
		"scan.batch_min": c.Scan.BatchMin,
		"scan.batch_max": c.Scan.BatchMax,
	}); err != nil {
		return err
	}
	if c.Scan.BatchMin > c.Scan.BatchMax {
		return errors.New("scan.batch_min must not exceed scan.batch_max")
	}
	return nil
}

func (c *Config) validateDuplicates() error {
	cfg := c.Duplicates
	if cfg.Tolerance < 0 || cfg.Tolerance > 1 {
		return errors.New("duplicates.tolerance must be between 0 and 1")
	}
	for _, field := range cfg.CompareFields {
		if !slices.Contains(compareFields, field) {
			return fmt.Errorf("duplicates.compare_fields: unknown field %q (use any of %v)", field, compareFields)
		}
	}
	if !slices.Contains(similarities, cfg.Similarity) {
		return fmt.Errorf("duplicates.similarity %q is not supported (use one of %v)", cfg.Similarity, similarities)
	}
	if !cfg.UseMetadata && !cfg.UseHash && !cfg.UseSize {
		return errors.New("duplicates: at least one of use_metadata, use_hash, use_size must be enabled")
	}
	if cfg.TrashRetentionDays < 0 {
		return errors.New("duplicates.trash_retention_days must not be negative")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
