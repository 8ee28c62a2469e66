package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScan()
	c.normalizeDuplicates()
	if err := c.normalizeOrganizer(); err != nil {
		return err
	}
	if c.Backup.KeepCount < 0 {
		c.Backup.KeepCount = 0
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("TUNEKEEP_LIBRARY_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.LibraryDir = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("TUNEKEEP_DATA_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.DataDir = strings.TrimSpace(value)
	}

	fields := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.data_dir", &c.Paths.DataDir, defaultDataDir},
		{"paths.library_dir", &c.Paths.LibraryDir, defaultLibraryDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.backup_dir", &c.Paths.BackupDir, defaultBackupDir},
		{"paths.trash_dir", &c.Paths.TrashDir, defaultTrashDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeScan() {
	if c.Scan.Workers <= 0 {
		c.Scan.Workers = runtime.NumCPU()
	}
	c.Scan.HashAlgorithm = strings.ToLower(strings.TrimSpace(c.Scan.HashAlgorithm))
	if c.Scan.HashAlgorithm == "" {
		c.Scan.HashAlgorithm = defaultHashAlgorithm
	}
	c.Scan.Extensions = normalizeExtensions(c.Scan.Extensions)
	if len(c.Scan.Extensions) == 0 {
		c.Scan.Extensions = append([]string(nil), defaultExtensions...)
	}
	if c.Scan.BatchMin <= 0 {
		c.Scan.BatchMin = defaultBatchMin
	}
	if c.Scan.BatchMax <= 0 {
		c.Scan.BatchMax = defaultBatchMax
	}
}

func normalizeExtensions(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		ext := strings.ToLower(strings.TrimSpace(value))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

func (c *Config) normalizeDuplicates() {
	fields := make([]string, 0, len(c.Duplicates.CompareFields))
	seen := make(map[string]struct{}, len(c.Duplicates.CompareFields))
	for _, field := range c.Duplicates.CompareFields {
		normalized := strings.ToLower(strings.TrimSpace(field))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		fields = append(fields, normalized)
	}
	if len(fields) == 0 {
		fields = append([]string(nil), defaultCompareFields...)
	}
	c.Duplicates.CompareFields = fields

	c.Duplicates.Similarity = strings.ToLower(strings.TrimSpace(c.Duplicates.Similarity))
	if c.Duplicates.Similarity == "" {
		c.Duplicates.Similarity = defaultSimilarity
	}
	if c.Duplicates.DurationToleranceSeconds <= 0 {
		c.Duplicates.DurationToleranceSeconds = defaultDurationSeconds
	}
}

func (c *Config) normalizeOrganizer() error {
	c.Organizer.Pattern = strings.TrimSpace(c.Organizer.Pattern)
	if c.Organizer.Pattern == "" {
		c.Organizer.Pattern = defaultPattern
	}
	if strings.TrimSpace(c.Organizer.BaseDir) == "" {
		c.Organizer.BaseDir = ""
		return nil
	}
	expanded, err := expandPath(strings.TrimSpace(c.Organizer.BaseDir))
	if err != nil {
		return fmt.Errorf("organizer.base_dir: %w", err)
	}
	c.Organizer.BaseDir = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
