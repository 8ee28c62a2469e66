package config

import "runtime"

const (
	defaultDataDir          = "~/.local/share/tunekeep"
	defaultLibraryDir       = "~/Music"
	defaultLogDir           = "~/.local/share/tunekeep/logs"
	defaultBackupDir        = "~/.local/share/tunekeep/backups"
	defaultTrashDir         = "~/.local/share/tunekeep/trash"
	defaultHashAlgorithm    = "md5"
	defaultBatchMin         = 100
	defaultBatchMax         = 1000
	defaultTolerance        = 0.9
	defaultDurationSeconds  = 5
	defaultSimilarity       = "ratio"
	defaultPattern          = "artist_album_track"
	defaultBackupKeepCount  = 10
	defaultTrashRetention   = 30
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
)

var (
	defaultExtensions    = []string{".mp3", ".flac", ".m4a", ".mp4", ".ogg", ".wav"}
	defaultCompareFields = []string{"artist", "title", "album"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
			BackupDir:  defaultBackupDir,
			TrashDir:   defaultTrashDir,
		},
		Scan: Scan{
			Recursive:     true,
			Workers:       runtime.NumCPU(),
			HashAlgorithm: defaultHashAlgorithm,
			Extensions:    append([]string(nil), defaultExtensions...),
			BatchMin:      defaultBatchMin,
			BatchMax:      defaultBatchMax,
		},
		Duplicates: Duplicates{
			Tolerance:                defaultTolerance,
			CompareFields:            append([]string(nil), defaultCompareFields...),
			UseMetadata:              true,
			UseHash:                  true,
			KeepHighestQuality:       true,
			Similarity:               defaultSimilarity,
			DurationToleranceSeconds: defaultDurationSeconds,
			PersistGroups:            true,
			TrashRetentionDays:       defaultTrashRetention,
		},
		Organizer: Organizer{
			Pattern:           defaultPattern,
			MoveAcrossDevices: true,
		},
		Backup: Backup{
			KeepCount: defaultBackupKeepCount,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
