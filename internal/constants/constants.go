package constants

const (
	AppName            = "habitual"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/habitual/habitual.db"
	DefaultConfigFile  = "~/.config/habitual/config.toml"
	DefaultServerAddr  = "127.0.0.1:8765"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// DBConnectionEnvVar holds a PostgreSQL connection string when the keyring is not used
	DBConnectionEnvVar = "HABITUAL_DB_CONNECTION"

	// MaxRangeDays caps the number of days one range agenda may span
	MaxRangeDays = 366

	// MaxMutationRetries bounds optimistic-concurrency retries for a single habit mutation
	MaxMutationRetries = 3

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitual-"
	BackupFileSuffix = ".db"
)
