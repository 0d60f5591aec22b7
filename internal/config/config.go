package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on minimal images

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv   string
	Port      string
	JWTSecret string
	LogMode   string
	Location  *time.Location

	Store     StoreConfig
	Database  DatabaseConfig
	Sheets    SheetsConfig
	Lock      LockConfig
	Archive   ArchiveConfig
	Matcher   MatcherConfig
	Artifacts ArtifactConfig
	Export    ExportConfig
	Odoo      OdooConfig
	Tables    TableNames
}

// StoreConfig selects the tabular store backend
type StoreConfig struct {
	Driver     string // memory, sqlite, postgres, sheets
	SQLitePath string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Alter    bool
}

// SheetsConfig points at the shared Google spreadsheet
type SheetsConfig struct {
	SpreadsheetID string
	Credentials   string // file path or inline JSON
}

// LockConfig selects how whole-table rewrites are serialized
type LockConfig struct {
	Driver    string // local, redis
	RedisAddr string
	TTL       time.Duration
}

// ArchiveConfig controls the measurement archiver
type ArchiveConfig struct {
	RetentionDays int
	OnStartup     bool
	Interval      time.Duration
}

// MatcherConfig controls default-value matching
type MatcherConfig struct {
	ExcludeSelf bool
}

// ArtifactConfig holds export artifact storage settings
type ArtifactConfig struct {
	Driver      string // none, fs, s3
	FSRoot      string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
}

// ExportConfig holds export rendering settings
type ExportConfig struct {
	FontPath string // TTF with Japanese glyphs for PDF output
}

// OdooConfig holds Odoo connection settings for catalog import
type OdooConfig struct {
	URL      string
	Database string
	Username string
	Password string
	Model    string
	FieldMap string // e.g. "brand=x_brand,sizes=x_sizes"
}

// TableNames maps each logical table to its sheet/table name
type TableNames struct {
	Catalog      string
	Templates    string
	Measurements string
	Archive      string
	Reference    string
	Users        string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Asia/Tokyo"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	retention, err := getEnvInt("RETENTION_DAYS", 30)
	if err != nil {
		return nil, err
	}
	intervalHours, err := getEnvInt("ARCHIVE_INTERVAL_HOURS", 24)
	if err != nil {
		return nil, err
	}
	lockTTLSeconds, err := getEnvInt("LOCK_TTL_SECONDS", 30)
	if err != nil {
		return nil, err
	}

	return &Config{
		NodeEnv:   getEnv("NODE_ENV", "development"),
		Port:      getEnv("PORT", "3210"),
		JWTSecret: jwtSecret,
		LogMode:   getEnv("LOG_MODE", "development"),
		Location:  loc,
		Store: StoreConfig{
			Driver:     getEnv("STORE_DRIVER", "sqlite"),
			SQLitePath: getEnv("SQLITE_PATH", "./saisun.db"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "saisun"),
			Alter:    getEnvBool("DB_ALTER", false),
		},
		Sheets: SheetsConfig{
			SpreadsheetID: os.Getenv("SHEETS_SPREADSHEET_ID"),
			Credentials:   getEnv("GOOGLE_APPLICATION_CREDENTIALS", "credentials.json"),
		},
		Lock: LockConfig{
			Driver:    getEnv("LOCK_DRIVER", "local"),
			RedisAddr: os.Getenv("REDIS_ADDR"),
			TTL:       time.Duration(lockTTLSeconds) * time.Second,
		},
		Archive: ArchiveConfig{
			RetentionDays: retention,
			OnStartup:     getEnvBool("ARCHIVE_ON_STARTUP", true),
			Interval:      time.Duration(intervalHours) * time.Hour,
		},
		Matcher: MatcherConfig{
			ExcludeSelf: getEnvBool("MATCH_EXCLUDE_SELF", true),
		},
		Artifacts: ArtifactConfig{
			Driver:      getEnv("ARTIFACT_DRIVER", "none"),
			FSRoot:      getEnv("ARTIFACT_FS_ROOT", "./exports"),
			S3Bucket:    os.Getenv("ARTIFACT_S3_BUCKET"),
			S3Region:    getEnv("ARTIFACT_S3_REGION", "ap-northeast-1"),
			S3Endpoint:  os.Getenv("ARTIFACT_S3_ENDPOINT"),
			S3PathStyle: getEnvBool("ARTIFACT_S3_PATH_STYLE", false),
		},
		Export: ExportConfig{
			FontPath: os.Getenv("PDF_FONT_PATH"),
		},
		Odoo: OdooConfig{
			URL:      os.Getenv("ODOO_URL"),
			Database: os.Getenv("ODOO_DB"),
			Username: os.Getenv("ODOO_USER"),
			Password: os.Getenv("ODOO_PASSWORD"),
			Model:    getEnv("ODOO_MODEL", "product.template"),
			FieldMap: os.Getenv("ODOO_FIELD_MAP"),
		},
		Tables: TableNames{
			Catalog:      getEnv("TABLE_CATALOG", "在庫"),
			Templates:    getEnv("TABLE_TEMPLATES", "採寸テンプレート"),
			Measurements: getEnv("TABLE_MEASUREMENTS", "採寸記録"),
			Archive:      getEnv("TABLE_ARCHIVE", "採寸アーカイブ"),
			Reference:    getEnv("TABLE_REFERENCE", "基準寸法"),
			Users:        getEnv("TABLE_USERS", "ユーザー"),
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}
