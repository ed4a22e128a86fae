package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Archive backends supported by the importer.
const (
	ArchiveBackendLocal = "local"
	ArchiveBackendMinIO = "minio"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Decoder  DecoderConfig
	Import   ImportConfig
	MinIO    MinIOConfig
	Augment  AugmentConfig
	Pages    PagesConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DecoderConfig points the VIN decoder at the vPIC API.
type DecoderConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ImportConfig locates the CSV source and where processed files are archived.
type ImportConfig struct {
	SourcePath     string
	ArchiveDir     string
	ArchiveBackend string
	OnStartup      bool
}

// MinIOConfig is only read when the archive backend is minio.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// AugmentConfig tunes the bulk augmentation pass.
type AugmentConfig struct {
	Workers int
	LockTTL time.Duration
}

// PagesConfig toggles the server-rendered tables.
type PagesConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Decoder = DecoderConfig{
		BaseURL: strings.TrimRight(v.GetString("DECODER_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("DECODER_TIMEOUT"), 10*time.Second),
	}

	backend := strings.ToLower(strings.TrimSpace(v.GetString("IMPORT_ARCHIVE_BACKEND")))
	if backend != ArchiveBackendMinIO {
		backend = ArchiveBackendLocal
	}
	cfg.Import = ImportConfig{
		SourcePath:     v.GetString("IMPORT_SOURCE_PATH"),
		ArchiveDir:     v.GetString("IMPORT_ARCHIVE_DIR"),
		ArchiveBackend: backend,
		OnStartup:      v.GetBool("IMPORT_ON_STARTUP"),
	}

	cfg.MinIO = MinIOConfig{
		Endpoint:  v.GetString("MINIO_ENDPOINT"),
		AccessKey: v.GetString("MINIO_ACCESS_KEY"),
		SecretKey: v.GetString("MINIO_SECRET_KEY"),
		Bucket:    v.GetString("MINIO_BUCKET"),
		Region:    v.GetString("MINIO_REGION"),
		UseSSL:    v.GetBool("MINIO_USE_SSL"),
	}

	workers := v.GetInt("AUGMENT_WORKERS")
	if workers <= 0 {
		workers = 1
	}
	cfg.Augment = AugmentConfig{
		Workers: workers,
		LockTTL: parseDuration(v.GetString("AUGMENT_LOCK_TTL"), 10*time.Minute),
	}

	cfg.Pages = PagesConfig{Enabled: v.GetBool("ENABLE_PAGES")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "vehicle_data")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DECODER_BASE_URL", "https://vpic.nhtsa.dot.gov/api/vehicles")
	v.SetDefault("DECODER_TIMEOUT", "10s")

	v.SetDefault("IMPORT_SOURCE_PATH", "./data/sample-vin-data.csv")
	v.SetDefault("IMPORT_ARCHIVE_DIR", "./data/archive")
	v.SetDefault("IMPORT_ARCHIVE_BACKEND", ArchiveBackendLocal)
	v.SetDefault("IMPORT_ON_STARTUP", false)

	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "vin-archive")
	v.SetDefault("MINIO_REGION", "us-east-1")
	v.SetDefault("MINIO_USE_SSL", false)

	v.SetDefault("AUGMENT_WORKERS", 4)
	v.SetDefault("AUGMENT_LOCK_TTL", "10m")

	v.SetDefault("ENABLE_PAGES", true)
}

// SetConfigFile reports a missing .env as a filesystem error, not ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
