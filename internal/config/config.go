package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agendapp/office-service/internal/auth"
	"github.com/agendapp/office-service/internal/telemetry"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		App       App
		Logger    Logger
		Database  Database
		Auth      auth.Config
		RabbitMQ  RabbitMQ
		Redis     Redis
		Minio     Minio
		Document  Document
		Address   Address
		Telemetry telemetry.Config
	}
	App struct {
		Env             string
		Port            string
		AllowedOrigins  []string
		PermissionsFile string
		Timezone        string
		RetentionYears  int
	}
	Logger struct {
		Level string
	}
	Database struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
	}
	RabbitMQ struct {
		URL      string
		Exchange string
	}
	Redis struct {
		Addr            string
		Password        string
		DB              int
		ProfileCacheTTL time.Duration
	}
	Minio struct {
		Endpoint  string
		AccessKey string
		SecretKey string
		Bucket    string
		Region    string
		UseSSL    bool
		URLExpiry time.Duration
	}
	Document struct {
		EscapeHTML bool
	}
	Address struct {
		LookupURL string
		Timeout   time.Duration
	}
)

// Load reads a .env file when present and then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		App: App{
			Env:             GetEnvString("APP_ENV", "development"),
			Port:            GetEnvString("APP_PORT", "8080"),
			AllowedOrigins:  GetEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
			PermissionsFile: GetEnvString("PERMISSIONS_FILE", "config/permissions.yml"),
			Timezone:        GetEnvString("CLINIC_TIMEZONE", "America/Sao_Paulo"),
			RetentionYears:  GetEnvInt("RETENTION_YEARS", 20),
		},
		Logger: Logger{
			Level: GetEnvString("LOG_LEVEL", "info"),
		},
		Database: Database{
			Host:     GetEnvString("DB_HOST", "localhost"),
			Port:     GetEnvString("DB_PORT", "5432"),
			User:     GetEnvString("DB_USER", ""),
			Password: GetEnvString("DB_PASSWORD", ""),
			Name:     GetEnvString("DB_NAME", ""),
			SSLMode:  GetEnvString("DB_SSLMODE", "disable"),
		},
		Auth: auth.LoadConfig(),
		RabbitMQ: RabbitMQ{
			URL:      GetEnvString("RABBITMQ_URL", ""),
			Exchange: GetEnvString("RABBITMQ_EXCHANGE", "agendapp.events"),
		},
		Redis: Redis{
			Addr:            GetEnvString("REDIS_ADDR", ""),
			Password:        GetEnvString("REDIS_PASSWORD", ""),
			DB:              GetEnvInt("REDIS_DB", 0),
			ProfileCacheTTL: GetEnvDuration("PROFILE_CACHE_TTL", 10*time.Minute),
		},
		Minio: Minio{
			Endpoint:  GetEnvString("MINIO_ENDPOINT", ""),
			AccessKey: GetEnvString("MINIO_ACCESS_KEY", ""),
			SecretKey: GetEnvString("MINIO_SECRET_KEY", ""),
			Bucket:    GetEnvString("MINIO_BUCKET", "templates"),
			Region:    GetEnvString("MINIO_REGION", "us-east-1"),
			UseSSL:    GetEnvBool("MINIO_USE_SSL", false),
			URLExpiry: GetEnvDuration("MINIO_URL_EXPIRY", 15*time.Minute),
		},
		Document: Document{
			EscapeHTML: GetEnvBool("DOCUMENT_ESCAPE_HTML", true),
		},
		Address: Address{
			LookupURL: GetEnvString("POSTAL_CODE_LOOKUP_URL", "https://viacep.com.br"),
			Timeout:   GetEnvDuration("POSTAL_CODE_LOOKUP_TIMEOUT", 5*time.Second),
		},
		Telemetry: telemetry.LoadConfig(),
	}
}

// Location resolves App.Timezone, falling back to time.Local.
func (a App) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func GetEnvString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func GetEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func GetEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

// GetEnvList splits a comma separated value, dropping empty items.
func GetEnvList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
