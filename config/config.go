package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Auth provider names accepted in AUTH_PROVIDER.
const (
	AuthProviderSupabase = "supabase"
	AuthProviderLocal    = "local"
	AuthProviderNone     = "none"
)

// placeholders are the values shipped in example env files; they count as unset.
var placeholders = map[string]bool{
	"https://your-project.supabase.co": true,
	"your-anon-key":                    true,
	"your-service-key":                 true,
	"your-jwt-secret":                  true,
	"your-elevenlabs-key":              true,
	"your-elevenlabs-api-key":          true,
	"your-pexels-key":                  true,
	"your-pexels-api-key":              true,
	"your-youtube-key":                 true,
	"your-youtube-api-key":             true,
	"your-upload-key":                  true,
	"change-me":                        true,
}

// Config holds application configuration loaded from environment.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Supabase   SupabaseConfig
	Auth       AuthConfig
	ElevenLabs ElevenLabsConfig
	Pexels     PexelsConfig
	Upload     UploadConfig
	AWS        AWSConfig
	YouTube    YouTubeConfig
	Creation   CreationConfig
	Catalog    CatalogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings (the Supabase Postgres instance in production).
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings. Empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SupabaseConfig holds the hosted backend URL and keys.
type SupabaseConfig struct {
	URL        string
	AnonKey    string
	ServiceKey string // optional; table reads fall back to AnonKey
	JWTSecret  string // optional; enables local verification of access tokens
}

// AuthConfig selects the identity provider.
type AuthConfig struct {
	Provider    string // supabase, local, none; empty = auto
	JWTSecret   string // local provider signing secret
	ExpireHours int
}

// ElevenLabsConfig holds speech provider settings.
type ElevenLabsConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// PexelsConfig holds stock footage provider settings.
type PexelsConfig struct {
	APIKey  string
	BaseURL string
}

// UploadConfig holds the video upload target.
type UploadConfig struct {
	Endpoint string
	APIKey   string
}

// AWSConfig holds AWS credentials and the uploads bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	UploadsBucket        string
	PresignExpireMinutes int
}

// YouTubeConfig holds OAuth files used by the publish worker.
type YouTubeConfig struct {
	ClientSecretFile string
	TokenFile        string
	PrivacyStatus    string
	CategoryID       string
}

// CreationConfig holds the create-flow processing settings.
type CreationConfig struct {
	ProcessingDelay      time.Duration
	PlaceholderVideoURL  string
	PlaceholderThumbnail string
}

// CatalogConfig points at an optional YAML file overriding the built-in catalog.
type CatalogConfig struct {
	File string
}

// TableKey returns the key used for direct table reads.
func (c SupabaseConfig) TableKey() string {
	if c.ServiceKey != "" {
		return c.ServiceKey
	}
	return c.AnonKey
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set it is used as-is; otherwise built from components when Host is set.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	if c.Host == "" {
		return ""
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Configured reports whether the hosted backend URL and public key are both real values.
func (c SupabaseConfig) Configured() bool {
	return c.URL != "" && c.AnonKey != ""
}

// ResolvedAuthProvider returns the identity provider to use, falling back to "none" (demo mode)
// when the requested provider is not usable.
func (c *Config) ResolvedAuthProvider() string {
	switch c.Auth.Provider {
	case AuthProviderSupabase:
		if c.Supabase.Configured() {
			return AuthProviderSupabase
		}
		return AuthProviderNone
	case AuthProviderLocal:
		if c.Auth.JWTSecret != "" && c.Database.DSN() != "" {
			return AuthProviderLocal
		}
		return AuthProviderNone
	case AuthProviderNone:
		return AuthProviderNone
	}
	if c.Supabase.Configured() {
		return AuthProviderSupabase
	}
	return AuthProviderNone
}

// DemoMode reports whether the service runs without any usable identity provider.
func (c *Config) DemoMode() bool {
	return c.ResolvedAuthProvider() == AuthProviderNone
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	delay, err := time.ParseDuration(getEnv("CREATION_PROCESSING_DELAY", "5s"))
	if err != nil {
		return nil, fmt.Errorf("parse CREATION_PROCESSING_DELAY: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:      getSecret("DATABASE_URL"),
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "postgres"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Supabase: SupabaseConfig{
			URL:        firstSecret("SUPABASE_URL", "VITE_SUPABASE_URL"),
			AnonKey:    firstSecret("SUPABASE_ANON_KEY", "VITE_SUPABASE_ANON_KEY"),
			ServiceKey: getSecret("SUPABASE_SERVICE_KEY"),
			JWTSecret:  getSecret("SUPABASE_JWT_SECRET"),
		},
		Auth: AuthConfig{
			Provider:    strings.ToLower(getEnv("AUTH_PROVIDER", "")),
			JWTSecret:   getSecret("JWT_SECRET"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		ElevenLabs: ElevenLabsConfig{
			APIKey:  firstSecret("ELEVENLABS_API_KEY", "VITE_ELEVENLABS_API_KEY"),
			BaseURL: getEnv("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io/v1"),
			Model:   getEnv("ELEVENLABS_MODEL", "eleven_monolingual_v1"),
		},
		Pexels: PexelsConfig{
			APIKey:  firstSecret("PEXELS_API_KEY", "VITE_PEXELS_API_KEY"),
			BaseURL: getEnv("PEXELS_BASE_URL", "https://api.pexels.com/videos"),
		},
		Upload: UploadConfig{
			Endpoint: getEnv("UPLOAD_ENDPOINT", ""),
			APIKey:   firstSecret("UPLOAD_API_KEY", "VITE_YOUTUBE_API_KEY"),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", ""),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			UploadsBucket:        getEnv("AWS_S3_UPLOADS_BUCKET", "invisireel-uploads"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		YouTube: YouTubeConfig{
			ClientSecretFile: getEnv("YOUTUBE_CLIENT_SECRET_FILE", ""),
			TokenFile:        getEnv("YOUTUBE_TOKEN_FILE", "./youtube_token.json"),
			PrivacyStatus:    getEnv("YOUTUBE_PRIVACY_STATUS", "private"),
			CategoryID:       getEnv("YOUTUBE_CATEGORY_ID", "22"),
		},
		Creation: CreationConfig{
			ProcessingDelay:      delay,
			PlaceholderVideoURL:  getEnv("PLACEHOLDER_VIDEO_URL", "https://example.com/sample-video.mp4"),
			PlaceholderThumbnail: getEnv("PLACEHOLDER_THUMBNAIL_URL", "https://via.placeholder.com/400x225/1f2937/ffffff?text=Generated+Video"),
		},
		Catalog: CatalogConfig{
			File: getEnv("CATALOG_FILE", ""),
		},
	}
	return cfg, nil
}

// IsPlaceholder reports whether v is empty or one of the example placeholder values.
func IsPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || placeholders[v] || strings.HasPrefix(v, "your-")
}

func getSecret(key string) string {
	v := os.Getenv(key)
	if IsPlaceholder(v) {
		return ""
	}
	return strings.TrimSpace(v)
}

func firstSecret(keys ...string) string {
	for _, k := range keys {
		if v := getSecret(k); v != "" {
			return v
		}
	}
	return ""
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
