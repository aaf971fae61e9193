package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Session store backends.
const (
	SessionBackendRedis    = "redis"
	SessionBackendPostgres = "postgres"
	SessionBackendMemory   = "memory"
)

// Audio store backends.
const (
	AudioBackendLocal = "local"
	AudioBackendS3    = "s3"
)

// Config is the full application configuration, loaded from the
// environment with sensible defaults for local development.
type Config struct {
	Server   ServerConfig
	Session  SessionConfig
	Redis    RedisConfig
	Database DatabaseConfig
	OpenAI   OpenAIConfig
	Google   GoogleConfig
	AWS      AWSConfig
	RideAPI  RideAPIConfig
	Language LanguageConfig
	Voice    VoiceConfig
	Audio    AudioConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	Environment string
	LogLevel    string
}

type SessionConfig struct {
	Backend string
	TTL     time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the host:port pair for the Redis client.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns a lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type OpenAIConfig struct {
	APIKey       string
	WhisperModel string
}

type GoogleConfig struct {
	ProjectID       string
	CredentialsFile string
	MapsAPIKey      string
	TranslateAPIKey string

	// Optional autocomplete bias point, e.g. the city center the
	// service operates in. Zero values disable the bias.
	PlacesBiasLat float64
	PlacesBiasLng float64
}

type AWSConfig struct {
	Region              string
	BedrockAgentID      string
	BedrockAgentAliasID string
}

type RideAPIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	PhoneCode string
}

type LanguageConfig struct {
	Supported []string
	Default   string
}

type VoiceConfig struct {
	SpeakingRate float64
	Format       string
}

type AudioConfig struct {
	Backend  string
	Dir      string
	S3Bucket string
	S3Prefix string
	URLTTL   time.Duration
}

type AuthConfig struct {
	Enabled          bool
	SecretKey        string
	ClientID         string
	ClientSecretHash string
	TokenTTL         time.Duration
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("HOST", "0.0.0.0"),
			Port:        getEnvInt("PORT", 8000),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Session: SessionConfig{
			Backend: getEnv("SESSION_STORE", SessionBackendRedis),
			TTL:     time.Duration(getEnvInt("SESSION_TTL", 3600)) * time.Second,
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "vaahana"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		OpenAI: OpenAIConfig{
			APIKey:       getEnv("OPENAI_API_KEY", ""),
			WhisperModel: getEnv("OPENAI_WHISPER_MODEL", "whisper-1"),
		},
		Google: GoogleConfig{
			ProjectID:       getEnv("GOOGLE_CLOUD_PROJECT_ID", ""),
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			MapsAPIKey:      getEnv("GOOGLE_MAPS_API_KEY", ""),
			TranslateAPIKey: getEnv("GOOGLE_TRANSLATE_API_KEY", ""),
			PlacesBiasLat:   getEnvFloat("GOOGLE_PLACES_BIAS_LAT", 0),
			PlacesBiasLng:   getEnvFloat("GOOGLE_PLACES_BIAS_LNG", 0),
		},
		AWS: AWSConfig{
			Region:              getEnv("AWS_REGION", "us-east-1"),
			BedrockAgentID:      getEnv("BEDROCK_AGENT_ID", ""),
			BedrockAgentAliasID: getEnv("BEDROCK_AGENT_ALIAS_ID", ""),
		},
		RideAPI: RideAPIConfig{
			BaseURL:   getEnv("RIDE_API_BASE_URL", "http://localhost:8080"),
			Timeout:   time.Duration(getEnvInt("RIDE_API_TIMEOUT", 10)) * time.Second,
			PhoneCode: getEnv("RIDE_API_PHONE_CODE", "+91"),
		},
		Language: LanguageConfig{
			Supported: getEnvList("SUPPORTED_LANGUAGES", []string{"en", "ta", "ml"}),
			Default:   getEnv("DEFAULT_LANGUAGE", "en"),
		},
		Voice: VoiceConfig{
			SpeakingRate: getEnvFloat("TTS_VOICE_SPEED", 1.0),
			Format:       getEnv("AUDIO_FORMAT", "mp3"),
		},
		Audio: AudioConfig{
			Backend:  getEnv("AUDIO_STORE", AudioBackendLocal),
			Dir:      getEnv("AUDIO_DIR", ""),
			S3Bucket: getEnv("AUDIO_S3_BUCKET", ""),
			S3Prefix: getEnv("AUDIO_S3_PREFIX", "audio"),
			URLTTL:   time.Duration(getEnvInt("AUDIO_URL_TTL", 3600)) * time.Second,
		},
		Auth: AuthConfig{
			Enabled:          getEnvBool("AUTH_ENABLED", false),
			SecretKey:        getEnv("AUTH_SECRET_KEY", ""),
			ClientID:         getEnv("AUTH_CLIENT_ID", ""),
			ClientSecretHash: getEnv("AUTH_CLIENT_SECRET_HASH", ""),
			TokenTTL:         time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Server.Port)
	}
	switch c.Session.Backend {
	case SessionBackendRedis, SessionBackendPostgres, SessionBackendMemory:
	default:
		return fmt.Errorf("invalid SESSION_STORE %q", c.Session.Backend)
	}
	switch c.Audio.Backend {
	case AudioBackendLocal, AudioBackendS3:
	default:
		return fmt.Errorf("invalid AUDIO_STORE %q", c.Audio.Backend)
	}
	if c.Audio.Backend == AudioBackendS3 && c.Audio.S3Bucket == "" {
		return fmt.Errorf("AUDIO_S3_BUCKET is required when AUDIO_STORE=s3")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if !c.supportsLanguage(c.Language.Default) {
		return fmt.Errorf("DEFAULT_LANGUAGE %q is not in SUPPORTED_LANGUAGES", c.Language.Default)
	}
	if c.Auth.Enabled {
		if c.Auth.SecretKey == "" {
			return fmt.Errorf("AUTH_SECRET_KEY is required when AUTH_ENABLED=true")
		}
		if c.Auth.ClientID == "" || c.Auth.ClientSecretHash == "" {
			return fmt.Errorf("AUTH_CLIENT_ID and AUTH_CLIENT_SECRET_HASH are required when AUTH_ENABLED=true")
		}
	}
	return nil
}

func (c *Config) supportsLanguage(code string) bool {
	for _, l := range c.Language.Supported {
		if l == code {
			return true
		}
	}
	return false
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
