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

// Admin authentication modes.
const (
	AuthModeStatic = "static"
	AuthModeJWT    = "jwt"
)

type Config struct {
	Env          string
	Port         int
	APIPrefix    string
	MaxBodyBytes int64

	Storage   StorageConfig
	Admin     AdminConfig
	JWT       JWTConfig
	Votes     VoteConfig
	Redis     RedisConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Log       LogConfig
}

// StorageConfig points at the flat files backing the stores.
type StorageConfig struct {
	TeachersFile string
	// RatingsFile is optional; ratings live only in memory when empty.
	RatingsFile string
}

// AdminConfig holds the shared administrator credentials.
type AdminConfig struct {
	AuthMode     string
	Username     string
	Password     string
	PasswordHash string
	Token        string
	// CookieName is read as a fallback to the Authorization header.
	CookieName string
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// VoteConfig controls the client-held cookie that records already-rated teachers.
type VoteConfig struct {
	CookieName   string
	CookieMaxAge time.Duration
	SecureCookie bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig toggles Redis caching of teacher listings.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// RateLimitConfig throttles public write endpoints per client IP.
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.MaxBodyBytes = v.GetInt64("MAX_BODY_BYTES")
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}

	cfg.Storage = StorageConfig{
		TeachersFile: v.GetString("TEACHERS_FILE"),
		RatingsFile:  v.GetString("RATINGS_FILE"),
	}

	cfg.Admin = AdminConfig{
		AuthMode:     strings.ToLower(strings.TrimSpace(v.GetString("ADMIN_AUTH_MODE"))),
		Username:     v.GetString("ADMIN_USERNAME"),
		Password:     v.GetString("ADMIN_PASSWORD"),
		PasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
		Token:        v.GetString("ADMIN_TOKEN"),
		CookieName:   v.GetString("ADMIN_COOKIE_NAME"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Votes = VoteConfig{
		CookieName:   v.GetString("VOTE_COOKIE_NAME"),
		CookieMaxAge: parseDuration(v.GetString("VOTE_COOKIE_MAX_AGE"), 365*24*time.Hour),
		SecureCookie: v.GetBool("VOTE_COOKIE_SECURE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), time.Minute),
	}

	cfg.RateLimit = RateLimitConfig{
		Enabled:  v.GetBool("ENABLE_RATE_LIMIT"),
		Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
		Window:   parseDuration(v.GetString("RATE_LIMIT_WINDOW"), time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

// NeedsRedis reports whether any enabled feature depends on Redis.
func (c *Config) NeedsRedis() bool {
	return c.Cache.Enabled || c.RateLimit.Enabled
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 3000)
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("MAX_BODY_BYTES", 1<<20)

	v.SetDefault("TEACHERS_FILE", "./data/teachers.csv")
	v.SetDefault("RATINGS_FILE", "")

	v.SetDefault("ADMIN_AUTH_MODE", AuthModeStatic)
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "password123")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")
	v.SetDefault("ADMIN_TOKEN", "admin-token")
	v.SetDefault("ADMIN_COOKIE_NAME", "adminToken")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "teacher-ratings-api")

	v.SetDefault("VOTE_COOKIE_NAME", "votedTeachers")
	v.SetDefault("VOTE_COOKIE_MAX_AGE", "8760h")
	v.SetDefault("VOTE_COOKIE_SECURE", false)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "1m")

	v.SetDefault("ENABLE_RATE_LIMIT", false)
	v.SetDefault("RATE_LIMIT_REQUESTS", 20)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
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
