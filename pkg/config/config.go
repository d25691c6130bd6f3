package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	OrgName   string

	Sheet   SheetConfig
	SMTP    SMTPConfig
	Users   UsersConfig
	Forum   ForumConfig
	JWT     JWTConfig
	Redis   RedisConfig
	Cache   CacheConfig
	CORS    CORSConfig
	Log     LogConfig
	Exports ExportsConfig
	Sweep   SweepConfig
}

// SheetConfig locates the signup sheet and its header row.
type SheetConfig struct {
	Path      string
	SheetName string
	HeaderRow int
}

// SMTPConfig carries outbound mail credentials.
type SMTPConfig struct {
	Host      string
	Port      int
	User      string
	Pass      string
	FromEmail string
	Timeout   time.Duration
}

// Ready reports whether enough of the SMTP surface is configured to send.
func (c SMTPConfig) Ready() bool {
	return c.Host != "" && c.User != "" && c.Pass != "" && c.FromEmail != ""
}

// UsersConfig locates the account database and the bootstrap admin.
type UsersConfig struct {
	DBPath             string
	BootstrapEmail     string
	BootstrapPassword  string
	BootstrapFirstName string
	BootstrapLastName  string
}

// ForumConfig locates the forum database.
type ForumConfig struct {
	DBPath string
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig gates the redis-backed slot listing cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ExportsConfig gates the roster export endpoints.
type ExportsConfig struct {
	Enabled bool
}

// SweepConfig tunes the reminder sweep loop.
type SweepConfig struct {
	Interval time.Duration
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.OrgName = v.GetString("ORG_NAME")

	cfg.Sheet = SheetConfig{
		Path:      v.GetString("EXCEL_PATH"),
		SheetName: v.GetString("SHEET_NAME"),
		HeaderRow: v.GetInt("HEADER_ROW"),
	}

	smtpUser := v.GetString("SMTP_USER")
	fromEmail := v.GetString("FROM_EMAIL")
	if fromEmail == "" {
		fromEmail = smtpUser
	}
	cfg.SMTP = SMTPConfig{
		Host:      v.GetString("SMTP_HOST"),
		Port:      v.GetInt("SMTP_PORT"),
		User:      smtpUser,
		Pass:      v.GetString("SMTP_PASS"),
		FromEmail: fromEmail,
		Timeout:   parseDuration(v.GetString("SMTP_TIMEOUT"), 30*time.Second),
	}

	cfg.Users = UsersConfig{
		DBPath:             v.GetString("USERS_DB_PATH"),
		BootstrapEmail:     v.GetString("BOOTSTRAP_ADMIN_EMAIL"),
		BootstrapPassword:  v.GetString("BOOTSTRAP_ADMIN_PASSWORD"),
		BootstrapFirstName: v.GetString("BOOTSTRAP_ADMIN_FIRST"),
		BootstrapLastName:  v.GetString("BOOTSTRAP_ADMIN_LAST"),
	}

	cfg.Forum = ForumConfig{DBPath: v.GetString("FORUM_DB_PATH")}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 30*time.Second),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Exports = ExportsConfig{Enabled: v.GetBool("ENABLE_EXPORTS")}

	cfg.Sweep = SweepConfig{
		Interval: parseDuration(v.GetString("SWEEP_INTERVAL"), 10*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("ORG_NAME", "Volunteer Portal")

	v.SetDefault("EXCEL_PATH", "Volunteer Sign Up Sheet.xlsx")
	v.SetDefault("SHEET_NAME", "2025-2026")
	v.SetDefault("HEADER_ROW", 3)

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("FROM_EMAIL", "")
	v.SetDefault("SMTP_TIMEOUT", "30s")

	v.SetDefault("USERS_DB_PATH", "users.db")
	v.SetDefault("FORUM_DB_PATH", "forum.db")
	v.SetDefault("BOOTSTRAP_ADMIN_EMAIL", "")
	v.SetDefault("BOOTSTRAP_ADMIN_PASSWORD", "")
	v.SetDefault("BOOTSTRAP_ADMIN_FIRST", "Admin")
	v.SetDefault("BOOTSTRAP_ADMIN_LAST", "User")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "portal-api")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "30s")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_EXPORTS", false)
	v.SetDefault("SWEEP_INTERVAL", "10m")
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
