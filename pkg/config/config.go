package config

import (
	"fmt"
	"strings"

	"elapor/pkg/database"

	"github.com/spf13/viper"
)

// Config application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  database.Config `mapstructure:"database"`
	MongoDB   MongoDBConfig   `mapstructure:"mongodb"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Cooldown  CooldownConfig  `mapstructure:"cooldown"`
	Mail      MailConfig      `mapstructure:"mail"`
	Storage   StorageConfig   `mapstructure:"storage"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig HTTP server configuration
type ServerConfig struct {
	Port           int
	Mode           string
	PublicURL      string   `mapstructure:"public_url"` // used to build storage URLs
	LogLevel       string   `mapstructure:"log_level"`
	SecureCookie   bool     `mapstructure:"secure_cookie"`
	AllowedOrigins []string `mapstructure:"allowed_origins"` // WebSocket origins; empty allows any
}

// MongoDBConfig MongoDB configuration (object storage)
type MongoDBConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	MinPoolSize uint64 `mapstructure:"min_pool_size"`
}

// RedisConfig Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig session token configuration
type JWTConfig struct {
	Secret             string
	AccessTokenExpire  int `mapstructure:"access_token_expire"`  // hours
	RefreshTokenExpire int `mapstructure:"refresh_token_expire"` // seconds
}

// AdminConfig admin management configuration
type AdminConfig struct {
	MaxSuperAdmins      int    `mapstructure:"max_super_admins"`
	InviteRedirectURL   string `mapstructure:"invite_redirect_url"`
	RecoveryRedirectURL string `mapstructure:"recovery_redirect_url"`
	BootstrapEmail      string `mapstructure:"bootstrap_email"`
	PageSize            int    `mapstructure:"page_size"`
}

// CooldownConfig invitation resend cooldown
type CooldownConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	StepMillis    int `mapstructure:"step_millis"`
	PersistDays   int `mapstructure:"persist_days"`
}

// MailConfig outgoing mail
type MailConfig struct {
	Provider string `mapstructure:"provider"` // resend | log
	APIKey   string `mapstructure:"api_key"`
	From     string `mapstructure:"from"`
}

// StorageConfig avatar storage
type StorageConfig struct {
	AvatarBucket   string `mapstructure:"avatar_bucket"`
	MaxAvatarBytes int64  `mapstructure:"max_avatar_bytes"`
}

// RateLimitConfig per-IP limits on auth and invitation routes
type RateLimitConfig struct {
	PerSecond float64 `mapstructure:"per_second"`
	Burst     int     `mapstructure:"burst"`
}

// setDefaults registers fallbacks for keys the config file may omit
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.secure_cookie", true)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("jwt.access_token_expire", 2)
	v.SetDefault("jwt.refresh_token_expire", 604800)
	v.SetDefault("admin.max_super_admins", 3)
	v.SetDefault("admin.page_size", 10)
	v.SetDefault("cooldown.window_seconds", 60)
	v.SetDefault("cooldown.step_millis", 1000)
	v.SetDefault("cooldown.persist_days", 1)
	v.SetDefault("mail.provider", "log")
	v.SetDefault("storage.avatar_bucket", "avatars")
	v.SetDefault("storage.max_avatar_bytes", 2<<20)
	v.SetDefault("ratelimit.per_second", 5)
	v.SetDefault("ratelimit.burst", 10)
}

// LoadConfig reads the YAML config file and overlays environment variables
// (ELAPOR_SERVER_PORT overrides server.port, and so on).
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ELAPOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt.secret is required")
	}

	return &config, nil
}
