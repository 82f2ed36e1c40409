package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   Server     `mapstructure:"server"`
	Database Database   `mapstructure:"database"`
	Store    Store      `mapstructure:"store"`
	Redis    Redis      `mapstructure:"redis"`
	JWT      JWT        `mapstructure:"jwt"`
	Logger   LoggerMode `mapstructure:"logger"`
	DevUsers []DevUser  `mapstructure:"dev_users"`
}

type Server struct {
	Port            string        `mapstructure:"port"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type Database struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// DSN renders the key/value connection string pgxpool.ParseConfig expects.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s database=%s", d.Host, d.Port, d.User, d.Password, d.Name)
}

// Store selects the message store backend: "postgres" or "memory".
type Store struct {
	Driver string `mapstructure:"driver"`
}

type Redis struct {
	Enabled       bool   `mapstructure:"enabled"`
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	ChannelPrefix string `mapstructure:"channel_prefix"`
}

type JWT struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type LoggerMode struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// DevUser is a local development account served by the memory store.
// PasswordHash is a bcrypt hash, see the hash-password command.
type DevUser struct {
	ID           string `mapstructure:"id"`
	Email        string `mapstructure:"email"`
	PasswordHash string `mapstructure:"password_hash"`
	FullName     string `mapstructure:"full_name"`
	AvatarURL    string `mapstructure:"avatar_url"`
	Role         string `mapstructure:"role"`
}

// DefaultJWTSecret is only accepted in development mode.
const DefaultJWTSecret = "change-me"

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3001")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "jobboard")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("store.driver", StoreDriverPostgres)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel_prefix", "messages")

	v.SetDefault("jwt.secret", DefaultJWTSecret)
	v.SetDefault("jwt.ttl", 24*time.Hour)

	v.SetDefault("logger.development", true)
	v.SetDefault("logger.level", "info")
}

// Load reads .env (if present), then config/<name>.yaml (if present), then
// the environment. Environment always wins.
func Load(name string) (*Config, error) {
	// a missing .env is normal outside development; a broken one is not
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath("config")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("JOBBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// the variable names db.InitDatabase has always read
	for key, env := range map[string]string{
		"database.host":     "DATABASE_HOST",
		"database.port":     "DATABASE_PORT",
		"database.user":     "DATABASE_USER",
		"database.password": "DATABASE_PASSWORD",
		"database.name":     "DATABASE_NAME",
	} {
		if err := v.BindEnv(key, "JOBBOARD_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, err
		}
	}

	return Parse(v)
}

func Parse(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt secret must not be empty")
	}
	if c.JWT.Secret == DefaultJWTSecret && !c.Logger.Development {
		return errors.New("jwt secret must be set outside development mode")
	}
	if c.JWT.TTL <= 0 {
		return errors.New("jwt ttl must be positive")
	}
	return nil
}
