package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the envconfig prefix shared by every service binary.
const EnvPrefix = "bazario"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Invites      InviteConfig
	FeatureFlags FeatureFlagsConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

// Load reads the full configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BAZARIO_APP_ENV" required:"true"`
	Port         string `envconfig:"BAZARIO_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"BAZARIO_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"BAZARIO_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"BAZARIO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"BAZARIO_DB_DSN"`

	LegacyHost     string `envconfig:"BAZARIO_DB_HOST"`
	LegacyPort     int    `envconfig:"BAZARIO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BAZARIO_DB_USER"`
	LegacyPassword string `envconfig:"BAZARIO_DB_PASSWORD"`
	LegacyName     string `envconfig:"BAZARIO_DB_NAME"`
	LegacySSLMode  string `envconfig:"BAZARIO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BAZARIO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BAZARIO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BAZARIO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BAZARIO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN assembles a postgres DSN from the legacy host/user parts when an
// explicit DSN is not provided.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("database config requires BAZARIO_DB_DSN or host/user/name parts")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.LegacyUser, d.LegacyPassword),
		Host:   fmt.Sprintf("%s:%d", d.LegacyHost, d.LegacyPort),
		Path:   d.LegacyName,
	}
	q := u.Query()
	q.Set("sslmode", d.LegacySSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL      string `envconfig:"BAZARIO_REDIS_URL"`
	Address  string `envconfig:"BAZARIO_REDIS_ADDRESS"`
	Password string `envconfig:"BAZARIO_REDIS_PASSWORD"`
	DB       int    `envconfig:"BAZARIO_REDIS_DB" default:"0"`
	PoolSize int    `envconfig:"BAZARIO_REDIS_POOL_SIZE" default:"10"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BAZARIO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BAZARIO_JWT_ISSUER" default:"bazario"`
	ExpirationMinutes int    `envconfig:"BAZARIO_JWT_EXPIRATION_MINUTES" default:"15"`
	RefreshTTLHours   int    `envconfig:"BAZARIO_JWT_REFRESH_TTL_HOURS" default:"720"`
}

// RefreshTokenTTL returns the refresh token lifetime as a duration.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(j.RefreshTTLHours) * time.Hour
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BAZARIO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BAZARIO_ARGON_TIME" default:"1"`
	ArgonParallelism int `envconfig:"BAZARIO_ARGON_PARALLELISM" default:"4"`
	ArgonSaltLen     int `envconfig:"BAZARIO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BAZARIO_ARGON_KEY_LEN" default:"32"`
	MinLength        int `envconfig:"BAZARIO_PASSWORD_MIN_LENGTH" default:"8"`
}

type InviteConfig struct {
	TokenTTL   time.Duration `envconfig:"BAZARIO_INVITE_TOKEN_TTL" default:"10m"`
	AcceptBase string        `envconfig:"BAZARIO_INVITE_ACCEPT_BASE" default:"http://localhost:8080/api/v1/invites/accept"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BAZARIO_FEATURE_AUTO_MIGRATE" default:"false"`
}

type PubSubConfig struct {
	ProjectID string `envconfig:"BAZARIO_PUBSUB_PROJECT_ID"`
	TopicID   string `envconfig:"BAZARIO_PUBSUB_TOPIC_ID" default:"bazario-domain-events"`
}

type OutboxConfig struct {
	PollInterval time.Duration `envconfig:"BAZARIO_OUTBOX_POLL_INTERVAL" default:"5s"`
	BatchSize    int           `envconfig:"BAZARIO_OUTBOX_BATCH_SIZE" default:"50"`
	MaxAttempts  int           `envconfig:"BAZARIO_OUTBOX_MAX_ATTEMPTS" default:"10"`
}
