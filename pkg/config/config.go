package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	Identity      IdentityConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = DefaultSQLiteDSN
		}
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MERCADOS_APP_ENV" required:"true"`
	Port         string `envconfig:"MERCADOS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MERCADOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MERCADOS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MERCADOS_DB_DSN"`
	Driver string `envconfig:"MERCADOS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MERCADOS_DB_HOST"`
	LegacyPort     int    `envconfig:"MERCADOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MERCADOS_DB_USER"`
	LegacyPassword string `envconfig:"MERCADOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"MERCADOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"MERCADOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MERCADOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MERCADOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MERCADOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MERCADOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MERCADOS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MERCADOS_REDIS_ADDR"`
	Password     string        `envconfig:"MERCADOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"MERCADOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MERCADOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MERCADOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MERCADOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MERCADOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MERCADOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// IdentityConfig points the service at the external identity provider.
type IdentityConfig struct {
	URL            string        `envconfig:"MERCADOS_IDENTITY_URL" required:"true"`
	AnonKey        string        `envconfig:"MERCADOS_IDENTITY_ANON_KEY" required:"true"`
	ServiceRoleKey string        `envconfig:"MERCADOS_IDENTITY_SERVICE_ROLE_KEY" required:"true"`
	Timeout        time.Duration `envconfig:"MERCADOS_IDENTITY_TIMEOUT" default:"10s"`
}

type AuthRateLimitConfig struct {
	SignupWindow     time.Duration `envconfig:"MERCADOS_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupEmailLimit int           `envconfig:"MERCADOS_AUTH_RATE_LIMIT_SIGNUP_EMAIL_LIMIT" default:"3"`
	SignupIPLimit    int           `envconfig:"MERCADOS_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MERCADOS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MERCADOS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
