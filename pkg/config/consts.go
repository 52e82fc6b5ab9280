package config

const EnvPrefix = "MERCADOS"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	// DefaultSQLiteDSN is the fallback database file when the sqlite flag
	// is on and no DSN is configured.
	DefaultSQLiteDSN = "file:mercados.db?cache=shared"
)

const (
	EnvAppEnv       = "MERCADOS_APP_ENV"
	EnvPort         = "MERCADOS_APP_PORT"
	EnvDBDSN        = "MERCADOS_DB_DSN"
	EnvDBHost       = "MERCADOS_DB_HOST"
	EnvDBUser       = "MERCADOS_DB_USER"
	EnvDBName       = "MERCADOS_DB_NAME"
	EnvRedisURL     = "MERCADOS_REDIS_URL"
	EnvIdentityURL  = "MERCADOS_IDENTITY_URL"
	EnvIdentityAnon = "MERCADOS_IDENTITY_ANON_KEY"
	EnvIdentityRole = "MERCADOS_IDENTITY_SERVICE_ROLE_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
