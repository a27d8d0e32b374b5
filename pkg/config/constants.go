package config

const (
	EnvPrefix = "LOGISTICS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	SequenceBackendStore = "store"
	SequenceBackendRedis = "redis"

	EnvAppEnv              = "LOGISTICS_APP_ENV"
	EnvDBDSN               = "LOGISTICS_DB_DSN"
	EnvDBHost              = "LOGISTICS_DB_HOST"
	EnvDBUser              = "LOGISTICS_DB_USER"
	EnvDBName              = "LOGISTICS_DB_NAME"
	EnvUseSQLite           = "LOGISTICS_USE_SQLITE"
	EnvRedisURL            = "LOGISTICS_REDIS_URL"
	EnvRedisAddr           = "LOGISTICS_REDIS_ADDR"
	EnvSequenceBackend     = "LOGISTICS_SEQUENCE_BACKEND"
	EnvSequenceMaxAttempts = "LOGISTICS_SEQUENCE_MAX_ATTEMPTS"
	EnvCronInterval        = "LOGISTICS_CRON_INTERVAL"
)

var componentDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
