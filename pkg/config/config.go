package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Sequence     SequenceConfig
	Ledger       LedgerConfig
	Inventory    InventoryConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Sequence.validate(cfg.Redis); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LOGISTICS_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"LOGISTICS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOGISTICS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LOGISTICS_SERVICE_KIND" default:"cron-worker"`
}

type DBConfig struct {
	DSN    string `envconfig:"LOGISTICS_DB_DSN"`
	Driver string `envconfig:"LOGISTICS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"LOGISTICS_DB_HOST"`
	Port     int    `envconfig:"LOGISTICS_DB_PORT" default:"5432"`
	User     string `envconfig:"LOGISTICS_DB_USER"`
	Password string `envconfig:"LOGISTICS_DB_PASSWORD"`
	Name     string `envconfig:"LOGISTICS_DB_NAME"`
	SSLMode  string `envconfig:"LOGISTICS_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"LOGISTICS_DB_SQLITE_PATH" default:"logistics.db"`

	MaxOpenConns    int           `envconfig:"LOGISTICS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LOGISTICS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LOGISTICS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LOGISTICS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LOGISTICS_REDIS_URL"`
	Address      string        `envconfig:"LOGISTICS_REDIS_ADDR"`
	Password     string        `envconfig:"LOGISTICS_REDIS_PASSWORD"`
	DB           int           `envconfig:"LOGISTICS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LOGISTICS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOGISTICS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOGISTICS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOGISTICS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOGISTICS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LOGISTICS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LOGISTICS_AUTO_MIGRATE" default:"false"`
}

type SequenceConfig struct {
	Backend     string `envconfig:"LOGISTICS_SEQUENCE_BACKEND" default:"store"`
	MaxAttempts int    `envconfig:"LOGISTICS_SEQUENCE_MAX_ATTEMPTS" default:"8"`
}

type LedgerConfig struct {
	ClaimTTL        time.Duration `envconfig:"LOGISTICS_LEDGER_CLAIM_TTL" default:"2m"`
	ClaimWaitPolls  int           `envconfig:"LOGISTICS_LEDGER_CLAIM_WAIT_POLLS" default:"5"`
	ClaimPollPeriod time.Duration `envconfig:"LOGISTICS_LEDGER_CLAIM_POLL_PERIOD" default:"100ms"`
}

type InventoryConfig struct {
	MaxCASAttempts int `envconfig:"LOGISTICS_INVENTORY_MAX_CAS_ATTEMPTS" default:"5"`
}

type CronConfig struct {
	Interval    time.Duration `envconfig:"LOGISTICS_CRON_INTERVAL" default:"15m"`
	LockTTL     time.Duration `envconfig:"LOGISTICS_CRON_LOCK_TTL" default:"30m"`
	OpsAddr     string        `envconfig:"LOGISTICS_CRON_OPS_ADDR" default:":9090"`
	ActorSource string        `envconfig:"LOGISTICS_CRON_ACTOR" default:"system:reconciler"`
}

// UsesRedis reports whether the sequence counter should run on Redis INCR.
func (s SequenceConfig) UsesRedis() bool {
	return strings.EqualFold(strings.TrimSpace(s.Backend), SequenceBackendRedis)
}

func (s SequenceConfig) validate(redis RedisConfig) error {
	backend := strings.ToLower(strings.TrimSpace(s.Backend))
	switch backend {
	case SequenceBackendStore:
	case SequenceBackendRedis:
		if !redis.Enabled() {
			return fmt.Errorf("%s=redis requires %s or %s", EnvSequenceBackend, EnvRedisURL, EnvRedisAddr)
		}
	default:
		return fmt.Errorf("unknown sequence backend %q", s.Backend)
	}
	if s.MaxAttempts <= 0 {
		return fmt.Errorf("%s must be positive", EnvSequenceMaxAttempts)
	}
	return nil
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range componentDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
