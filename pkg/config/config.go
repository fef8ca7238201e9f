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
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Workflow      WorkflowConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ENTRYDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"ENTRYDESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ENTRYDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ENTRYDESK_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma separated allow list; empty uses the local dev origins.
	CORSOrigins []string `envconfig:"ENTRYDESK_CORS_ORIGINS"`
	// MetricsAddr is the /metrics listen address for background workers; empty disables it.
	MetricsAddr string `envconfig:"ENTRYDESK_METRICS_ADDR"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ENTRYDESK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ENTRYDESK_DB_DSN"`
	Driver string `envconfig:"ENTRYDESK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ENTRYDESK_DB_HOST"`
	LegacyPort     int    `envconfig:"ENTRYDESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ENTRYDESK_DB_USER"`
	LegacyPassword string `envconfig:"ENTRYDESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"ENTRYDESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"ENTRYDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ENTRYDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ENTRYDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ENTRYDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ENTRYDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the local sqlite driver was selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"ENTRYDESK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ENTRYDESK_REDIS_ADDR"`
	Password     string        `envconfig:"ENTRYDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"ENTRYDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ENTRYDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ENTRYDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ENTRYDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ENTRYDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ENTRYDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ENTRYDESK_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ENTRYDESK_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"ENTRYDESK_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"ENTRYDESK_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ENTRYDESK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ENTRYDESK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ENTRYDESK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ENTRYDESK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ENTRYDESK_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow           time.Duration `envconfig:"ENTRYDESK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIdentityLimit    int           `envconfig:"ENTRYDESK_AUTH_RATE_LIMIT_LOGIN_IDENTITY_LIMIT" default:"5"`
	LoginIPLimit          int           `envconfig:"ENTRYDESK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow        time.Duration `envconfig:"ENTRYDESK_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterIdentityLimit int           `envconfig:"ENTRYDESK_AUTH_RATE_LIMIT_REGISTER_IDENTITY_LIMIT" default:"3"`
	RegisterIPLimit       int           `envconfig:"ENTRYDESK_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ENTRYDESK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ENTRYDESK_AUTO_MIGRATE" default:"false"`
	AdminSignup bool `envconfig:"ENTRYDESK_FEATURE_ADMIN_SIGNUP" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"ENTRYDESK_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	HTTPIdempotencyTTL   time.Duration `envconfig:"ENTRYDESK_HTTP_IDEMPOTENCY_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ENTRYDESK_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"ENTRYDESK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ENTRYDESK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	EntryTopic               string `envconfig:"ENTRYDESK_PUBSUB_ENTRY_TOPIC" default:"ed-entry-events"`
	NotificationSubscription string `envconfig:"ENTRYDESK_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"ENTRYDESK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"ENTRYDESK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"ENTRYDESK_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"ENTRYDESK_OUTBOX_RETENTION" default:"720h"`
}

type WorkflowConfig struct {
	ReviewSLAHours int `envconfig:"ENTRYDESK_REVIEW_SLA_HOURS" default:"72"`
	ReminderBatch  int `envconfig:"ENTRYDESK_REVIEW_REMINDER_BATCH" default:"200"`
	// NotificationRetention bounds how long read notifications are kept.
	NotificationRetention time.Duration `envconfig:"ENTRYDESK_NOTIFICATION_RETENTION" default:"2160h"`
}

// ReviewSLA is how long an entry may wait in PENDING before admins are reminded.
func (w WorkflowConfig) ReviewSLA() time.Duration {
	if w.ReviewSLAHours <= 0 {
		return 72 * time.Hour
	}
	return time.Duration(w.ReviewSLAHours) * time.Hour
}

type CronConfig struct {
	Interval time.Duration `envconfig:"ENTRYDESK_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"ENTRYDESK_CRON_LOCK_TTL" default:"10m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:entrydesk.db?cache=shared"
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
