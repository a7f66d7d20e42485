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
	Admin         AdminConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Cart          CartConfig
	Checkout      CheckoutConfig
	Uploads       UploadsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
}

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
	Env          string `envconfig:"WHOLESALE_APP_ENV" required:"true"`
	Port         string `envconfig:"WHOLESALE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"WHOLESALE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"WHOLESALE_LOG_WARN_STACK" default:"false"`
	// LogFormat is "json" or "console".
	LogFormat string `envconfig:"WHOLESALE_LOG_FORMAT" default:"json"`

	CORSOrigins []string `envconfig:"WHOLESALE_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) ConsoleLogs() bool {
	return strings.EqualFold(a.LogFormat, "console")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"WHOLESALE_SERVICE_KIND" default:"api"`
}

// DBConfig is optional: an empty DSN (and no legacy host) keeps the API on
// the in-memory fallback catalog.
type DBConfig struct {
	DSN    string `envconfig:"WHOLESALE_DB_DSN"`
	Driver string `envconfig:"WHOLESALE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"WHOLESALE_DB_HOST"`
	LegacyPort     int    `envconfig:"WHOLESALE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"WHOLESALE_DB_USER"`
	LegacyPassword string `envconfig:"WHOLESALE_DB_PASSWORD"`
	LegacyName     string `envconfig:"WHOLESALE_DB_NAME"`
	LegacySSLMode  string `envconfig:"WHOLESALE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"WHOLESALE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WHOLESALE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WHOLESALE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WHOLESALE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	// SlowQuery is the duration above which statements are logged as slow.
	SlowQuery time.Duration `envconfig:"WHOLESALE_DB_SLOW_QUERY" default:"200ms"`
}

// Configured reports whether a database connection should be opened.
func (db DBConfig) Configured() bool {
	return strings.TrimSpace(db.DSN) != ""
}

type RedisConfig struct {
	URL          string        `envconfig:"WHOLESALE_REDIS_URL"`
	Address      string        `envconfig:"WHOLESALE_REDIS_ADDR"`
	Password     string        `envconfig:"WHOLESALE_REDIS_PASSWORD"`
	DB           int           `envconfig:"WHOLESALE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WHOLESALE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WHOLESALE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WHOLESALE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WHOLESALE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WHOLESALE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether a Redis connection should be opened.
func (r RedisConfig) Configured() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type AdminConfig struct {
	User     string `envconfig:"ADMIN_USER" default:"admin"`
	Password string `envconfig:"ADMIN_PASS" default:"Password@123"`
}

type JWTConfig struct {
	Secret            string `envconfig:"WHOLESALE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"WHOLESALE_JWT_ISSUER" default:"wholesale-admin"`
	ExpirationMinutes int    `envconfig:"WHOLESALE_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// TTL returns the admin session lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"WHOLESALE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"WHOLESALE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"WHOLESALE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"WHOLESALE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"WHOLESALE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow    time.Duration `envconfig:"WHOLESALE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit   int           `envconfig:"WHOLESALE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"10"`
	LoginUserLimit int           `envconfig:"WHOLESALE_AUTH_RATE_LIMIT_LOGIN_USER_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"WHOLESALE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"WHOLESALE_AUTO_MIGRATE" default:"false"`
}

type CartConfig struct {
	SessionTTL time.Duration `envconfig:"WHOLESALE_CART_SESSION_TTL" default:"168h"`
}

type CheckoutConfig struct {
	WhatsAppNumber string `envconfig:"WHOLESALE_WHATSAPP_NUMBER" default:"919876543210"`
	LogAttempts    int    `envconfig:"WHOLESALE_CHECKOUT_LOG_ATTEMPTS" default:"3"`
}

type UploadsConfig struct {
	Dir       string `envconfig:"WHOLESALE_UPLOADS_DIR" default:"public/uploads"`
	PublicURL string `envconfig:"WHOLESALE_UPLOADS_PUBLIC_URL" default:"/uploads"`
	MaxMB     int    `envconfig:"WHOLESALE_UPLOADS_MAX_MB" default:"5"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"WHOLESALE_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"WHOLESALE_PUBSUB_ORDERS_TOPIC" default:"wholesale-order-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"WHOLESALE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"WHOLESALE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"WHOLESALE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"WHOLESALE_OUTBOX_RETENTION_DAYS" default:"30"`
	// MetricsAddr enables a /metrics listener on the publisher, e.g. ":9091".
	MetricsAddr string `envconfig:"WHOLESALE_OUTBOX_METRICS_ADDR"`
}

// CronConfig sets how often the maintenance jobs run. Tick is the scheduler
// resolution; a job never runs more often than its own interval.
type CronConfig struct {
	Tick             time.Duration `envconfig:"WHOLESALE_CRON_TICK" default:"1m"`
	RetentionEvery   time.Duration `envconfig:"WHOLESALE_CRON_RETENTION_EVERY" default:"24h"`
	BacklogEvery     time.Duration `envconfig:"WHOLESALE_CRON_BACKLOG_EVERY" default:"5m"`
	BacklogThreshold int64         `envconfig:"WHOLESALE_CRON_BACKLOG_THRESHOLD" default:"100"`
	MetricsAddr      string        `envconfig:"WHOLESALE_CRON_METRICS_ADDR"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.LegacyHost == "" && db.LegacyUser == "" && db.LegacyName == "" {
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
