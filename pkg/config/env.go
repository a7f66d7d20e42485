package config

// EnvPrefix is passed to envconfig; every field carries an explicit key so it
// only matters for unkeyed fields.
const EnvPrefix = "WHOLESALE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "WHOLESALE_APP_ENV"
	EnvPort       = "WHOLESALE_APP_PORT"
	EnvDBDSN      = "WHOLESALE_DB_DSN"
	EnvDBHost     = "WHOLESALE_DB_HOST"
	EnvDBUser     = "WHOLESALE_DB_USER"
	EnvDBName     = "WHOLESALE_DB_NAME"
	EnvRedisURL   = "WHOLESALE_REDIS_URL"
	EnvJWTSecret  = "WHOLESALE_JWT_SECRET"
	EnvAdminUser  = "ADMIN_USER"
	EnvAdminPass  = "ADMIN_PASS"
	EnvWhatsApp   = "WHOLESALE_WHATSAPP_NUMBER"
	EnvUploadsDir = "WHOLESALE_UPLOADS_DIR"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
