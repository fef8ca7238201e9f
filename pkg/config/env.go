package config

// EnvPrefix is handed to envconfig; every field also carries its full name as an alt key.
const EnvPrefix = "ENTRYDESK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "ENTRYDESK_APP_ENV"
	EnvPort     = "ENTRYDESK_APP_PORT"
	EnvLogLevel = "ENTRYDESK_LOG_LEVEL"

	EnvDBDSN    = "ENTRYDESK_DB_DSN"
	EnvDBDriver = "ENTRYDESK_DB_DRIVER"
	EnvDBHost   = "ENTRYDESK_DB_HOST"
	EnvDBUser   = "ENTRYDESK_DB_USER"
	EnvDBName   = "ENTRYDESK_DB_NAME"

	EnvRedisURL = "ENTRYDESK_REDIS_URL"

	EnvJWTSecret              = "ENTRYDESK_JWT_SECRET"
	EnvJWTIssuer              = "ENTRYDESK_JWT_ISSUER"
	EnvJWTExpMins             = "ENTRYDESK_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "ENTRYDESK_REFRESH_TOKEN_TTL_MINUTES"

	EnvGCPProjectID          = "ENTRYDESK_GCP_PROJECT_ID"
	EnvPubSubEntryTopic      = "ENTRYDESK_PUBSUB_ENTRY_TOPIC"
	EnvPubSubNotificationSub = "ENTRYDESK_PUBSUB_NOTIFICATION_SUBSCRIPTION"

	EnvReviewSLAHours = "ENTRYDESK_REVIEW_SLA_HOURS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)
