package config

// Environment variable names shared between Load and tests.
const (
	EnvAppEnv       = "MOM_APP_ENV"
	EnvPort         = "MOM_APP_PORT"
	EnvLogLevel     = "MOM_LOG_LEVEL"
	EnvMirrorDriver = "MOM_MIRROR_DRIVER"
	EnvRedisURL     = "MOM_REDIS_URL"
	EnvDBDriver     = "MOM_DB_DRIVER"
	EnvDBDSN        = "MOM_DB_DSN"
	EnvBackendBase  = "MOM_BACKEND_BASE_URL"
	EnvGCPProjectID = "MOM_GCP_PROJECT_ID"
	EnvEventsTopic  = "MOM_PUBSUB_EVENTS_TOPIC"
	EnvEventsSub    = "MOM_PUBSUB_EVENTS_SUBSCRIPTION"
)
