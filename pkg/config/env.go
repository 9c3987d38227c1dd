package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	StorageDriverGCS   = "gcs"
	StorageDriverS3    = "s3"
	StorageDriverLocal = "local"
)

const (
	EnvAppEnv        = "STOREFRONT_APP_ENV"
	EnvPort          = "STOREFRONT_APP_PORT"
	EnvAPIPrefix     = "STOREFRONT_API_PREFIX"
	EnvDBDSN         = "STOREFRONT_DB_DSN"
	EnvDBDriver      = "STOREFRONT_DB_DRIVER"
	EnvDBHost        = "STOREFRONT_DB_HOST"
	EnvDBUser        = "STOREFRONT_DB_USER"
	EnvDBPassword    = "STOREFRONT_DB_PASSWORD"
	EnvDBName        = "STOREFRONT_DB_NAME"
	EnvRedisURL      = "STOREFRONT_REDIS_URL"
	EnvJWTSecret     = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer     = "STOREFRONT_JWT_ISSUER"
	EnvJWTAudience   = "STOREFRONT_JWT_AUDIENCE"
	EnvStorageDriver = "STOREFRONT_STORAGE_DRIVER"
	EnvGCSBucket     = "STOREFRONT_GCS_BUCKET_NAME"
	EnvS3Bucket      = "STOREFRONT_S3_BUCKET"
	EnvS3Region      = "STOREFRONT_S3_REGION"
	EnvOrdersTopic   = "STOREFRONT_PUBSUB_ORDERS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
