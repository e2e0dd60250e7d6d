package config

const (
	EnvPrefix = "VITRINE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN     = "VITRINE_DB_DSN"
	EnvDBHost    = "VITRINE_DB_HOST"
	EnvDBUser    = "VITRINE_DB_USER"
	EnvDBName    = "VITRINE_DB_NAME"
	EnvRedisURL  = "VITRINE_REDIS_URL"
	EnvRedisAddr = "VITRINE_REDIS_ADDR"

	minSecretsKeyLen = 16
)
