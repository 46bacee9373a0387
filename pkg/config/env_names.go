package config

// EnvPrefix is passed to envconfig; individual fields carry explicit
// STUVENDOR_-prefixed names so the prefix stays empty here.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "STUVENDOR_DB_DSN"
	EnvDBHost = "STUVENDOR_DB_HOST"
	EnvDBUser = "STUVENDOR_DB_USER"
	EnvDBName = "STUVENDOR_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
