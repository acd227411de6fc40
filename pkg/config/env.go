package config

// EnvPrefix is the envconfig prefix shared by every service binary.
const EnvPrefix = "BLACKBASS"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvDBDSN  = "BLACKBASS_DB_DSN"
	EnvDBHost = "BLACKBASS_DB_HOST"
	EnvDBUser = "BLACKBASS_DB_USER"
	EnvDBName = "BLACKBASS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
