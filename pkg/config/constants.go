package config

// EnvPrefix is passed to envconfig; individual fields carry full variable names.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvDBDSN  = "SHOPLANE_DB_DSN"
	EnvDBHost = "SHOPLANE_DB_HOST"
	EnvDBUser = "SHOPLANE_DB_USER"
	EnvDBName = "SHOPLANE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
