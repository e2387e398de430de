package config

type Config interface {
	EnvConfig
	AuthConfig
	SessionConfig
}

type mainConfig struct {
	EnvVars
	Auth
	Session
}

func New() Config {
	return mainConfig{}
}
