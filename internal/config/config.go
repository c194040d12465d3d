package config

import "os"

type Config struct {
	Port     string
	Env      string
	DBSource string // optional; enables the audit journal when set
}

func Load() *Config {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &Config{
		Port:     port,
		Env:      env,
		DBSource: os.Getenv("DB_SOURCE"),
	}
}
