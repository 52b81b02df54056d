package logger

import (
	"os"
	"strconv"
)

// ConfigFromEnv reads logger settings from the environment:
//
//	LOG_LEVEL, LOG_FORMAT, SERVICE_NAME, APP_ENV,
//	LOG_FILE, LOG_FILE_ONLY,
//	LOG_MAX_SIZE, LOG_MAX_BACKUPS, LOG_MAX_AGE, LOG_COMPRESS
func ConfigFromEnv() *Config {
	return &Config{
		Level:       envString("LOG_LEVEL", "info"),
		Format:      envString("LOG_FORMAT", "json"),
		ServiceName: envString("SERVICE_NAME", "plantgram"),
		Environment: envString("APP_ENV", "local"),
		File:        envString("LOG_FILE", "/var/log/plantgram/app.log"),
		FileOnly:    envBool("LOG_FILE_ONLY", false),
		Rotation: Rotation{
			MaxSizeMB:  envInt("LOG_MAX_SIZE", 100),
			MaxBackups: envInt("LOG_MAX_BACKUPS", 7),
			MaxAgeDays: envInt("LOG_MAX_AGE", 30),
			Compress:   envBool("LOG_COMPRESS", true),
		},
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	i, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return i
}
