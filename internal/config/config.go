package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port            int
	DataPath        string
	UploadPath      string
	OutputPath      string
	DBPath          string
	ConfigPath      string
	DefaultModel    string
	DefaultCompute  string
	WhisperPython   string
	WhisperDevice   string
	DefaultLanguage string
	DefaultTask     string
	Workers         int
	RetentionHours  int
	CORSOrigins     []string
}

func Load() *Config {
	port, _ := strconv.Atoi(getEnv("PORT", "8080"))
	dataPath := getEnv("DATA_PATH", "/data")

	workers, _ := strconv.Atoi(getEnv("MAX_WORKERS", "2"))
	if workers < 1 {
		workers = 1
	}

	retention, _ := strconv.Atoi(getEnv("RETENTION_HOURS", "24"))

	// CORS origins: comma-separated list or "*" (default)
	corsOrigins := []string{"*"}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		corsOrigins = make([]string, 0, len(origins))
		for _, o := range origins {
			o = strings.TrimSpace(o)
			if o != "" {
				corsOrigins = append(corsOrigins, o)
			}
		}
	}

	return &Config{
		Port:            port,
		DataPath:        dataPath,
		UploadPath:      getEnv("UPLOAD_PATH", dataPath+"/uploads"),
		OutputPath:      getEnv("OUTPUT_PATH", dataPath+"/outputs"),
		DBPath:          getEnv("DB_PATH", dataPath+"/transcriber.db"),
		ConfigPath:      getEnv("CONFIG_PATH", dataPath+"/config.json"),
		DefaultModel:    getEnv("MODEL_ID", "base"),
		DefaultCompute:  getEnv("COMPUTE_TYPE", "int8"),
		WhisperPython:   getEnv("WHISPER_PY", "python3"),
		WhisperDevice:   os.Getenv("WHISPER_DEVICE"),
		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "ja"),
		DefaultTask:     getEnv("DEFAULT_TASK", "transcribe"),
		Workers:         workers,
		RetentionHours:  retention,
		CORSOrigins:     corsOrigins,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
