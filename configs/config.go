package config

import (
	"os"
	"strconv"
)

type Config struct {
	ListenAddr           string
	AccountsFile         string
	SoundsDir            string
	UploadDir            string
	GoogleClientID       string
	GoogleClientSecret   string
	UploadChunkSize      int
	FFmpegPath           string
	TokenRefreshSchedule string
}

func LoadConfig() *Config {
	return &Config{
		ListenAddr:           getEnv("LISTEN_ADDR", ":8048"),
		AccountsFile:         getEnv("ACCOUNTS_FILE", "config/accounts.json"),
		SoundsDir:            getEnv("SOUNDS_DIR", "sounds"),
		UploadDir:            getEnv("UPLOAD_DIR", os.TempDir()),
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		UploadChunkSize:      getEnvInt("UPLOAD_CHUNK_SIZE", 8*1024*1024),
		FFmpegPath:           getEnv("FFMPEG_PATH", "ffmpeg"),
		TokenRefreshSchedule: getEnv("TOKEN_REFRESH_SCHEDULE", "@every 00h10m00s"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
