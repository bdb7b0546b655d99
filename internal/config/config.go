package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	MongoURI      string
	MongoDB       string
	Port          string
	StorageDir    string
	PublicBaseURL string
	SessionSecret string
	AdminEmail    string
	AdminPassword string
}

func LoadConfig() *Config {
	// .env is only present in local development; deployed environments
	// configure through real environment variables.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			logrus.WithError(err).Warn("could not load .env file")
		}
	}

	return &Config{
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDB:       getEnv("MONGO_DB", "catalogAdmin"),
		Port:          getEnv("PORT", "8080"),
		StorageDir:    getEnv("STORAGE_DIR", "data/storage"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080/files"),
		SessionSecret: getEnv("SESSION_SECRET", "dev_fallback_secret"),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
