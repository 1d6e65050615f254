package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerURL          string
	UserID             int
	PatientID          string
	PatientDescription *string
}

// Load reads configuration from a .env file (if present) and the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := Config{
		ServerURL: getEnv("LULU_SERVER_URL", "http://localhost:8000"),
		UserID:    getEnvAsInt("LULU_USER_ID", 1),
		PatientID: getEnv("LULU_PATIENT_ID", "user-1"),
	}
	if desc := getEnv("LULU_PATIENT_DESCRIPTION", ""); desc != "" {
		cfg.PatientDescription = &desc
	}
	return cfg
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
