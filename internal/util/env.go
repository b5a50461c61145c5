package util

import (
	"os"
	"strconv"

	"github.com/isEarth/earth-api/pkg/logger"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a .env file if one exists. Missing files are
// fine; the process then runs on the system environment alone.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using system environment variables")
	}
}

func GetEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return ""
	}
	return value
}

func GetEnvString(key string, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	return value
}

func GetEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	returnValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return returnValue
}

func GetEnvNumeric(key string, defaultValue float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	returnValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return returnValue
}

func GetEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	if value == "true" || value == "false" {
		return value == "true"
	}

	return defaultValue
}
