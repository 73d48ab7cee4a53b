// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"kitchenback/internal/logger"
)

// Variables available everywhere
var (
	baseDir         string
	dataDirectory   string
	logsDirectory   string
	dbPath          string
	inventoryLocale string
	templatesPath   string

	LogFileFormat    string
	AllowedOrigin    string // For CORS
	HistoryRetention time.Duration
	HistoryKeep      int // completed sessions always kept per restaurant
)

//
// --- Utility Helpers ---
//

// Helper: get a setting based on ENVIRONMENT (dev or prod)
func GetEnvBasedSetting(base string) string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}
	return os.Getenv(fmt.Sprintf("%s_%s", base, strings.ToUpper(env)))
}

// Helper: log which environment is running
func LogCurrentEnvironment() {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	if env == "dev" {
		logger.LogInfo("Running in development environment")
	} else {
		logger.LogInfo("Running in production environment")
	}
}

//
// --- Loaders ---
//

// LoadEnv reads .env file
func LoadEnv() {
	wd, err := os.Getwd()
	if err != nil {
		log.Printf("Could not determine working directory: %v", err)
	} else {
		log.Printf("Current working directory: %s", wd)
	}

	err = godotenv.Load(".env")
	if err != nil {
		log.Printf("No .env file found in %s. Using system environment variables.", wd)
	} else {
		log.Printf("Loaded environment variables from .env file in %s", wd)
	}
}

// LoggerConfig returns a logger.Config struct populated from environment
func LoggerConfig() logger.Config {
	logDir := GetEnvBasedSetting("LOGS_DIRECTORY")
	if logDir == "" {
		logDir = "./logs"
	}

	logFormat := GetEnvBasedSetting("LOG_FILE_FORMAT")
	if logFormat == "" {
		logFormat = "./logs/server_%s.log"
	}

	timezone := os.Getenv("TIME_ZONE")
	if timezone == "" {
		timezone = "Local"
	}

	return logger.Config{
		LogsDirectory: logDir,
		LogFileFormat: logFormat,
		TimeZone:      timezone,
	}
}

// ConfigurePaths sets up folders and paths
func ConfigurePaths() {
	wd, err := os.Getwd()
	if err != nil {
		logger.LogFatal("Failed to get working directory: %v", err)
	}
	baseDir = wd

	dataDir := GetEnvBasedSetting("DATA_DIRECTORY")
	if dataDir != "" {
		dataDirectory = dataDir
	} else {
		dataDirectory = filepath.Join(baseDir, "data")
	}

	logsDir := GetEnvBasedSetting("LOGS_DIRECTORY")
	if logsDir != "" {
		logsDirectory = logsDir
	} else {
		logsDirectory = filepath.Join(baseDir, "logs")
	}

	dbFile := GetEnvBasedSetting("DB_PATH")
	if dbFile != "" {
		dbPath = dbFile
	} else {
		dbPath = filepath.Join(dataDirectory, "kitchenback.db")
	}

	templatesPath = os.Getenv("CHECKLIST_TEMPLATES")
	if templatesPath == "" {
		templatesPath = filepath.Join(baseDir, "templates", "checklists.yaml")
	}

	LogFileFormat = filepath.Join(logsDirectory, "server_%s.log")
}

// LoadInventoryConfig loads inventory core settings.
func LoadInventoryConfig() {
	inventoryLocale = os.Getenv("INVENTORY_LOCALE")
	if inventoryLocale == "" {
		inventoryLocale = "ru"
	}
	logger.LogInfo("Inventory locale: %s", inventoryLocale)

	HistoryKeep = 20
	if keep := os.Getenv("HISTORY_KEEP"); keep != "" {
		n, err := strconv.Atoi(keep)
		if err != nil || n <= 0 {
			logger.LogWarn("Invalid HISTORY_KEEP: %s, using default 20", keep)
		} else {
			HistoryKeep = n
		}
	}

	HistoryRetention = 90 * 24 * time.Hour
	if days := os.Getenv("HISTORY_RETENTION_DAYS"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			logger.LogWarn("Invalid HISTORY_RETENTION_DAYS: %s, using default 90", days)
		} else {
			HistoryRetention = time.Duration(n) * 24 * time.Hour
		}
	}
}

// LoadCORSConfig loads CORS settings
func LoadCORSConfig() {
	AllowedOrigin = GetEnvBasedSetting("ALLOWED_ORIGIN")
	if AllowedOrigin == "" {
		AllowedOrigin = "*" // Allow all - be careful in prod
		logger.LogWarn("ALLOWED_ORIGIN not set, using '*' (allow all origins) - SECURITY RISK")
	} else {
		logger.LogInfo("Allowed Origin: %s", AllowedOrigin)
	}
}

//
// --- Getters (exported) ---
//

func DataDirectory() string {
	return dataDirectory
}

func LogsDirectory() string {
	return logsDirectory
}

func DBPath() string {
	return dbPath
}

func InventoryLocale() string {
	return inventoryLocale
}

func TemplatesPath() string {
	return templatesPath
}
