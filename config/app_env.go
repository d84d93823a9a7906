package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/akeren/digitalcraft-dispatch/internal/log"
	"github.com/akeren/digitalcraft-dispatch/pkg/utils"
	"github.com/joho/godotenv"
)

const (
	AppEnvKey = "APP_ENV"

	// DotenvFilesKey lists env files to load, earliest wins, e.g.
	// ".env.local,.env". Defaults to ".env".
	DotenvFilesKey = "DOTENV_FILES"
)

// autoMigrateEnvs are the APP_ENV values where the server and CLI may run
// schema changes on boot.
var autoMigrateEnvs = []string{"", "dev", "development", "local", "test", "testing"}

// InitializeEnvFile loads env files for both the server and the CLI. Values
// already present in the process environment are never overridden, and
// missing files are skipped.
func InitializeEnvFile(logger *log.Logger) {
	if utils.GetEnvBool("SKIP_DOTENV", false) {
		logger.Info("Skipping env files (SKIP_DOTENV=true)")
		return
	}

	loaded := 0
	for _, file := range dotenvFiles() {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			logger.Warn("Failed to load env file", "file", file, "error", err.Error())
			continue
		}
		loaded++
		logger.Info("Loaded env file", "file", file)
	}

	if loaded == 0 {
		logger.Info("No env file loaded; using process environment only")
	}
}

func dotenvFiles() []string {
	var files []string
	for _, f := range strings.Split(utils.GetEnvTrimmedOrDefault(DotenvFilesKey, ".env"), ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	return files
}

// GetValueFromEnvironmentVariable distinguishes an explicitly empty value
// from an unset one.
func GetValueFromEnvironmentVariable(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func GetAppEnv() string {
	return strings.ToLower(utils.GetEnvTrimmed(AppEnvKey))
}

func ValidateAutoMigrateAllowed(appEnv string) error {
	env := strings.ToLower(strings.TrimSpace(appEnv))
	if slices.Contains(autoMigrateEnvs, env) {
		return nil
	}

	return fmt.Errorf("--auto-migrate is not allowed when %s=%q (allowed: %s)", AppEnvKey, env, strings.Join(autoMigrateEnvs[1:], ", "))
}
