package system

import (
	"os"
	"strings"
)

// Environment variable constants for appfinish
const (
	// Settings overrides
	EnvAppName      = "APPFINISH_APP_NAME"
	EnvIdentifier   = "APPFINISH_IDENTIFIER"
	EnvCondaEnv     = "APPFINISH_CONDA_ENV"
	EnvEntryScript  = "APPFINISH_ENTRY_SCRIPT"
	EnvOutputFolder = "APPFINISH_OUTPUT_FOLDER"
	EnvIcon         = "APPFINISH_ICON"
	EnvResourceDir  = "APPFINISH_RESOURCE_DIR"
	EnvExcludeFiles = "APPFINISH_EXCLUDE_FILES"

	// Logging
	EnvDebug   = "APPFINISH_DEBUG"
	EnvLogJSON = "APPFINISH_LOG_JSON"
	EnvLogDest = "APPFINISH_LOG_DEST"
	EnvLogTime = "APPFINISH_LOG_TIME"
)

// GetBool returns the boolean value of an environment variable.
// Returns true if the variable is set to "1", "true", "yes", or "on" (case-insensitive).
// Returns false otherwise.
func GetBool(key string) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

// GetString returns the string value of an environment variable.
// Returns the defaultValue if the variable is not set or empty.
func GetString(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

// GetStringSlice returns a slice of strings from an environment variable.
// The value should be comma-separated. Empty values are filtered out.
func GetStringSlice(key string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}

	return result
}

// IsDebugEnabled checks if debug mode is enabled via environment variable.
func IsDebugEnabled() bool {
	return GetBool(EnvDebug)
}

// AllEnvVars returns a list of all known appfinish environment variables.
func AllEnvVars() []string {
	return []string{
		EnvAppName,
		EnvIdentifier,
		EnvCondaEnv,
		EnvEntryScript,
		EnvOutputFolder,
		EnvIcon,
		EnvResourceDir,
		EnvExcludeFiles,
		EnvDebug,
		EnvLogJSON,
		EnvLogDest,
		EnvLogTime,
	}
}
