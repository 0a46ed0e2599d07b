// Package launchservices registers a finished app bundle with the macOS
// LaunchServices database, so Finder picks up its document types and
// exported UTIs without waiting for the next lsregister scan. No cgo
// required.
package launchservices

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/tmc/appfinish/internal/system"
)

// ErrUnsupported is returned on platforms without LaunchServices.
var ErrUnsupported = errors.New("launchservices: only supported on macOS")

// Register adds or updates the bundle at appPath in the LaunchServices
// database.
func Register(appPath string) error {
	abs, err := filepath.Abs(appPath)
	if err != nil {
		return fmt.Errorf("resolve app path: %w", err)
	}
	if !system.IsAppBundle(abs) {
		return fmt.Errorf("launchservices: %s is not an app bundle", appPath)
	}
	return register(abs)
}

// DefaultHandler returns the bundle identifier of the application that
// LaunchServices opens files of the given content type with, for any role.
func DefaultHandler(contentType string) (string, error) {
	if contentType == "" {
		return "", fmt.Errorf("launchservices: content type is required")
	}
	return defaultHandler(contentType)
}
