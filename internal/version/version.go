// Package version scrapes the application version from the runtime's
// metadata source file.
package version

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// ErrNoVersion is returned when the metadata file has no __version__ field.
var ErrNoVersion = errors.New("no __version__ field")

var (
	versionRegexp  = regexp.MustCompile(`__version__\s*=\s*u?['"]([^'"\n]*)['"]`)
	codenameRegexp = regexp.MustCompile(`\bcodename\s*=\s*u?['"]([^'"\n]*)['"]`)
)

// Metadata is the version information found in a metadata file.
type Metadata struct {
	Version  string
	Codename string
}

// Long returns the version followed by the codename, if there is one.
func (m Metadata) Long() string {
	if m.Codename == "" {
		return m.Version
	}
	return m.Version + " " + m.Codename
}

// Parse extracts __version__ and codename assignments from src.
// It reports false when no version is present; the codename is optional.
func Parse(src []byte) (Metadata, bool) {
	match := versionRegexp.FindSubmatch(src)
	if match == nil {
		return Metadata{}, false
	}
	m := Metadata{Version: strings.TrimSpace(string(match[1]))}
	if m.Version == "" {
		return Metadata{}, false
	}
	if match := codenameRegexp.FindSubmatch(src); match != nil {
		m.Codename = strings.TrimSpace(string(match[1]))
	}
	return m, true
}

// Read reads and parses the metadata file at path.
func Read(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("read version metadata: %w", err)
	}
	m, ok := Parse(data)
	if !ok {
		return Metadata{}, fmt.Errorf("parse version metadata %s: %w", path, ErrNoVersion)
	}
	return m, nil
}

// Resolve reads the metadata file at path and falls back to the given
// version, without a codename, when the file is unreadable or has no
// version. It never fails.
func Resolve(path, fallback string, logger *slog.Logger) Metadata {
	if logger == nil {
		logger = slog.Default()
	}
	m, err := Read(path)
	if err != nil {
		logger.Warn("could not read version metadata", "path", path, "fallback", fallback, "error", err)
		return Metadata{Version: fallback}
	}
	if _, ok := Canonical(m.Version); !ok {
		logger.Debug("version is not a semantic version", "version", m.Version)
	}
	return m
}

// Canonical returns the canonical semantic version of v (without the
// leading "v") and whether v is a valid semantic version at all.
// Python-style pre-releases such as "4.0.0a1" are reported as invalid.
func Canonical(v string) (string, bool) {
	sv := v
	if !strings.HasPrefix(sv, "v") {
		sv = "v" + sv
	}
	if !semver.IsValid(sv) {
		return "", false
	}
	return strings.TrimPrefix(semver.Canonical(sv), "v"), true
}
