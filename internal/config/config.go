// Package config resolves the settings table from defaults, an optional
// appfinish.yaml file and APPFINISH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tmc/appfinish"
	"github.com/tmc/appfinish/internal/system"
	"github.com/tmc/appfinish/internal/version"
)

// FileName is the settings file looked up in the working directory.
const FileName = "appfinish.yaml"

// Options controls Load.
type Options struct {
	// Path is an explicit settings file. When empty, FileName in Dir is
	// used if it exists.
	Path string
	// Dir is where FileName and .env are looked up. Defaults to ".".
	Dir string
	// SkipVersionScrape leaves the version from defaults/file untouched.
	SkipVersionScrape bool
	Logger            *slog.Logger
}

// LoadOptional reads a settings file on top of base. A missing file is
// not an error unless required is set.
func LoadOptional(path string, base *appfinish.Settings, required bool) (*appfinish.Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return base, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	s := *base
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return &s, nil
}

// Load resolves the settings table. The order of precedence is
// environment, settings file, defaults. The version metadata file is read
// last, once, and the result is returned as a fresh value.
func Load(opts Options) (*appfinish.Settings, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	// A .env file only fills in variables that are not already set.
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	defaults := appfinish.DefaultSettings()
	path, required := opts.Path, opts.Path != ""
	if path == "" {
		path = filepath.Join(dir, FileName)
	}
	s, err := LoadOptional(path, defaults, required)
	if err != nil {
		return nil, err
	}

	s = applyEnv(s)

	// File types follow the app name, identifier and icon.
	s.SupportedFiles = s.DefaultFileAssociations()

	if !opts.SkipVersionScrape {
		meta := version.Resolve(s.MetadataPath(), s.Version, logger)
		s = s.WithVersion(meta.Version, meta.Codename)
		logger.Info("creating app", "app", s.AppName, "version", s.LongVersion)
	} else {
		s = s.WithVersion(s.Version, "")
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func applyEnv(base *appfinish.Settings) *appfinish.Settings {
	s := *base
	s.AppName = system.GetString(system.EnvAppName, s.AppName)
	s.Identifier = system.GetString(system.EnvIdentifier, s.Identifier)
	s.CondaEnvPath = system.GetString(system.EnvCondaEnv, s.CondaEnvPath)
	s.EntryScript = system.GetString(system.EnvEntryScript, s.EntryScript)
	s.OutputFolder = system.GetString(system.EnvOutputFolder, s.OutputFolder)
	s.IconPath = system.GetString(system.EnvIcon, s.IconPath)
	s.ResourceDir = system.GetString(system.EnvResourceDir, s.ResourceDir)
	if excludes := system.GetStringSlice(system.EnvExcludeFiles); len(excludes) > 0 {
		s.ExcludeFiles = excludes
	}
	return &s
}
