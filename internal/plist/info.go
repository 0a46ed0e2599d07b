// Package plist generates and updates the Info.plist of a finished bundle.
package plist

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"howett.net/plist"

	"github.com/tmc/appfinish"
	"github.com/tmc/appfinish/internal/system"
)

// InfoConfig holds configuration for generating Info.plist files.
type InfoConfig struct {
	AppName      string
	BundleID     string
	ExecName     string
	Version      string
	LongVersion  string
	IconFile     string
	Copyright    string
	Associations appfinish.FileAssociations
	CustomKeys   map[string]any
}

// FromSettings derives the Info.plist configuration from the settings table.
// The executable is the entry script, which the bundler places in
// Contents/MacOS.
func FromSettings(s *appfinish.Settings) InfoConfig {
	cfg := InfoConfig{
		AppName:      s.AppName,
		BundleID:     s.Identifier,
		ExecName:     s.EntryScript,
		Version:      s.Version,
		LongVersion:  s.LongVersion,
		Associations: s.SupportedFiles,
	}
	if s.IconPath != "" {
		cfg.IconFile = filepath.Base(s.IconPath)
	}
	if s.Author != "" {
		cfg.Copyright = "© " + s.Author
	}
	return cfg
}

func validateInfoConfig(cfg InfoConfig) error {
	if cfg.AppName == "" {
		return fmt.Errorf("app name is required")
	}
	if cfg.BundleID == "" {
		return fmt.Errorf("bundle ID is required")
	}
	if cfg.ExecName == "" {
		return fmt.Errorf("executable name is required")
	}
	if cfg.Version == "" {
		return fmt.Errorf("version is required")
	}
	return nil
}

// Entries returns the Info.plist keys for cfg. CustomKeys override the
// generated ones.
func Entries(cfg InfoConfig) map[string]any {
	entries := map[string]any{
		"CFBundleDisplayName":           cfg.AppName,
		"CFBundleExecutable":            cfg.ExecName,
		"CFBundleIdentifier":            cfg.BundleID,
		"CFBundleInfoDictionaryVersion": "6.0",
		"CFBundleName":                  cfg.AppName,
		"CFBundlePackageType":           "APPL",
		"CFBundleShortVersionString":    cfg.Version,
		"CFBundleVersion":               cfg.Version,
		"NSHighResolutionCapable":       true,
	}
	if cfg.LongVersion != "" && cfg.LongVersion != cfg.Version {
		entries["CFBundleGetInfoString"] = cfg.AppName + " " + cfg.LongVersion
	}
	if cfg.IconFile != "" {
		entries["CFBundleIconFile"] = cfg.IconFile
	}
	if cfg.Copyright != "" {
		entries["NSHumanReadableCopyright"] = cfg.Copyright
	}
	if len(cfg.Associations.DocumentTypes) > 0 {
		entries["CFBundleDocumentTypes"] = cfg.Associations.DocumentTypes
	}
	if len(cfg.Associations.ExportedTypes) > 0 {
		entries["UTExportedTypeDeclarations"] = cfg.Associations.ExportedTypes
	}
	for key, value := range cfg.CustomKeys {
		entries[key] = value
	}
	return entries
}

// Render encodes cfg as an XML property list.
func Render(cfg InfoConfig) ([]byte, error) {
	if err := validateInfoConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid info plist config: %w", err)
	}
	return plist.MarshalIndent(Entries(cfg), plist.XMLFormat, "\t")
}

// WriteInfo writes a complete Info.plist to path, replacing any existing file.
func WriteInfo(path string, cfg InfoConfig) error {
	data, err := Render(cfg)
	if err != nil {
		return err
	}
	return system.SafeWriteFile(path, data, 0644)
}

// Read decodes the property list at path. Binary, XML and OpenStep
// formats are accepted.
func Read(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var dict map[string]any
	if _, err := plist.Unmarshal(data, &dict); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return dict, nil
}

// Merge updates the Info.plist at path with the keys generated for cfg,
// keeping every other key the bundler wrote. A missing file is created.
func Merge(path string, cfg InfoConfig) error {
	if err := validateInfoConfig(cfg); err != nil {
		return fmt.Errorf("invalid info plist config: %w", err)
	}

	dict, err := Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return WriteInfo(path, cfg)
	}
	if err != nil {
		return err
	}

	for key, value := range Entries(cfg) {
		dict[key] = value
	}
	data, err := plist.MarshalIndent(dict, plist.XMLFormat, "\t")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return system.SafeWriteFile(path, data, 0644)
}
