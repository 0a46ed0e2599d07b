package appfinish

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/appfinish/internal/system"
)

// Settings describes the app bundle the external bundler produces.
// It is built once at startup and treated as read-only afterwards;
// derived copies are made with the With methods.
type Settings struct {
	// AppName is the bundle's display name, e.g. "OpenSesame".
	AppName string `yaml:"app_name"`
	// Version is the short version string. It is normally overwritten
	// by the version scraped from the runtime's metadata file.
	Version string `yaml:"version"`
	// LongVersion is Version plus an optional codename.
	LongVersion string `yaml:"-"`
	// Identifier is the reverse-DNS bundle identifier.
	Identifier string `yaml:"identifier"`
	Author     string `yaml:"author"`
	// CondaEnvPath is the absolute path of the environment to package.
	CondaEnvPath string `yaml:"conda_env_path"`
	// PythonVersion names the lib/pythonX.Y directory inside CondaEnvPath.
	PythonVersion string `yaml:"python_version"`
	IconPath      string `yaml:"icon_path"`
	// EntryScript is the launcher in the environment's bin directory.
	EntryScript  string `yaml:"entry_script"`
	OutputFolder string `yaml:"output_folder"`
	// LocalLibFolder is where the bundler looks for extra dylibs.
	LocalLibFolder string `yaml:"local_lib_folder"`
	// ExcludeFiles lists glob patterns, relative to the environment
	// root, that must not end up in the bundle.
	ExcludeFiles   []string         `yaml:"exclude_files"`
	SupportedFiles FileAssociations `yaml:"-"`
	DMG            DMGSettings      `yaml:"dmg"`
	// ResourceDir is filled in once the bundler has copied the
	// environment into the bundle.
	ResourceDir string `yaml:"resource_dir"`
}

// DMGSettings holds the disk image layout handed to the bundler.
type DMGSettings struct {
	// FileTemplate contains a single {version} placeholder.
	FileTemplate string `yaml:"file_template"`
	Format       string `yaml:"format"`
	WindowRect   Rect   `yaml:"window_rect"`
	IconSize     int    `yaml:"icon_size"`
	Background   string `yaml:"background"`
}

// Point is a position in the DMG window.
type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Rect is the DMG window origin and size.
type Rect struct {
	Origin Point `yaml:"origin"`
	Size   Point `yaml:"size"`
}

// FileAssociations mirrors the CFBundleDocumentTypes and
// UTExportedTypeDeclarations Info.plist keys.
type FileAssociations struct {
	DocumentTypes []DocumentType `plist:"CFBundleDocumentTypes"`
	ExportedTypes []ExportedType `plist:"UTExportedTypeDeclarations"`
}

// DocumentType is a single CFBundleDocumentTypes entry.
type DocumentType struct {
	Name            string   `plist:"CFBundleTypeName"`
	Role            string   `plist:"CFBundleTypeRole"`
	HandlerRank     string   `plist:"LSHandlerRank"`
	IconFile        string   `plist:"CFBundleTypeIconFile"`
	ContentTypes    []string `plist:"LSItemContentTypes"`
	ExportableTypes []string `plist:"NSExportableTypes"`
}

// ExportedType is a single UTExportedTypeDeclarations entry.
type ExportedType struct {
	ConformsTo  []string          `plist:"UTTypeConformsTo"`
	Description string            `plist:"UTTypeDescription"`
	Identifier  string            `plist:"UTTypeIdentifier"`
	Tags        map[string]string `plist:"UTTypeTagSpecification"`
}

const (
	// DefaultVersion is used when the metadata file cannot be read.
	DefaultVersion = "3.3.10"

	// DocumentExtension is the file extension of experiment files.
	DocumentExtension = "osexp"
)

// translationExcludes are Qt translation catalogs the app never loads.
var translationExcludes = []string{
	"assistant*", "designer*", "linguist*", "qt_*", "qtbase*", "qtconnectivity*", "qtdeclarative*",
	"qtlocation*", "qtmultimedia*", "qtquickcontrols*", "qtscript*", "qtserialport*",
	"qtwebsockets*", "qtxmlpatterns*",
}

// DefaultExcludeFiles returns the default exclusion list in order.
func DefaultExcludeFiles() []string {
	excludes := []string{
		"bin/*.app",
		"bin/*.prl",
		"bin/qmake",
		"bin/2to3*",
		"bin/autopoint",
		"conda-meta",
		"include",
		"lib/*.prl",
		"lib/pkg-config",
		"org.freedesktop.dbus-session.plist",
	}
	for _, pattern := range translationExcludes {
		excludes = append(excludes, "translations/"+pattern)
	}
	return excludes
}

// DefaultSettings returns the settings table for the OpenSesame bundle.
func DefaultSettings() *Settings {
	s := &Settings{
		AppName:        "OpenSesame",
		Version:        DefaultVersion,
		LongVersion:    DefaultVersion,
		Identifier:     "nl.cogsci.osdoc",
		Author:         "Sebastiaan Mathôt",
		CondaEnvPath:   "/Users/robbertmijn/opt/anaconda3/envs/opensesame",
		PythonVersion:  "3.11",
		IconPath:       "/Users/robbertmijn/Documents/projecten_local/opensesame-macos-build-scripts/opensesame_resources/opensesame.icns",
		EntryScript:    "opensesame",
		OutputFolder:   "/Users/robbertmijn/Documents/projecten_local/opensesame-macos-build-scripts/",
		LocalLibFolder: "/usr/local/lib",
		ExcludeFiles:   DefaultExcludeFiles(),
		DMG: DMGSettings{
			FileTemplate: "opensesame_{version}-py37-macos-x64-1.dmg",
			Format:       "UDZO",
			WindowRect:   Rect{Origin: Point{X: 300, Y: 200}, Size: Point{X: 358, Y: 570}},
			IconSize:     80,
			Background:   "/Users/robbertmijn/Documents/projecten_local/opensesame-macos-build-scripts/opensesame_resources/einstein.png",
		},
	}
	s.SupportedFiles = s.DefaultFileAssociations()
	return s
}

// DefaultFileAssociations declares the experiment document type, a
// gzip archive with its own UTI under the bundle identifier.
func (s *Settings) DefaultFileAssociations() FileAssociations {
	uti := s.DocumentUTI()
	return FileAssociations{
		DocumentTypes: []DocumentType{{
			Name:            s.AppName + " experiment",
			Role:            "Editor",
			HandlerRank:     "Owner",
			IconFile:        filepath.Base(s.IconPath),
			ContentTypes:    []string{uti},
			ExportableTypes: []string{uti},
		}},
		ExportedTypes: []ExportedType{{
			ConformsTo:  []string{"org.gnu.gnu-zip-archive"},
			Description: s.AppName + " experiment",
			Identifier:  uti,
			Tags: map[string]string{
				"public.filename-extension": DocumentExtension,
				"public.mime-type":          "application/gzip",
			},
		}},
	}
}

// DocumentUTI returns the exported type identifier for experiment files.
func (s *Settings) DocumentUTI() string {
	return s.Identifier + "." + DocumentExtension
}

// BundleName returns the .app directory name.
func (s *Settings) BundleName() string {
	return s.AppName + ".app"
}

// DMGFile returns the disk image file name for the current version.
func (s *Settings) DMGFile() string {
	return system.DMGName(strings.ReplaceAll(s.DMG.FileTemplate, "{version}", s.Version))
}

// DMGIconLocations returns where the app and the Applications alias
// are placed in the mounted DMG window.
func (s *Settings) DMGIconLocations() map[string]Point {
	return map[string]Point{
		s.BundleName():  {X: 5, Y: 452},
		"Applications": {X: 200, Y: 450},
	}
}

// MetadataPath returns the location of the version metadata source
// inside the runtime environment, with a leading ~ expanded.
func (s *Settings) MetadataPath() string {
	return filepath.Join(expandHome(s.CondaEnvPath), "lib", "python"+s.PythonVersion,
		"site-packages", "libopensesame", "metadata.py")
}

// WithVersion returns a copy of s carrying the given version and
// codename. The DMG file name follows automatically.
func (s *Settings) WithVersion(version, codename string) *Settings {
	c := s.clone()
	if version == "" {
		return c
	}
	c.Version = version
	c.LongVersion = version
	if codename != "" {
		c.LongVersion = version + " " + codename
	}
	return c
}

// WithResourceDir returns a copy of s pointing at the bundle's
// resource directory.
func (s *Settings) WithResourceDir(dir string) *Settings {
	c := s.clone()
	c.ResourceDir = dir
	return c
}

// Validate reports missing required settings.
func (s *Settings) Validate() error {
	var errs []error
	if s.AppName == "" {
		errs = append(errs, errors.New("app name is required"))
	}
	if err := system.ValidateBundleID(s.Identifier); err != nil {
		errs = append(errs, fmt.Errorf("identifier: %w", err))
	}
	if s.EntryScript == "" {
		errs = append(errs, errors.New("entry script is required"))
	}
	if strings.ContainsRune(s.EntryScript, filepath.Separator) {
		errs = append(errs, fmt.Errorf("entry script %q must be a file name in bin", s.EntryScript))
	}
	if s.Version == "" {
		errs = append(errs, errors.New("version is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("appfinish: invalid settings: %w", errors.Join(errs...))
	}
	return nil
}

func (s *Settings) clone() *Settings {
	c := *s
	c.ExcludeFiles = append([]string(nil), s.ExcludeFiles...)
	c.SupportedFiles.DocumentTypes = append([]DocumentType(nil), s.SupportedFiles.DocumentTypes...)
	c.SupportedFiles.ExportedTypes = append([]ExportedType(nil), s.SupportedFiles.ExportedTypes...)
	return &c
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
