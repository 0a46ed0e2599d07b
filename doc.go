// Package appfinish finishes macOS app bundles built from a conda environment.
//
// An external bundler copies a pre-built runtime environment into
// MyApp.app/Contents/Resources. appfinish supplies that bundler with its
// settings table and then patches a few files inside the copied tree so the
// packaged application can run standalone.
//
// # Settings
//
// The settings table is an immutable value built once at startup:
//
//	s := appfinish.DefaultSettings()
//	meta := version.Resolve(s.MetadataPath(), s.Version, logger)
//	s = s.WithVersion(meta.Version, meta.Codename)
//	fmt.Println(s.DMGFile()) // opensesame_4.0.1-py37-macos-x64-1.dmg
//
// internal/config layers a YAML file and APPFINISH_* environment variables
// on top of the defaults.
//
// # Finishing pass
//
// The pass runs, in order:
//
//  1. copy bin/<entry> to bin/<entry>.py so multiprocessing can re-spawn it
//  2. write bin/qt.conf and libexec/qt.conf
//  3. point share/jupyter/kernels/python3/kernel.json at the bundled python
//
// Removing superfluous directories and pruning excluded globs are available
// as explicit opt-in steps. See internal/finish.
//
// # Environment Variables
//
//   - APPFINISH_DEBUG=1: enable debug logging
//   - APPFINISH_LOG_JSON=1: log as JSON
//   - APPFINISH_LOG_DEST: "stderr", "file:<path>" or "both:<path>"
//   - APPFINISH_RESOURCE_DIR: resource directory of the assembled bundle
//   - APPFINISH_APP_NAME, APPFINISH_IDENTIFIER, APPFINISH_CONDA_ENV,
//     APPFINISH_ENTRY_SCRIPT, APPFINISH_OUTPUT_FOLDER, APPFINISH_ICON:
//     override the matching settings
package appfinish
