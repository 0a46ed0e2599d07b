// Command appfinish runs the post-copy finishing pass over an app bundle's
// resource directory.
//
// It is meant to be called by the bundler once the conda environment has
// been copied into OpenSesame.app/Contents/Resources:
//
//	appfinish -resource-dir dist/OpenSesame.app/Contents/Resources
//
// Optional steps remove translations (-cleanup), prune the exclusion
// list (-prune-excluded), merge document types into Info.plist
// (-info-plist), re-sign the bundle (-sign) and register it with
// LaunchServices (-register).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/tmc/appfinish"
	"github.com/tmc/appfinish/internal/codesign"
	"github.com/tmc/appfinish/internal/config"
	"github.com/tmc/appfinish/internal/finish"
	"github.com/tmc/appfinish/internal/launchservices"
	"github.com/tmc/appfinish/internal/logging"
	"github.com/tmc/appfinish/internal/plist"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

type options struct {
	resourceDir   string
	configPath    string
	cleanup       bool
	pruneExcluded bool
	infoPlist     string
	register      string
	sign          string
	printSettings bool
	verbose       bool
	noScrape      bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("appfinish", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.resourceDir, "resource-dir", "", "bundle resource directory (default $APPFINISH_RESOURCE_DIR)")
	fs.StringVar(&o.configPath, "config", "", "settings file (default ./"+config.FileName+" if present)")
	fs.BoolVar(&o.cleanup, "cleanup", false, "remove the translations directory after finishing")
	fs.BoolVar(&o.pruneExcluded, "prune-excluded", false, "remove files matching the exclusion list")
	fs.StringVar(&o.infoPlist, "info-plist", "", "merge bundle keys and document types into this Info.plist")
	fs.StringVar(&o.register, "register", "", "register this .app with LaunchServices when done")
	fs.StringVar(&o.sign, "sign", "", "re-sign the enclosing .app with this identity (\"-\" for ad-hoc)")
	fs.BoolVar(&o.printSettings, "print-settings", false, "print the resolved settings as YAML and exit")
	fs.BoolVar(&o.verbose, "v", false, "verbose output")
	fs.BoolVar(&o.noScrape, "no-version-scrape", false, "do not read the version from the environment's metadata file")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	logOpts := logging.OptionsFromEnv()
	logOpts.Stderr = stderr
	if o.verbose {
		logOpts.Debug = true
	}
	logger, closeLog := logging.New(logOpts)
	defer closeLog()

	settings, err := config.Load(config.Options{
		Path:              o.configPath,
		SkipVersionScrape: o.noScrape,
		Logger:            logger,
	})
	if err != nil {
		return err
	}
	if o.resourceDir != "" {
		settings = settings.WithResourceDir(o.resourceDir)
	}

	if o.printSettings {
		return printSettings(stdout, settings)
	}

	var passOpts []finish.Option
	passOpts = append(passOpts, finish.WithLogger(logger))
	if o.cleanup {
		passOpts = append(passOpts, finish.WithCleanup())
	}
	if o.pruneExcluded {
		passOpts = append(passOpts, finish.WithPruneExcluded())
	}

	pass, err := finish.New(settings, settings.ResourceDir, passOpts...)
	if err != nil {
		return err
	}
	report, err := pass.Run(ctx)
	if err != nil {
		return err
	}
	if err := report.Recovered(); err != nil {
		logger.Warn("some steps failed and were skipped", "error", err)
	}

	if o.infoPlist != "" {
		if err := plist.Merge(o.infoPlist, plist.FromSettings(settings)); err != nil {
			return fmt.Errorf("update Info.plist: %w", err)
		}
		logger.Info("updated Info.plist", "path", o.infoPlist)
	}

	if o.sign != "" {
		if err := sign(ctx, o.sign, settings, pass.ResourceDir(), logger); err != nil {
			return err
		}
	}

	if o.register != "" {
		switch err := launchservices.Register(o.register); {
		case errors.Is(err, launchservices.ErrUnsupported):
			logger.Warn("skipping LaunchServices registration", "reason", err)
		case err != nil:
			return fmt.Errorf("register %s: %w", o.register, err)
		default:
			logger.Info("registered with LaunchServices", "app", o.register)
			if handler, err := launchservices.DefaultHandler(settings.DocumentUTI()); err == nil {
				logger.Debug("document handler", "type", settings.DocumentUTI(), "handler", handler)
			}
		}
	}
	return nil
}

func sign(ctx context.Context, identity string, settings *appfinish.Settings, resourceDir string, logger *slog.Logger) error {
	app, err := codesign.BundleFromResources(resourceDir)
	if err != nil {
		return err
	}
	if !codesign.Available() {
		logger.Warn("skipping signing, codesign not found", "app", app)
		return nil
	}
	signer := codesign.New(identity, logger)
	signer.Identifier = settings.Identifier
	if err := signer.Sign(ctx, app); err != nil {
		return err
	}
	return signer.Verify(ctx, app)
}

func printSettings(w io.Writer, s *appfinish.Settings) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return enc.Close()
}
