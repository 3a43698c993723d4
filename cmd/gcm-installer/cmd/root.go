// Package cmd contains the gcm-installer command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cloudageitC/Git-Credential-Manager/internal/config"
	"github.com/cloudageitC/Git-Credential-Manager/internal/logger"
	"github.com/cloudageitC/Git-Credential-Manager/internal/service/installer"
	"github.com/cloudageitC/Git-Credential-Manager/internal/version"
)

// app holds the state shared by every subcommand of one invocation.
type app struct {
	// configPath to the settings YAML file; empty means the default location.
	configPath string
	// logLevel overrides the level from the settings file.
	logLevel string
	// settings are loaded before any subcommand runs.
	settings *config.Config
}

// newRootCommand builds the command tree.
func newRootCommand() *cobra.Command {
	a := new(app)

	root := &cobra.Command{
		Use:   "gcm-installer",
		Short: "Install git-credential-manager and other Java command line tools",
		Long: `gcm-installer downloads a release archive named by a formula, verifies its
SHA-256 digest, installs it under <cellar>/<name>/<version> together with a
launcher script and optionally runs the launcher as a self-test.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.loadSettings,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "",
		"path to configuration file (default "+config.DefaultConfigFilename+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		a.newInstallCommand(),
		a.newTestCommand(),
		a.newUninstallCommand(),
		a.newResolveCommand(),
		a.newInfoCommand(),
		a.newVerifyCommand(),
		newDigestCommand(),
		newPackageCommand(),
	)

	version.AttachCobraVersionCommand(root)

	return root
}

// Execute runs the gcm-installer CLI and exits with a status that names the failure kind.
func Execute() {
	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	err := newRootCommand().ExecuteContext(ctx)

	stop()
	logger.Sync()

	if err != nil {
		os.Exit(exitCode(err))
	}
}

// loadSettings reads the settings file and applies the log level.
func (a *app) loadSettings(_ *cobra.Command, _ []string) error {
	settings, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("%w: %w", installer.ErrConfig, err)
	}

	levelName := settings.LogLevel
	if a.logLevel != "" {
		levelName = a.logLevel
	}

	level, ok := logger.ParseLogLevel(levelName)
	if !ok {
		return fmt.Errorf("%w: unknown log level %q", installer.ErrConfig, levelName)
	}

	logger.SetLevel(level)

	a.settings = settings

	return nil
}
