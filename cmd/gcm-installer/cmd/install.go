package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudageitC/Git-Credential-Manager/internal/service/installer"
)

// releaseFlags select a release and where it lives.
type releaseFlags struct {
	formulaPath string
	version     string
	prefix      string
}

func (f *releaseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.formulaPath, "formula", "f", "", "formula file (default is the built-in git-credential-manager formula)")
	cmd.Flags().StringVar(&f.version, "version", "", "release version, overriding the formula")
	cmd.Flags().StringVar(&f.prefix, "prefix", "", "install prefix (default <cellar>/<name>/<version>)")
}

func (a *app) installerOptions(f *releaseFlags) *installer.Options {
	return &installer.Options{
		Config:      a.settings,
		FormulaPath: f.formulaPath,
		Version:     f.version,
		Prefix:      f.prefix,
	}
}

func (a *app) newInstallCommand() *cobra.Command {
	var (
		flags    releaseFlags
		digest   string
		selfTest bool
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Download, verify and install a release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := a.installerOptions(&flags)
			opts.Digest = digest
			opts.SelfTest = selfTest

			artifact, err := installer.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Installed %s\nRun it with %s\n", artifact.Path, artifact.LauncherPath)

			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&digest, "sha256", "", "expected SHA-256 of the archive, overriding the formula")
	cmd.Flags().BoolVar(&selfTest, "self-test", false, "run the launcher after installing and roll back if it fails")

	return cmd
}

func (a *app) newTestCommand() *cobra.Command {
	var flags releaseFlags

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the launcher of an installed release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := installer.Test(cmd.Context(), a.installerOptions(&flags)); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Self-test passed")

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

func (a *app) newUninstallCommand() *cobra.Command {
	var flags releaseFlags

	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove an installed release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return installer.Remove(cmd.Context(), a.installerOptions(&flags))
		},
	}

	flags.register(cmd)

	return cmd
}
