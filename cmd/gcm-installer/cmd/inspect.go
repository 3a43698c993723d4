package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cloudageitC/Git-Credential-Manager/internal/service/installer"
)

func (a *app) newResolveCommand() *cobra.Command {
	var flags releaseFlags

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the download URL of a release without downloading it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inst, _, err := installer.Prepare(a.installerOptions(&flags))
			if err != nil {
				return err
			}

			url, err := inst.ResolveURL()
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), url)

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

func (a *app) newInfoCommand() *cobra.Command {
	var flags releaseFlags

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Describe a formula, its runtime requirement and install state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inst, prefix, err := installer.Prepare(a.installerOptions(&flags))
			if err != nil {
				return err
			}

			url, err := inst.ResolveURL()
			if err != nil {
				return err
			}

			state := "not installed"

			_, rec, err := installer.Installed(cmd.Context(), prefix)
			switch {
			case err == nil:
				state = "installed " + rec.InstalledAt.Format("2006-01-02 15:04:05 MST")
			case !errors.Is(err, installer.ErrNotInstalled):
				return err
			}

			spec := inst.Spec()
			digest := spec.ExpectedDigest
			if digest == "" {
				digest = "(not pinned)"
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

			_, _ = fmt.Fprintf(w, "name:\t%s\n", spec.Name)
			_, _ = fmt.Fprintf(w, "version:\t%s\n", spec.Version)
			_, _ = fmt.Fprintf(w, "description:\t%s\n", spec.Description)
			_, _ = fmt.Fprintf(w, "homepage:\t%s\n", spec.Homepage)
			_, _ = fmt.Fprintf(w, "url:\t%s\n", url)
			_, _ = fmt.Fprintf(w, "sha256:\t%s\n", digest)
			_, _ = fmt.Fprintf(w, "requires:\t%s\n", spec.Runtime)
			_, _ = fmt.Fprintf(w, "prefix:\t%s\n", prefix)
			_, _ = fmt.Fprintf(w, "state:\t%s\n", state)

			return w.Flush()
		},
	}

	flags.register(cmd)

	return cmd
}

func (a *app) newVerifyCommand() *cobra.Command {
	var (
		flags  releaseFlags
		digest string
	)

	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Check a local archive against the formula digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.installerOptions(&flags)
			opts.Digest = digest

			inst, _, err := installer.Prepare(opts)
			if err != nil {
				return err
			}

			expected, err := inst.ResolveDigest(cmd.Context())
			if err != nil {
				return err
			}

			if err = installer.VerifyFile(args[0], expected); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", args[0])

			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&digest, "sha256", "", "expected SHA-256, overriding the formula")

	return cmd
}

func newDigestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "digest <file>...",
		Short: "Print the SHA-256 of files in sha256sum format",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				digest, err := installer.DigestFile(path)
				if err != nil {
					return err
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", digest, path)
			}

			return nil
		},
	}
}
