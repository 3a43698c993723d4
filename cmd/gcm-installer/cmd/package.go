package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudageitC/Git-Credential-Manager/internal/service/packager"
)

func newPackageCommand() *cobra.Command {
	var opts packager.Options

	cmd := &cobra.Command{
		Use:   "package <archive>",
		Short: "Write a formula pinned to the SHA-256 of a local archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ArchivePath = args[0]

			spec, err := packager.Run(cmd.Context(), &opts)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", spec.ExpectedDigest, args[0])

			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.FormulaPath, "formula", "f", "", "base formula (default is the built-in git-credential-manager formula)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "package name, overriding the formula")
	cmd.Flags().StringVar(&opts.Version, "version", "", "release version, overriding the formula")
	cmd.Flags().StringVar(&opts.URLTemplate, "url", "", "download URL template with ${version}, overriding the formula")
	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", packager.DefaultFormulaFilename, "where to write the formula")

	return cmd
}
