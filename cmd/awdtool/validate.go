package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Faultbox/awdkit/internal/config"
)

func newValidateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file.awd>...",
		Short: "Check files decode cleanly",
		Long:  "Decode each file. Fatal errors fail the command; with --strict so do warnings.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				_, warnings, err := a.load(path)
				switch {
				case err != nil:
					failed++
					fmt.Fprintf(a.out, "%s %s: %v\n", styleWarning.Render("FAIL"), path, err)
				case len(warnings) > 0:
					fmt.Fprintf(a.out, "%s %s: %d warning(s)\n", styleWarning.Render("WARN"), path, len(warnings))
				default:
					fmt.Fprintf(a.out, "%s %s\n", styleSuccess.Render("OK  "), path)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d file(s) failed validation", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().Bool(config.FlagStrict, false, "Treat warnings as errors")
	return cmd
}
