package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitreq/packages/core/parser"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|directory>...",
		Short: "Check request files for errors without sending anything",
		Long: `Parse request files and report structural errors: unknown methods,
missing URLs, malformed expectations, duplicate request names.

Examples:
  hitreq validate api.yaml
  hitreq validate ./requests/`,
		Args: minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := collectFiles(args)
			if err != nil {
				return usageError(err)
			}
			if len(files) == 0 {
				return usageError(fmt.Errorf("no .yaml or .yml files found"))
			}

			var firstErr error
			for _, file := range files {
				f, err := parser.ParseFile(file)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
					if firstErr == nil {
						firstErr = err
					}
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s (%d requests)\n", file, len(f.Requests))
			}

			if firstErr != nil {
				return withCode(ExitParseError, fmt.Errorf("validation failed: %w", firstErr))
			}
			return nil
		},
	}
}
