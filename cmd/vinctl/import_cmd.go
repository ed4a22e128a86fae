package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/noah-isme/vehicle-data-api/internal/app"
)

func newImportCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import [--file <path>]",
		Short: "Import a dealer CSV or XLSX file and archive it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				result, err := a.Importer.Import(ctx, file)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "source file (defaults to IMPORT_SOURCE_PATH)")
	return cmd
}
