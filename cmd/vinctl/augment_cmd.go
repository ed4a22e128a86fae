package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/noah-isme/vehicle-data-api/internal/app"
)

func newAugmentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "augment [vin]",
		Short: "Decode one vehicle, or every vehicle when no VIN is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if len(args) == 1 {
					vehicle, err := a.Augmenter.Augment(ctx, args[0])
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), vehicle)
				}
				summary, err := a.Augmenter.AugmentAll(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), summary)
			})
		},
	}
}
