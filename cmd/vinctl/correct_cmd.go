package main

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/vehicle-data-api/internal/app"
	"github.com/noah-isme/vehicle-data-api/internal/models"
	"github.com/noah-isme/vehicle-data-api/internal/service"
)

func newCorrectCmd() *cobra.Command {
	var (
		req    models.CorrectionRequest
		dealer int
	)

	cmd := &cobra.Command{
		Use:   "correct --original <vin> --corrected <vin> --dealer <id> --date <yyyy-mm-dd>",
		Short: "Retry an error record under a corrected VIN",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(req.OriginalVIN) == "" {
				return errors.New("--original is required")
			}
			if strings.TrimSpace(req.CorrectedVIN) == "" {
				return errors.New("--corrected is required")
			}
			if cmd.Flags().Changed("dealer") {
				req.DealerID = &dealer
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				result, err := a.Corrector.CorrectError(ctx, req)
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
				if result.Outcome == models.CorrectionDecodeFailed {
					return errors.New(service.DecodeFailedMessage(result))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.OriginalVIN, "original", "", "VIN of the error record")
	cmd.Flags().StringVar(&req.CorrectedVIN, "corrected", "", "replacement VIN")
	cmd.Flags().IntVar(&dealer, "dealer", 0, "dealer id")
	cmd.Flags().StringVar(&req.ModifiedDate, "date", "", "modified date")
	return cmd
}
