package cli

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/reserva/internal/scheduling/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	availabilityResource string
	availabilityFrom     string
	availabilityTo       string
)

var availabilityCmd = &cobra.Command{
	Use:   "availability",
	Short: "Check resource availability",
}

var availabilityCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a window could be booked right now",
	Long: `Run an advisory availability check against a resource.

Examples:
  reserva availability check --resource 6f1e... \
    --from 2026-03-02T10:00:00Z --to 2026-03-02T10:30:00Z`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("availability checks require a database connection")
		}

		resourceID, err := uuid.Parse(availabilityResource)
		if err != nil {
			return fmt.Errorf("invalid resource id: %w", err)
		}

		start, err := time.Parse(time.RFC3339, availabilityFrom)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		end, err := time.Parse(time.RFC3339, availabilityTo)
		if err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}

		verdict, err := app.CheckAvailabilityHandler.Handle(cmd.Context(), queries.CheckAvailabilityQuery{
			ResourceID: resourceID,
			Start:      start,
			End:        end,
		})
		if err != nil {
			return err
		}

		if verdict.Available {
			fmt.Println("Available.")
			return nil
		}

		fmt.Println("Not available:")
		for _, reason := range verdict.Reasons {
			if reason.CommitmentID != nil {
				fmt.Printf("  - %s (commitment %s)\n", reason.Code, *reason.CommitmentID)
			} else {
				fmt.Printf("  - %s\n", reason.Code)
			}
		}
		return nil
	},
}

func init() {
	availabilityCheckCmd.Flags().StringVar(&availabilityResource, "resource", "", "resource id (required)")
	availabilityCheckCmd.Flags().StringVar(&availabilityFrom, "from", "", "window start, RFC3339 (required)")
	availabilityCheckCmd.Flags().StringVar(&availabilityTo, "to", "", "window end, RFC3339 (required)")
	_ = availabilityCheckCmd.MarkFlagRequired("resource")
	_ = availabilityCheckCmd.MarkFlagRequired("from")
	_ = availabilityCheckCmd.MarkFlagRequired("to")

	availabilityCmd.AddCommand(availabilityCheckCmd)
	rootCmd.AddCommand(availabilityCmd)
}
