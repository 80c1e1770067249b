package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	ruleResource string
	ruleWeekday  string
	ruleFrom     string
	ruleTo       string
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var ruleCmd = &cobra.Command{
	Use:   "rule",
	Short: "Manage recurring availability rules",
}

var ruleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a recurring weekday availability window",
	Long: `Add a recurring availability window to a resource.

Times are minutes of the day in HH:MM form; the window is half-open, so
--from 09:00 --to 17:00 admits a booking ending at exactly 17:00.

Examples:
  reserva rule add --resource 6f1e... --weekday monday --from 09:00 --to 17:00
  reserva rule add --resource 6f1e... --weekday monday --from 18:00 --to 21:00`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("rule management requires a database connection")
		}

		resourceID, err := uuid.Parse(ruleResource)
		if err != nil {
			return fmt.Errorf("invalid resource id: %w", err)
		}

		weekday, ok := weekdayNames[strings.ToLower(ruleWeekday)]
		if !ok {
			return fmt.Errorf("unknown weekday %q", ruleWeekday)
		}

		startMinute, err := parseClock(ruleFrom)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		endMinute, err := parseClock(ruleTo)
		if err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}

		window, err := domain.NewClockRange(startMinute, endMinute)
		if err != nil {
			return err
		}

		rule, err := domain.NewAvailabilityRule(resourceID, weekday, window)
		if err != nil {
			return err
		}

		if err := app.RuleRepo.Save(cmd.Context(), rule); err != nil {
			return fmt.Errorf("failed to save rule: %w", err)
		}

		fmt.Println("Availability rule added!")
		fmt.Printf("  ID:       %s\n", rule.ID())
		fmt.Printf("  Resource: %s\n", rule.ResourceID())
		fmt.Printf("  Window:   %s %s\n", weekday, window)
		return nil
	},
}

// parseClock converts "HH:MM" to minutes since midnight. "24:00" is valid
// as a window end.
func parseClock(s string) (int, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	if hour < 0 || hour > 24 || minute < 0 || minute > 59 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return hour*60 + minute, nil
}

func init() {
	ruleAddCmd.Flags().StringVar(&ruleResource, "resource", "", "resource id (required)")
	ruleAddCmd.Flags().StringVar(&ruleWeekday, "weekday", "", "weekday name, e.g. monday (required)")
	ruleAddCmd.Flags().StringVar(&ruleFrom, "from", "", "window start HH:MM (required)")
	ruleAddCmd.Flags().StringVar(&ruleTo, "to", "", "window end HH:MM (required)")
	_ = ruleAddCmd.MarkFlagRequired("resource")
	_ = ruleAddCmd.MarkFlagRequired("weekday")
	_ = ruleAddCmd.MarkFlagRequired("from")
	_ = ruleAddCmd.MarkFlagRequired("to")

	ruleCmd.AddCommand(ruleAddCmd)
	rootCmd.AddCommand(ruleCmd)
}
