package cli

import (
	"fmt"

	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	resourceName  string
	resourceKind  string
	resourceOwner string
)

var resourceCmd = &cobra.Command{
	Use:   "resource",
	Short: "Manage schedulable resources",
}

var resourceAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a person or space for scheduling",
	Long: `Register a new schedulable resource.

Examples:
  reserva resource add --name "Salesperson Ada" --kind person --owner 6f1e...
  reserva resource add --name "Hall B" --kind space --owner 6f1e...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("resource management requires a database connection")
		}

		ownerID, err := uuid.Parse(resourceOwner)
		if err != nil {
			return fmt.Errorf("invalid owner id: %w", err)
		}

		resource, err := domain.NewResource(resourceName, domain.ResourceKind(resourceKind), ownerID)
		if err != nil {
			return err
		}

		if err := app.ResourceRepo.Save(cmd.Context(), resource); err != nil {
			return fmt.Errorf("failed to save resource: %w", err)
		}

		fmt.Println("Resource registered!")
		fmt.Printf("  ID:    %s\n", resource.ID())
		fmt.Printf("  Name:  %s\n", resource.Name())
		fmt.Printf("  Kind:  %s\n", resource.Kind())
		fmt.Printf("  Owner: %s\n", resource.OwnerID())
		return nil
	},
}

var resourceShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a resource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("resource management requires a database connection")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid resource id: %w", err)
		}

		resource, err := app.ResourceRepo.FindByID(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to load resource: %w", err)
		}
		if resource == nil {
			return fmt.Errorf("resource %s not found", id)
		}

		status := "active"
		if !resource.IsActive() {
			status = "inactive"
		}
		fmt.Printf("  ID:     %s\n", resource.ID())
		fmt.Printf("  Name:   %s\n", resource.Name())
		fmt.Printf("  Kind:   %s\n", resource.Kind())
		fmt.Printf("  Owner:  %s\n", resource.OwnerID())
		fmt.Printf("  Status: %s\n", status)
		return nil
	},
}

var resourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active resources",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("resource management requires a database connection")
		}

		resources, err := app.ResourceRepo.ListActive(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list resources: %w", err)
		}
		if len(resources) == 0 {
			fmt.Println("No active resources.")
			return nil
		}

		for _, resource := range resources {
			fmt.Printf("  %s  %-6s  %s\n", resource.ID(), resource.Kind(), resource.Name())
		}
		return nil
	},
}

var resourceDeactivateCmd = &cobra.Command{
	Use:   "deactivate <id>",
	Short: "Remove a resource from scheduling without deleting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("resource management requires a database connection")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid resource id: %w", err)
		}

		resource, err := app.ResourceRepo.FindByID(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to load resource: %w", err)
		}
		if resource == nil {
			return fmt.Errorf("resource %s not found", id)
		}

		resource.Deactivate()
		if err := app.ResourceRepo.Save(cmd.Context(), resource); err != nil {
			return fmt.Errorf("failed to save resource: %w", err)
		}

		fmt.Printf("Resource %s deactivated.\n", id)
		return nil
	},
}

func init() {
	resourceAddCmd.Flags().StringVar(&resourceName, "name", "", "resource name (required)")
	resourceAddCmd.Flags().StringVar(&resourceKind, "kind", "", "resource kind: person or space (required)")
	resourceAddCmd.Flags().StringVar(&resourceOwner, "owner", "", "owner actor id (required)")
	_ = resourceAddCmd.MarkFlagRequired("name")
	_ = resourceAddCmd.MarkFlagRequired("kind")
	_ = resourceAddCmd.MarkFlagRequired("owner")

	resourceCmd.AddCommand(resourceAddCmd)
	resourceCmd.AddCommand(resourceShowCmd)
	resourceCmd.AddCommand(resourceListCmd)
	resourceCmd.AddCommand(resourceDeactivateCmd)
	rootCmd.AddCommand(resourceCmd)
}
