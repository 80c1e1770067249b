package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/felixgeelhaar/reserva/adapter/api"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduling API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("serve requires a database connection")
		}

		ctx := cmd.Context()

		if app.Config.OutboxProcessorEnabled {
			if err := app.OutboxProcessor.Start(ctx); err != nil {
				return fmt.Errorf("failed to start outbox processor: %w", err)
			}
		}

		handler := api.NewSchedulingHandler(api.SchedulingHandlerConfig{
			CheckAvailability:    app.CheckAvailabilityHandler,
			GetCommitment:        app.GetCommitmentHandler,
			ListCommitments:      app.ListCommitmentsHandler,
			ListHistory:          app.ListHistoryHandler,
			CreateCommitment:     app.CreateCommitmentHandler,
			RescheduleCommitment: app.RescheduleCommitmentHandler,
			CancelCommitment:     app.CancelCommitmentHandler,
			ConfirmCommitment:    app.ConfirmCommitmentHandler,
			AddBlock:             app.AddBlockHandler,
			RemoveBlock:          app.RemoveBlockHandler,
			Logger:               app.Logger,
		})

		serverConfig := api.DefaultServerConfig()
		serverConfig.Addr = app.Config.APIAddr
		server := api.NewServer(serverConfig, handler, app.Logger)

		errCh := make(chan error, 1)
		go func() {
			if err := server.Start(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
