package cli

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/agro-weather/internal/api/http"
	"github.com/i474232898/agro-weather/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the observation recorder",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		cfg := deps.Config

		// Scheduler that periodically records current observations.
		sched := scheduler.New(cfg.Locations, cfg.FetchInterval, deps.Service)
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()

		// Wait for termination signal
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runServer(ctx, httpapi.NewApp(deps.Service), ":"+cfg.Port)
	},
}

// runServer serves app on addr until ctx is done or the listener fails.
// A listener failure is returned; cancellation shuts the app down gracefully.
func runServer(ctx context.Context, app *fiber.App, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("INFO: listening on %s", addr)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err == nil {
			return nil
		}
		return fmt.Errorf("fiber server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
