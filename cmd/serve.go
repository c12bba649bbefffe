package cmd

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the Facegate HTTP API.
The server exposes enrollment, matching, nearest-neighbour and
authentication endpoints under /api/v1 plus Prometheus metrics on /metrics.

Without DATABASE_URL the registry lives in memory and is lost on exit.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
	serveCmd.Flags().Bool("seed", false, "Enroll demo identities when the registry is empty")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e, err := openEngine(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer e.Close()

	if port := mustGetInt(cmd, "port"); port != 0 {
		e.cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		e.cfg.Web.Host = host
	}

	if mustGetBool(cmd, "seed") {
		seeded, err := e.registry.Seed(ctx, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
		if err != nil {
			return fmt.Errorf("seeding registry: %w", err)
		}
		if len(seeded) > 0 {
			fmt.Printf("Seeded %d demo identities\n", len(seeded))
		}
	}

	server := web.NewServer(e.cfg, web.Services{
		Registry:      e.registry,
		Matcher:       e.matcher,
		Authenticator: e.authenticator,
		Gatherer:      e.promRegistry,
	}, e.logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		e.saveIndex()

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Facegate API on http://%s\n", server.Addr())
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
