package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"invoiceform/internal/devserver"
	"invoiceform/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local stand-in for the invoice API",
	Long: `Serve the createInvoice GraphQL mutation locally.

The local API validates incoming invoices with the same rules as the form,
returns GraphQL errors for invalid ones, and answers valid ones with a new
id and the server-computed total. Nothing is stored.

Point the form at it with INVOICE_API_URL=http://localhost:8080/graphql.`,
	Example: `  # Listen on DEV_SERVER_ADDR (default :8080)
  invoiceform serve

  # Listen elsewhere with a tighter rate limit
  invoiceform serve --addr 127.0.0.1:9000 --rate-limit 10`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: DEV_SERVER_ADDR)")
	serveCmd.Flags().Int("rate-limit", -1, "Requests per minute per client, 0 to disable (default: DEV_SERVER_RATE_LIMIT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	addr, _ := cmd.Flags().GetString("addr")
	rateLimit, _ := cmd.Flags().GetInt("rate-limit")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.DevServerAddr
	}
	if rateLimit < 0 {
		rateLimit = cfg.DevServerRateLimit
	}

	ctx, cancel := createContext(0, log)
	defer cancel()

	srv := devserver.New(devserver.Config{
		RateLimit:  rateLimit,
		RateWindow: time.Minute,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	log.Info().
		Str("addr", addr).
		Int("rate_limit", rateLimit).
		Msg("Starting local invoice API")

	if err := srv.Listen(addr); err != nil {
		log.Error().Err(err).Msg("Local invoice API stopped")
		return err
	}
	log.Info().Msg("Local invoice API shut down")
	return nil
}
