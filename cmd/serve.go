package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lawdesk/matterflow/internal/config"
	"github.com/lawdesk/matterflow/internal/gateway"
	"github.com/lawdesk/matterflow/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the matter formation HTTP server",
	Long:  `Starts the matterflow intake server with the REST API and the WebSocket chat gateway.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if serveAddr != "" {
			cfg.ListenAddr = serveAddr
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		comps, err := buildComponents(cfg)
		if err != nil {
			return err
		}
		defer comps.db.Close()

		srv := server.New(server.Config{
			ListenAddr:     cfg.ListenAddr,
			AllowedOrigins: cfg.AllowedOrigins,
		}, server.Deps{
			Actor:         comps.actor,
			Authenticator: comps.auth,
			AuditStore:    comps.audit,
			HandoffStore:  comps.handoffs,
			Gateway:       gateway.New(comps.actor, comps.auth, cfg.AllowedOrigins),
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		matters, _ := countMatterStates(context.Background(), comps.db)
		fmt.Fprintf(os.Stderr, "matterflow v%s starting on %s\n", Version, cfg.ListenAddr)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", cfg.DatabasePath)
		fmt.Fprintf(os.Stderr, "  Matters tracked: %d\n", matters)

		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
