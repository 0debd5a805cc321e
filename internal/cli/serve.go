package cmd

import (
	"time"

	"github.com/rohmanhakim/fic-roulette/internal/server"
	"github.com/spf13/cobra"
)

var (
	listenAddr      string
	clientRateLimit int
	allowedOrigins  []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the random pick HTTP API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		a, err := newApp(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()
		a.honorCrawlDelay(cmd.Context())

		srv := server.New(a.logger, a.orchestrator, a.httpFetcher, server.Param{
			AllowedOrigins: cfg.AllowedOrigins(),
			ClientLimit:    cfg.ClientRateLimit(),
			ClientWindow:   time.Minute,
			// a resolve and a pick, each with its full retry budget
			GenerateTimeout: 2 * time.Duration(cfg.MaxAttempt()) * (cfg.Timeout() + cfg.BackoffMaxDuration()),
		})
		return srv.ListenAndServe(cmd.Context(), cfg.ListenAddr())
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "address to listen on (e.g., :5000)")
	serveCmd.Flags().IntVar(&clientRateLimit, "client-rate-limit", 0, "/generate calls one client may make per minute")
	serveCmd.Flags().StringArrayVar(&allowedOrigins, "allowed-origin", []string{}, "CORS allowed origin (can be repeated)")
	rootCmd.AddCommand(serveCmd)
}
