package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/doctoc/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site with live TOC synchronization",
	Long: `Builds the site (unless --no-build) and serves it over HTTP. Every open page
connects back over a websocket so its TOC panel follows the reader.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "override server.port")
	serveCmd.Flags().Bool("no-build", false, "serve output_dir as it is")
	serveCmd.Flags().Bool("no-ledger", false, "skip recording anchors in the ledger")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}

	log := cfg.Logging.Logger()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if noBuild, _ := cmd.Flags().GetBool("no-build"); !noBuild {
		noLedger, _ := cmd.Flags().GetBool("no-ledger")
		report, err := buildSite(ctx, cfg, log, noLedger)
		if report != nil {
			printReport(report, cfg.OutputDir)
		}
		if err != nil {
			// Pages that did build are still worth serving.
			log.Warn("build finished with errors", zap.Error(err))
		}
	}

	srv, err := server.New(server.Config{
		Port:     cfg.Server.Port,
		SiteDir:  cfg.OutputDir,
		AllowAll: cfg.Server.AllowAll,
		TOC:      cfg.TOC,
	}, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	fmt.Printf("Serving %s at http://localhost:%d\n", cfg.OutputDir, cfg.Server.Port)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
