package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eleven-am/pawtrack/internal/logger"
	"github.com/eleven-am/pawtrack/pkg/pawtrack"
)

var (
	serveAddr string
	inMemory  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pawtrack API server",
	Long: `Start the HTTP API server. Connects to the configured Postgres
database, or runs entirely in memory with --memory for demos.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :8080)")
	serveCmd.Flags().BoolVar(&inMemory, "memory", false, "run with volatile in-memory stores")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.CLI()

	var app *pawtrack.App
	if inMemory {
		log.Warnf("running with in-memory stores, nothing will be persisted")
		app = pawtrack.NewInMemory()
	} else {
		if databaseURL == "" {
			return fmt.Errorf("database connection required: use --url, DATABASE_URL, or pawtrack.yaml")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		var err error
		app, err = pawtrack.New(ctx, databaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
	}
	defer app.Close()

	addr := serveAddr
	if addr == "" {
		addr = ":8080"
		if appConfig != nil && appConfig.Server.Addr != "" {
			addr = appConfig.Server.Addr
		}
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      app.Server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		log.Infof("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
