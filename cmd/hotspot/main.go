// Command hotspot ingests the GISTDA hotspot feed into a dataset and rebuilds
// its aggregation views.
//
// Usage:
//
//	hotspot run --container folder-1
//	hotspot serve --interval 24h
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/hotspot-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/hotspot-etl/internal/config"
	"github.com/spf13/cobra"
)

var (
	containerID string
	testMode    bool
	storeKind   string
	dataRoot    string
	interval    time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hotspot",
		Short: "Ingest GISTDA hotspots and build aggregation views",
		Long: `hotspot pages through the GISTDA VIIRS hotspot feed, replaces the working
area of the Hotspot_Data dataset (archiving the previous one), and rebuilds the
country, province and land-use views. Settings come from the environment;
flags override them.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&containerID, "container", "", "target container (overrides HOTSPOT_CONTAINER_ID)")
	rootCmd.PersistentFlags().BoolVar(&testMode, "test-mode", false, "use _TEST dataset names (overrides HOTSPOT_TEST_MODE)")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "", "dataset store: xlsx or sqlite (overrides HOTSPOT_STORE)")
	rootCmd.PersistentFlags().StringVar(&dataRoot, "data-root", "", "root directory of containers (overrides HOTSPOT_DATA_ROOT)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one pipeline pass and exit",
		Args:  cobra.NoArgs,
		RunE:  runOnce,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run at startup, then serve health, status and metrics until stopped",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	serveCmd.Flags().DurationVar(&interval, "interval", 0, "repeat the run at this interval (0 runs once)")

	rootCmd.AddCommand(runCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies flags set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("container") {
		cfg.ContainerID = containerID
	}
	if flags.Changed("test-mode") {
		cfg.TestMode = testMode
	}
	if flags.Changed("store") {
		cfg.Store = storeKind
	}
	if flags.Changed("data-root") {
		cfg.DataRoot = dataRoot
	}
	return cfg, nil
}

func runOnce(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.execute(ctx)
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	srv := httpadapter.NewServer(cfg.HTTPAddr, a.pipeline, a.pipeline, a.logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", "error", err)
			stop()
		}
	}()

	runsDone := a.startSchedule(ctx, interval)

	<-ctx.Done()
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", "error", err)
	}
	// The run in flight sees ctx cancelled; notifiers are closed only after it returns.
	<-runsDone
	a.logger.Info("shutdown complete")
	return nil
}
