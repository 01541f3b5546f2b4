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

	"github.com/opsre/gvmd/internal/catalog"
	"github.com/opsre/gvmd/internal/config"
	"github.com/opsre/gvmd/internal/controller"
	"github.com/opsre/gvmd/internal/database"
	"github.com/opsre/gvmd/internal/ledger"
	"github.com/opsre/gvmd/internal/lxc"
	"github.com/opsre/gvmd/internal/registry"
	"github.com/opsre/gvmd/internal/server"
)

// serveCmd runs the daemon.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the panel API server",
	Long:  `Start the HTTP API server, reconciling any interrupted provisioning work first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runServe(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cfg *config.Config) error {
	log, err := newLogger(cfg.Server.HTTP.Debug)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer database.Close(db) //nolint:errcheck

	cat := buildCatalog(cfg)
	led := ledger.New(db)
	reg := registry.New(db)
	gw := lxc.NewGateway(lxc.Config{
		Binary:      cfg.Runtime.Binary,
		Image:       cfg.Runtime.Image,
		StoragePool: cfg.Runtime.StoragePool,
		Timeout:     time.Duration(cfg.Runtime.TimeoutSeconds) * time.Second,
	}, log)
	ctrl := controller.New(db, cat, led, reg, gw, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Resolve debits orphaned by a previous crash before taking traffic.
	if err := ctrl.Reconcile(ctx); err != nil {
		return fmt.Errorf("startup reconciliation failed: %w", err)
	}

	srv := server.NewHTTPServer(cfg, db, ctrl, cat, led, log)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// buildCatalog returns the configured catalog, or the built-in one when the
// config defines no plans.
func buildCatalog(cfg *config.Config) *catalog.Catalog {
	if len(cfg.Plans) == 0 {
		return catalog.Default()
	}
	plans := make([]catalog.PlanSpec, 0, len(cfg.Plans))
	for _, p := range cfg.Plans {
		plans = append(plans, catalog.PlanSpec{
			Name:      p.Name,
			MemoryMB:  p.MemoryMB,
			CPUs:      p.CPUs,
			StorageGB: p.StorageGB,
			Prices:    p.Prices,
		})
	}
	return catalog.New(plans)
}
