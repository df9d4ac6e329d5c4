package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/pulse/internal/infrastructure/sse"
	"github.com/felixgeelhaar/pulse/pkg/application"
	"github.com/felixgeelhaar/pulse/pkg/infrastructure/dashboard"
	"github.com/felixgeelhaar/pulse/pkg/infrastructure/webhook"
)

const shutdownTimeout = 5 * time.Second

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard, JSON API and live report stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadInitializedServices(cmd.Context())
		if err != nil {
			return MapError(err)
		}
		defer func() { _ = services.Close() }()

		addr := serveAddr
		if addr == "" {
			addr = services.Workspace.Config.Serve.Addr
		}

		opts := dashboard.Options{
			Defaults: services.DefaultRequest("http"),
			Stream:   sse.NewSSEHandler(services.Hub),
			Socket:   sse.NewWSHandler(services.Hub, logger),
			Logger:   logger,
		}
		if secret := services.Workspace.Config.PushSecret; secret != "" {
			opts.Ingest = webhook.NewReceiver(services.Workspace.Repo, secret, services.Audit, logger).Handler()
		}
		srv, err := dashboard.NewServer(addr, services.Insights, opts)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		watchReq := services.DefaultRequest("watch")
		if _, err := services.Refresh(ctx, watchReq); err != nil {
			logger.Warn("initial report failed", "error", err)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("dashboard server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		if serveWatch {
			g.Go(func() error {
				return runWatch(gctx, services, watchReq, func(paths []string, r *application.Report, err error) {
					if err != nil {
						logger.Warn("refresh failed", "paths", paths, "error", err)
						return
					}
					logger.Info("report refreshed", "paths", paths, "report_id", r.ID, "severity", r.Severity)
				})
			})
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Serving pulse on http://%s (Ctrl+C to stop)\n", addr)
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from pulse.yaml or PULSE_ADDR)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", true, "Regenerate and push reports when .pulse changes")
	RootCmd.AddCommand(serveCmd)
}
