package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/animecal/metrics"
	"github.com/s0up4200/animecal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the calendar feed over HTTP",
	Long: `Start an HTTP server publishing the feed at / and /calendar.ics.

Each request builds the feed from AniList; fetched pages are cached for
cache.ttl, and concurrent requests share a single build. Prometheus metrics
are exposed at /metrics and a liveness probe at /healthz.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	serveCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
}

func runServe(cmd *cobra.Command, args []string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p, err := newPipeline(metrics.New(reg))
	if err != nil {
		return err
	}

	svc, err := p.newFeed(filterExpr, preset)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := server.New(server.Config{
		Addr:              addr,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		SlowRequest:       cfg.Server.SlowRequest,
	}, svc, reg, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Run(); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
