package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/wms-enderecos/pkg/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the browser front end",
		Long: `Serve starts a web page where users enter client id, client secret and
unit id, see the address table and download the workbook.

Also exposes /health, /ready and /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, a)
		},
	}

	cmd.Flags().StringP("listen", "l", ":8080", "Listen address (env WMS_LISTEN)")
	a.bind(cmd, "listen", "listen", false)

	return cmd
}

func runServe(cmd *cobra.Command, a *app) error {
	comps, err := buildComponents(a.cfg)
	if err != nil {
		return err
	}
	defer comps.Close()

	srv := server.New(comps.service, comps.ready)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(a.cfg.Listen)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down web front end")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
