package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/foldview/foldview/pkg/fslist"
	"github.com/foldview/foldview/pkg/server"
)

func newServeCmd() *cobra.Command {
	var listen, root string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tree-listing HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = cfg.Listen
			}
			if root == "" {
				root = cfg.Root
			}
			return runServe(cmd.Context(), listen, root)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "bind address (overrides config)")
	cmd.Flags().StringVarP(&root, "root", "r", "", "directory to serve (overrides config)")
	return cmd
}

func runServe(parent context.Context, listen, root string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lister := fslist.NewCachedLister(
		fslist.NewDirLister(root, cfg.AllowHidden),
		log.With().Str("component", "lister").Logger(),
	)
	defer lister.Close()
	if err := lister.Watch(root); err != nil {
		// Listings still work without change notification, just uncached
		// against renames until the next invalidation.
		log.Warn().Err(err).Str("root", root).Msg("filesystem watch unavailable")
	}

	srv := &http.Server{
		Addr:              listen,
		Handler:           server.New(lister, log.With().Str("component", "server").Logger()).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("listen", listen).Str("root", root).Msg("tree service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
