package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tirix/metamath-vspa/internal/lsp"
	"github.com/tirix/metamath-vspa/internal/workspace"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the language server over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, cancel := newSignalContext()
		defer cancel()

		ws := workspace.New(cfg, logger)
		if err := ws.Load(ctx); err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return ws.Watch(gctx)
		})
		g.Go(func() error {
			srv := lsp.NewServer(os.Stdin, os.Stdout, ws, logger)
			return srv.Run(gctx)
		})

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
