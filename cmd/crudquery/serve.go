package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	transport "github.com/autom8ter/crudquery/transport/http"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var cfg transport.Config
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the query, build and openapi endpoints over http",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			s, err := transport.New(cfg)
			if err != nil {
				return err
			}
			return s.Serve(ctx)
		},
	}
	cmd.Flags().IntVarP(&cfg.Port, "port", "p", 8080, "port to serve on")
	cmd.Flags().StringVarP(&cfg.Title, "title", "t", "crudquery", "title of the api")
	cmd.Flags().StringVarP(&cfg.Description, "description", "d", "a crud api accepting request query strings", "description of the api")
	cmd.Flags().StringVarP(&cfg.Version, "version", "v", "v0.0.0", "version of the api")
	cmd.Flags().StringSliceVar(&cfg.AllowOrigins, "allow-origins", []string{"*"}, "cors allowed origins")
	cmd.Flags().StringVarP(&cfg.LogLevel, "log-level", "l", "info", "log level: debug, info, warn or error")
	return cmd
}
