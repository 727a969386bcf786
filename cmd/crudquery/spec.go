package main

import (
	"fmt"

	"github.com/autom8ter/crudquery"
	"github.com/spf13/cobra"
)

func specCmd() *cobra.Command {
	var cfg crudquery.SpecConfig
	cmd := &cobra.Command{
		Use:   "spec",
		Short: "print an openapi specification documenting the request query params",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bits, err := crudquery.OpenAPISpec(cmd.Context(), cfg, crudquery.GetOptions())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(bits))
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfg.Title, "title", "t", "crudquery", "title of the api")
	cmd.Flags().StringVarP(&cfg.Description, "description", "d", "a crud api accepting request query strings", "description of the api")
	cmd.Flags().StringVarP(&cfg.Version, "version", "v", "v0.0.0", "version of the api")
	cmd.Flags().StringVar(&cfg.Path, "path", "/api/query", "path of the documented endpoint")
	cmd.Flags().StringVar(&cfg.Resource, "resource", "resources", "name of the queried resource")
	return cmd
}
