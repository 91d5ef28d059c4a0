package main

import (
	"fmt"

	"github.com/aretw0/crudgen/pkg/openapi"
	"github.com/spf13/cobra"
)

func newOpenAPICmd(flags *globalFlags) *cobra.Command {
	var (
		title  string
		server string
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI document of the record API",
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, cfg, err := flags.offlineGenerator(false)
			if err != nil {
				return err
			}

			doc := openapi.Document(gen.Compiled(),
				openapi.WithTitle(title),
				openapi.WithVersion(trimVersion()),
				openapi.WithServer(server),
				openapi.WithStrict(cfg.Strict),
			)
			data, err := openapi.MarshalJSON(doc)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "crudgen records", "Document title")
	cmd.Flags().StringVar(&server, "server", "", "Server URL to advertise")
	return cmd
}
