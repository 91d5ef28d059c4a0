package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/crudgen"
	"github.com/aretw0/crudgen/internal/cli"
	"github.com/aretw0/crudgen/pkg/domain"
	"github.com/spf13/cobra"
)

func newRecordsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Manage records in the configured store",
	}

	// withGenerator opens the configured store for the duration of fn.
	withGenerator := func(cmd *cobra.Command, fn func(gen *crudgen.Generator) error) error {
		cfg, logger, err := flags.load()
		if err != nil {
			return err
		}
		gen, backend, err := cli.NewGenerator(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer backend.Close()
		return fn(gen)
	}

	var coerce bool
	insert := &cobra.Command{
		Use:   "insert <file>",
		Short: "Validate and store every record in a JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGenerator(cmd, func(gen *crudgen.Generator) error {
				records, err := readRecords(args[0], cmd.InOrStdin())
				if err != nil {
					return err
				}
				for i, r := range records {
					if coerce {
						records[i] = gen.Coerce(r)
					} else {
						records[i] = domain.Record(gen.Compiled().Normalize(r))
					}
				}
				ids, err := gen.InsertMany(cmd.Context(), records)
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return err
			})
		},
	}
	insert.Flags().BoolVar(&coerce, "coerce", false, "Coerce loosely typed values before validating")

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored record ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGenerator(cmd, func(gen *crudgen.Generator) error {
				ids, err := gen.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			})
		},
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a stored record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGenerator(cmd, func(gen *crudgen.Generator) error {
				record, err := gen.Find(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(record)
			})
		},
	}

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGenerator(cmd, func(gen *crudgen.Generator) error {
				return gen.Remove(cmd.Context(), args[0])
			})
		},
	}

	cmd.AddCommand(insert, list, get, remove)
	return cmd
}
