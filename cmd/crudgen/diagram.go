package main

import (
	"fmt"

	"github.com/aretw0/crudgen/internal/presentation/graph"
	"github.com/spf13/cobra"
)

func newDiagramCmd(flags *globalFlags) *cobra.Command {
	var (
		entity string
		record string
	)

	cmd := &cobra.Command{
		Use:   "diagram",
		Short: "Export the schema as a Mermaid entity diagram",
		Long:  `Outputs a Mermaid erDiagram of the schema. With --record, fields the record fails on are marked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, _, err := flags.offlineGenerator(false)
			if err != nil {
				return err
			}

			var overlay *graph.Overlay
			if record != "" {
				records, err := readRecords(record, cmd.InOrStdin())
				if err != nil {
					return err
				}
				overlay = &graph.Overlay{Failures: map[string]string{}}
				for _, r := range records {
					normalized := gen.Compiled().Normalize(r)
					for field, rule := range graph.OverlayFromError(gen.Validate(cmd.Context(), normalized)).Failures {
						overlay.Failures[field] = rule
					}
				}
			}

			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(entity, gen.Compiled(), overlay))
			return nil
		},
	}
	cmd.Flags().StringVar(&entity, "entity", "record", "Entity name")
	cmd.Flags().StringVar(&record, "record", "", "Record file to overlay validation failures from")
	return cmd
}
