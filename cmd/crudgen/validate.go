package main

import (
	"fmt"

	"github.com/aretw0/crudgen/internal/presentation/tui"
	"github.com/aretw0/crudgen/pkg/domain"
	"github.com/aretw0/crudgen/pkg/schema"
	"github.com/spf13/cobra"
)

func newValidateCmd(flags *globalFlags) *cobra.Command {
	var (
		strict bool
		coerce bool
	)

	cmd := &cobra.Command{
		Use:   "validate [files...]",
		Short: "Validate records from JSON or YAML files against the schema",
		Long: `Validates every record found in the given files (or stdin when none are
given). A file may hold one record or a list of records. Exits non-zero
when any record is invalid.`,
		Example: `  crudgen validate --schema user.yaml users.json
  cat user.json | crudgen validate -s user.yaml --coerce`,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, _, err := flags.offlineGenerator(strict)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"-"}
			}

			var (
				failures []error
				total    int
			)
			for _, path := range args {
				records, err := readRecords(path, cmd.InOrStdin())
				if err != nil {
					return err
				}
				for _, record := range records {
					if coerce {
						record = gen.Coerce(record)
					} else {
						record = domain.Record(gen.Compiled().Normalize(record))
					}
					if err := gen.Validate(cmd.Context(), map[string]any(record)); err != nil {
						failures = append(failures, &schema.RecordError{Index: total, Err: err})
					}
					total++
				}
			}

			out := cmd.OutOrStdout()
			if len(failures) == 0 {
				tui.Success(out, fmt.Sprintf("%d record(s) valid", total))
				return nil
			}

			aggr := &schema.AggregateError{Errors: failures}
			render := tui.NewRenderer(outFile(cmd))
			text, err := render(tui.ErrorMarkdown(aggr))
			if err != nil {
				return err
			}
			fmt.Fprint(out, text)
			tui.Failure(out, fmt.Sprintf("%d of %d record(s) invalid", len(failures), total))
			return fmt.Errorf("validation failed")
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Reject fields the schema does not define")
	cmd.Flags().BoolVar(&coerce, "coerce", false, "Coerce loosely typed values before validating")
	return cmd
}
