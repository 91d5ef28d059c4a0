package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/crudgen/internal/presentation/tui"
	"github.com/aretw0/crudgen/pkg/schema"
	"github.com/spf13/cobra"
)

func newParseCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <definition>...",
		Short: "Parse field definitions and show their parts",
		Example: `  crudgen parse "number:4" "_string:64:email"
  crudgen parse --json "date:-1"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			descriptors := make(map[string]schema.Descriptor, len(args))
			for _, def := range args {
				d, err := schema.ParseDefinition(def)
				if err != nil {
					return err
				}
				descriptors[def] = d
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(descriptors)
			}

			render := tui.NewRenderer(outFile(cmd))
			for _, def := range args {
				out, err := render(tui.DescriptorMarkdown(def, descriptors[def]))
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print descriptors as JSON")
	return cmd
}

// outFile returns the command's output as a file when it is one, so the
// renderer can detect a terminal.
func outFile(cmd *cobra.Command) *os.File {
	f, _ := cmd.OutOrStdout().(*os.File)
	return f
}
