package main

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/aretw0/crudgen/pkg/schema"
	"github.com/spf13/cobra"
)

func newCoerceCmd() *cobra.Command {
	var contentType string

	cmd := &cobra.Command{
		Use:   "coerce --type <type> <value>...",
		Short: "Convert raw text values to a content type",
		Example: `  crudgen coerce --type number "12.5kg" "3."
  crudgen coerce --type date "1.12.2012"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if contentType == "" {
				return schema.ErrMissingContentType
			}
			for _, raw := range args {
				v := schema.Coerce(raw, contentType)
				switch c := v.(type) {
				case float64:
					if math.IsNaN(c) {
						fmt.Fprintln(cmd.OutOrStdout(), "NaN")
						continue
					}
				case time.Time:
					if c.Equal(schema.InvalidDate) {
						fmt.Fprintln(cmd.OutOrStdout(), "Invalid Date")
						continue
					}
				}
				data, err := json.Marshal(v)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&contentType, "type", "t", "", "Target content type (string, number, date)")
	return cmd
}
