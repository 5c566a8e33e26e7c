package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sellerctl/internal/model"
	"sellerctl/internal/service"
)

var intentsCmd = &cobra.Command{
	Use:   "intents",
	Short: "List the commands sellerctl understands and their fields",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, d := range service.NewSchemaRegistry().Describe() {
			flag := ""
			if d.Meta.Destructive {
				flag = " (destructive)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s%s\n", d.Intent, d.Meta.Category, d.Meta.Label, flag)
			for _, f := range d.Fields {
				fmt.Fprintf(w, "\t  %s\t%s\n", f.Name, describeField(f))
			}
		}
		return w.Flush()
	},
}

func describeField(f model.FieldSpec) string {
	var b strings.Builder
	b.WriteString(string(f.Type))
	if len(f.EnumValues) > 0 {
		b.WriteString(" [" + strings.Join(f.EnumValues, "|") + "]")
	}
	if f.Required {
		b.WriteString(", required")
	}
	if f.Note != "" {
		b.WriteString(", " + f.Note)
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(intentsCmd)
}
