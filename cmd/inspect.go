package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/mess-cli/internal/mess"
	"github.com/KaramelBytes/mess-cli/internal/parser"
	"github.com/spf13/cobra"
)

var inspectTable tableFlags

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show the inferred variables of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		opt, err := inspectTable.options(c)
		if err != nil {
			return err
		}
		fr, err := parser.Load(args[0], opt, nil)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d rows, %d variables\n", fr.Name, fr.Rows, len(fr.Table.Columns))
		for _, col := range fr.Table.Columns {
			missing := 0
			for i := 0; i < col.Len(); i++ {
				if col.IsMissing(i) {
					missing++
				}
			}
			name := col.Name
			if u := fr.Units[col.Name]; u != "" {
				name = fmt.Sprintf("%s [%s]", name, u)
			}
			detail := ""
			if col.Kind == mess.Categorical {
				levels := map[string]struct{}{}
				for _, v := range col.Cat {
					if v != "" {
						levels[v] = struct{}{}
					}
				}
				detail = fmt.Sprintf(", %d levels", len(levels))
			}
			fmt.Printf("- %s: %s%s, %d missing\n", name, col.Kind, detail, missing)
		}
		if len(fr.Passthrough) > 0 {
			names := make([]string, len(fr.Passthrough))
			for i, p := range fr.Passthrough {
				names[i] = p.Name
			}
			fmt.Printf("passthrough: %s\n", strings.Join(names, ", "))
		}
		for _, w := range fr.Warnings {
			fmt.Printf("⚠ %s\n", w)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectTable.register(inspectCmd.Flags())
}
