package cmd

import (
	"errors"
	"fmt"
	"math"

	"github.com/KaramelBytes/mess-cli/internal/store"
	"github.com/KaramelBytes/mess-cli/internal/utils"
	"github.com/spf13/cobra"
)

var runsShowJSON bool

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List, show or delete recorded MESS runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		runs, err := s.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("(no runs)")
			return nil
		}
		for _, r := range runs {
			fmt.Printf("- %s %s: %s -> %s (%d rows, %d extrapolated, min %s)\n",
				r.ID, r.Created().Format("2006-01-02 15:04:05"), r.Reference, r.Target,
				r.Rows, r.ExtrapolatedRows, statString(r.MinMESS))
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		r, err := s.Get(cmd.Context(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("run %s: %w", args[0], err)
		}
		if err != nil {
			return err
		}
		if runsShowJSON {
			b, err := utils.PrettyJSON(runView(r))
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}
		fmt.Printf("Run %s (%s)\n", r.ID, r.Created().Format("2006-01-02 15:04:05"))
		fmt.Printf("Reference: %s\n", r.Reference)
		fmt.Printf("Target: %s\n", r.Target)
		fmt.Printf("Rows: %d, defined: %d, extrapolated: %d, unseen categories: %d\n",
			r.Rows, r.DefinedRows, r.ExtrapolatedRows, r.UnseenRows)
		fmt.Printf("MESS: min %s, max %s, mean %s\n", statString(r.MinMESS), statString(r.MaxMESS), statString(r.MeanMESS))
		for _, v := range r.Variables {
			fmt.Printf("- %s (%s): MoD %d, MoS %d\n", v.Name, v.Kind, v.MoD, v.MoS)
		}
		return nil
	},
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("run %s: %w", args[0], err)
		}
		fmt.Printf("✓ Deleted run %s\n", args[0])
		return nil
	},
}

// runView adds printable MESS statistics to a run for JSON output.
func runView(r store.Run) any {
	return struct {
		store.Run
		MinMESS  string `json:"min_mess"`
		MaxMESS  string `json:"max_mess"`
		MeanMESS string `json:"mean_mess"`
	}{r, statString(r.MinMESS), statString(r.MaxMESS), statString(r.MeanMESS)}
}

func statString(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NA"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return fmt.Sprintf("%.4g", v)
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
	runsShowCmd.Flags().BoolVar(&runsShowJSON, "json", false, "print the run as JSON")
}
