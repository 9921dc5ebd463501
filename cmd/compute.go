package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/mess-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/mess-cli/internal/config"
	"github.com/KaramelBytes/mess-cli/internal/mess"
	"github.com/KaramelBytes/mess-cli/internal/parser"
	"github.com/KaramelBytes/mess-cli/internal/store"
	"github.com/KaramelBytes/mess-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	compReference string
	compTarget    string
	compOutput    string
	compFormat    string
	compReport    string
	compFull      bool
	compNoStore   bool
	compQuiet     bool
	compTable     tableFlags
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute MESS scores of a target table against a reference table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if compReference == "" || compTarget == "" {
			return fmt.Errorf("--reference and --target are required")
		}
		c, err := currentConfig()
		if err != nil {
			return err
		}
		opt, err := compTable.options(c)
		if err != nil {
			return err
		}
		format, err := resolveFormat(compFormat, compOutput, c)
		if err != nil {
			return err
		}

		refFrame, model, err := prepareReference(compReference, opt)
		if err != nil {
			return err
		}
		target, err := parser.Load(compTarget, opt, refFrame.Schema())
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
		full := compFull || c.FullMatrix
		debugLog.Printf("computing %d target rows against %d reference rows (%d variables)",
			target.Table.Rows(), model.SampleSize(), len(model.Variables()))
		res, err := model.Compute(target.Table, mess.Options{Full: full})
		if err != nil {
			return fmt.Errorf("compute: %w", err)
		}
		rep := analysis.NewReport(model, refFrame, target, res)

		if !compQuiet {
			for _, w := range rep.Warnings {
				fmt.Fprintf(os.Stderr, "⚠ %s\n", w)
			}
		}
		data, err := render(format, res, rep, target.Passthrough)
		if err != nil {
			return err
		}
		if compOutput != "" {
			if err := utils.SafeWriteFile(compOutput, data); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			if !compQuiet {
				fmt.Printf("✓ Wrote MESS (%s) to %s\n", format, compOutput)
			}
		} else {
			os.Stdout.Write(data)
		}
		if compReport != "" {
			if err := utils.SafeWriteFile(compReport, []byte(rep.Markdown())); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			if !compQuiet {
				fmt.Printf("✓ Wrote report to %s\n", compReport)
			}
		}
		if c.StoreEnabled && !compNoStore {
			if id, err := recordRun(cmd.Context(), refFrame.Name, target.Name, res, full); err != nil {
				fmt.Fprintf(os.Stderr, "⚠ Warning: run not recorded: %v\n", err)
			} else if !compQuiet && compOutput != "" {
				fmt.Printf("✓ Recorded run %s\n", id)
			}
		}
		return nil
	},
}

// prepareReference reads a reference table and builds its model.
func prepareReference(path string, opt analysis.Options) (*analysis.Frame, *mess.Reference, error) {
	fr, err := parser.Load(path, opt, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("reference: %w", err)
	}
	model, err := mess.NewReference(fr.Table)
	if err != nil {
		return nil, nil, fmt.Errorf("reference %s: %w", fr.Name, err)
	}
	debugLog.Printf("reference %s: kept %d rows, dropped %d", fr.Name, model.SampleSize(), model.Dropped())
	return fr, model, nil
}

// resolveFormat picks the output format: flag, then output extension,
// then config.
func resolveFormat(flag, output string, c *cfgpkg.Global) (string, error) {
	f := strings.ToLower(strings.TrimSpace(flag))
	if f == "" {
		switch strings.ToLower(filepath.Ext(output)) {
		case ".json":
			f = "json"
		case ".md":
			f = "markdown"
		case ".csv", ".tsv":
			f = "csv"
		}
	}
	if f == "" && c != nil {
		f = strings.ToLower(c.OutputFormat)
	}
	switch f {
	case "", "csv":
		return "csv", nil
	case "json":
		return "json", nil
	case "markdown", "md":
		return "markdown", nil
	default:
		return "", fmt.Errorf("unsupported --format: %s (use csv|json|markdown)", f)
	}
}

// formatExt is the file extension written for a format.
func formatExt(format string) string {
	switch format {
	case "json":
		return ".json"
	case "markdown":
		return ".md"
	default:
		return ".csv"
	}
}

func render(format string, res *mess.Result, rep *analysis.Report, passthrough []analysis.RawColumn) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "json":
		if err := analysis.WriteJSON(&buf, res, passthrough); err != nil {
			return nil, err
		}
	case "markdown":
		buf.WriteString(rep.Markdown())
	default:
		if err := analysis.WriteCSV(&buf, res, passthrough); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// recordRun stores the run summary in the history store.
func recordRun(ctx context.Context, reference, target string, res *mess.Result, full bool) (string, error) {
	s, err := openStore()
	if err != nil {
		return "", err
	}
	defer s.Close()
	run := store.NewRun(reference, target, res.Summary(), full)
	if err := s.Add(ctx, run); err != nil {
		return "", err
	}
	debugLog.Printf("recorded run %s", run.ID)
	return run.ID, nil
}

func init() {
	rootCmd.AddCommand(computeCmd)
	computeCmd.Flags().StringVarP(&compReference, "reference", "r", "", "reference table (CSV/TSV/XLSX)")
	computeCmd.Flags().StringVarP(&compTarget, "target", "t", "", "target table to score (CSV/TSV/XLSX)")
	computeCmd.Flags().StringVarP(&compOutput, "output", "o", "", "optional path to write results (default stdout)")
	computeCmd.Flags().StringVarP(&compFormat, "format", "f", "", "output format: csv|json|markdown (default from -o extension or config)")
	computeCmd.Flags().StringVar(&compReport, "report", "", "optional path to write a Markdown run report")
	computeCmd.Flags().BoolVar(&compFull, "full", false, "include per-variable similarity columns")
	computeCmd.Flags().BoolVar(&compNoStore, "no-store", false, "do not record the run in history")
	computeCmd.Flags().BoolVar(&compQuiet, "quiet", false, "suppress warnings and non-essential output")
	compTable.register(computeCmd.Flags())
}
