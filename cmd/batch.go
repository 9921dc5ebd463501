package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/mess-cli/internal/analysis"
	"github.com/KaramelBytes/mess-cli/internal/cache"
	"github.com/KaramelBytes/mess-cli/internal/mess"
	"github.com/KaramelBytes/mess-cli/internal/parser"
	"github.com/KaramelBytes/mess-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	bReference string
	bOutDir    string
	bFormat    string
	bFull      bool
	bNoStore   bool
	bQuiet     bool
	bTable     tableFlags

	// refCache is shared by batch runs within one process.
	refCache *cache.References
)

var batchCmd = &cobra.Command{
	Use:   "batch <targets...>",
	Short: "Score many target tables against one reference with progress",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if bReference == "" {
			return fmt.Errorf("--reference is required")
		}
		files := utils.ExpandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		c, err := currentConfig()
		if err != nil {
			return err
		}
		opt, err := bTable.options(c)
		if err != nil {
			return err
		}
		format, err := resolveFormat(bFormat, "", c)
		if err != nil {
			return err
		}
		if refCache == nil {
			rc, err := cache.New(c.CacheSize)
			if err != nil {
				return err
			}
			refCache = rc
		}
		outDir := bOutDir
		if outDir == "" {
			outDir = "."
		}
		if err := utils.EnsureDir(outDir); err != nil {
			return fmt.Errorf("create out dir: %w", err)
		}
		full := bFull || c.FullMatrix

		total := len(files)
		for i, path := range files {
			if !bQuiet {
				fmt.Printf("[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			ref, hit, err := refCache.Load(bReference, opt, func() (cache.Entry, error) {
				fr, model, err := prepareReference(bReference, opt)
				if err != nil {
					return cache.Entry{}, err
				}
				return cache.Entry{Frame: fr, Model: model}, nil
			})
			if err != nil {
				return err
			}
			debugLog.Printf("reference cache hit=%v", hit)

			target, err := parser.Load(path, opt, ref.Frame.Schema())
			if err != nil {
				return fmt.Errorf("target %s: %w", filepath.Base(path), err)
			}
			res, err := ref.Model.Compute(target.Table, mess.Options{Full: full})
			if err != nil {
				return fmt.Errorf("compute %s: %w", target.Name, err)
			}
			rep := analysis.NewReport(ref.Model, ref.Frame, target, res)
			data, err := render(format, res, rep, target.Passthrough)
			if err != nil {
				return err
			}

			base := filepath.Base(path)
			safe := strings.TrimSuffix(base, filepath.Ext(base)) + ".mess"
			outFile, renamed := utils.UniquePath(outDir, safe, formatExt(format))
			if renamed && !bQuiet {
				fmt.Printf("⚠ Detected existing output, writing to %s to avoid overwrite.\n", filepath.Base(outFile))
			}
			if err := utils.SafeWriteFile(outFile, data); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			if c.StoreEnabled && !bNoStore {
				if _, err := recordRun(cmd.Context(), ref.Frame.Name, target.Name, res, full); err != nil {
					fmt.Fprintf(os.Stderr, "⚠ Warning: run not recorded: %v\n", err)
				}
			}
			if !bQuiet {
				s := rep.Summary
				fmt.Printf("✓ %s: %d/%d rows extrapolated -> %s\n", target.Name, s.Extrapolated, s.Defined, filepath.Base(outFile))
			}
		}
		hits, misses := refCache.Stats()
		debugLog.Printf("reference cache: %d hits, %d misses", hits, misses)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringVarP(&bReference, "reference", "r", "", "reference table (CSV/TSV/XLSX)")
	batchCmd.Flags().StringVar(&bOutDir, "out-dir", ".", "directory for per-target outputs")
	batchCmd.Flags().StringVarP(&bFormat, "format", "f", "", "output format: csv|json|markdown (default from config)")
	batchCmd.Flags().BoolVar(&bFull, "full", false, "include per-variable similarity columns")
	batchCmd.Flags().BoolVar(&bNoStore, "no-store", false, "do not record runs in history")
	batchCmd.Flags().BoolVar(&bQuiet, "quiet", false, "suppress progress and non-essential output")
	bTable.register(batchCmd.Flags())
}
