package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	cfgpkg "github.com/KaramelBytes/mess-cli/internal/config"
	"github.com/KaramelBytes/mess-cli/internal/store"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global

	// debugLog writes to stderr only when --debug is set.
	debugLog = log.New(io.Discard, "", 0)
)

var rootCmd = &cobra.Command{
	Use:   "mess",
	Short: "MESS CLI: score how far target locations extrapolate beyond a reference sample",
	Long: `mess computes Multivariate Environmental Similarity Surfaces for tabular data.
Each target row is compared variable by variable against a reference sample;
negative scores mark environmental conditions outside the reference range.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.mess/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
}

func loadConfig() {
	if debug {
		debugLog = log.New(os.Stderr, "[debug] ", log.LstdFlags)
	} else {
		debugLog = log.New(io.Discard, "", 0)
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
	debugLog.Printf("config loaded: store=%s cache_size=%d", maskDSN(cfg.StoreDSN), cfg.CacheSize)
}

// currentConfig returns the loaded configuration, loading it on demand.
func currentConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

// openStore opens the configured run history store.
func openStore() (store.RunStore, error) {
	c, err := currentConfig()
	if err != nil {
		return nil, err
	}
	debugLog.Printf("opening run store %s", maskDSN(c.StoreDSN))
	return store.NewStore(c.StoreDSN)
}
