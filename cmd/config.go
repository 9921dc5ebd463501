package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/mess-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set MESS configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("delimiter: %s\n", orAuto(cfg.Delimiter))
		fmt.Printf("decimal_separator: %s\n", orAuto(cfg.DecimalSeparator))
		fmt.Printf("thousands_separator: %s\n", orAuto(cfg.ThousandsSeparator))
		fmt.Printf("na_values: %s\n", strings.Join(cfg.NAValues, ","))
		fmt.Printf("max_rows: %d\n", cfg.MaxRows)
		fmt.Printf("unit_normalize: %t\n", cfg.UnitNormalize)
		fmt.Printf("full_matrix: %t\n", cfg.FullMatrix)
		fmt.Printf("output_format: %s\n", cfg.OutputFormat)
		fmt.Printf("store_enabled: %t\n", cfg.StoreEnabled)
		fmt.Printf("store_dsn: %s\n", maskDSN(cfg.StoreDSN))
		fmt.Printf("cache_size: %d\n", cfg.CacheSize)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "delimiter":
			if _, err := separator("delimiter", val, ",;|\t", "','|';'|'|'|tab"); err != nil {
				return err
			}
			cfg.Delimiter = val
		case "decimal_separator":
			if _, err := separator("decimal_separator", val, ".,", "'.'|'comma'"); err != nil {
				return err
			}
			cfg.DecimalSeparator = val
		case "thousands_separator":
			if _, err := separator("thousands_separator", val, ",. ", "','|'.'|'space'"); err != nil {
				return err
			}
			cfg.ThousandsSeparator = val
		case "na_values":
			var tokens []string
			for _, t := range strings.Split(val, ",") {
				tokens = append(tokens, strings.TrimSpace(t))
			}
			cfg.NAValues = tokens
		case "max_rows":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for max_rows: %v", val)
			}
			cfg.MaxRows = i
		case "unit_normalize", "full_matrix", "store_enabled":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for %s: %w", key, err)
			}
			switch key {
			case "unit_normalize":
				cfg.UnitNormalize = b
			case "full_matrix":
				cfg.FullMatrix = b
			default:
				cfg.StoreEnabled = b
			}
		case "output_format":
			f, err := resolveFormat(val, "", nil)
			if err != nil {
				return err
			}
			cfg.OutputFormat = f
		case "store_dsn":
			cfg.StoreDSN = val
		case "cache_size":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid int for cache_size: %v", val)
			}
			cfg.CacheSize = i
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func orAuto(s string) string {
	if s == "" {
		return "(auto)"
	}
	return s
}

// maskDSN hides the password of a postgres DSN.
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	user, _, hasPass := strings.Cut(creds, ":")
	if !hasPass {
		return dsn
	}
	return dsn[:scheme+3] + user + ":****" + dsn[at:]
}
