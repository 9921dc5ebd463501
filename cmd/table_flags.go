package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/mess-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/mess-cli/internal/config"
	"github.com/spf13/pflag"
)

// tableFlags are the table-reading flags shared by compute, batch and inspect.
type tableFlags struct {
	delimiter   string
	decimal     string
	thousands   string
	maxRows     int
	categorical []string
	exclude     []string
	sheetName   string
	sheetIndex  int
	naValues    []string
	noUnits     bool
}

func (tf *tableFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&tf.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	fs.StringVar(&tf.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	fs.StringVar(&tf.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	fs.IntVar(&tf.maxRows, "max-rows", 0, "maximum rows to read per table (0 = unlimited)")
	fs.StringSliceVar(&tf.categorical, "categorical", nil, "comma-separated column names to treat as categorical")
	fs.StringSliceVar(&tf.exclude, "exclude", nil, "comma-separated columns to carry through without scoring (ids, coordinates)")
	fs.StringVar(&tf.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	fs.IntVar(&tf.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	fs.StringSliceVar(&tf.naValues, "na", nil, "tokens read as missing (default from config)")
	fs.BoolVar(&tf.noUnits, "no-unit-normalize", false, "keep values in their source units")
}

// options merges config defaults with the flags; flags win.
func (tf *tableFlags) options(c *cfgpkg.Global) (analysis.Options, error) {
	opt := analysis.DefaultOptions()
	delim, dec, thou := tf.delimiter, tf.decimal, tf.thousands
	if c != nil {
		if delim == "" {
			delim = c.Delimiter
		}
		if dec == "" {
			dec = c.DecimalSeparator
		}
		if thou == "" {
			thou = c.ThousandsSeparator
		}
		if len(c.NAValues) > 0 {
			opt.NAValues = c.NAValues
		}
		opt.MaxRows = c.MaxRows
		opt.UnitNormalize = c.UnitNormalize
	}
	var err error
	if opt.Delimiter, err = separator("--delimiter", delim, ",;|\t", "','|';'|'|'|tab"); err != nil {
		return opt, err
	}
	if opt.DecimalSeparator, err = separator("--decimal", dec, ".,", "'.'|'comma'"); err != nil {
		return opt, err
	}
	if opt.ThousandsSeparator, err = separator("--thousands", thou, ",. ", "','|'.'|'space'"); err != nil {
		return opt, err
	}
	if opt.DecimalSeparator != 0 && opt.DecimalSeparator == opt.ThousandsSeparator {
		return opt, fmt.Errorf("decimal and thousands separators must differ")
	}
	if tf.maxRows > 0 {
		opt.MaxRows = tf.maxRows
	}
	if len(tf.naValues) > 0 {
		opt.NAValues = tf.naValues
	}
	if tf.noUnits {
		opt.UnitNormalize = false
	}
	opt.Categorical = tf.categorical
	opt.Exclude = tf.exclude
	opt.SheetName = tf.sheetName
	opt.SheetIndex = tf.sheetIndex
	return opt, nil
}

// separator resolves a separator setting and checks it against allowed.
// An empty setting yields 0 (auto-detect).
func separator(flag, val, allowed, hint string) (rune, error) {
	r, ok := cfgpkg.Rune(val)
	if r == 0 && ok {
		return 0, nil
	}
	if !ok || !strings.ContainsRune(allowed, r) {
		return 0, fmt.Errorf("unsupported %s: %s (use %s)", flag, val, hint)
	}
	return r, nil
}
