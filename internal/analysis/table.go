package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/mess-cli/internal/mess"
	"golang.org/x/text/unicode/norm"
)

// Options controls how tabular inputs are read into typed tables.
type Options struct {
	// MaxRows limits rows processed; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, picked from the file extension.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune // optional; if 0, auto-detect common separators (',' '.' space)
	// NAValues are cell tokens read as missing (case-insensitive).
	NAValues []string
	// Categorical forces the named columns to categorical.
	Categorical []string
	// Exclude drops the named columns from the similarity table. They are
	// kept verbatim in Frame.Passthrough.
	Exclude []string
	// XLSX sheet selection: by name, else 1-based index.
	SheetName  string
	SheetIndex int
	// Unit normalization: convert values to target units using simple mappings.
	UnitNormalize bool
	UnitTargets   map[string]string // map[fromUnit]toUnit, e.g., {"g/L":"mg/L", "ug/L":"mg/L", "°F":"°C"}
}

// DefaultOptions returns reasonable defaults for reading environmental tables.
func DefaultOptions() Options {
	return Options{
		NAValues:      []string{"", "NA", "NaN", "null", "-9999"},
		SheetIndex:    1,
		UnitNormalize: true,
		UnitTargets: map[string]string{
			"g/L":  "mg/L",
			"ug/L": "mg/L",
			"°F":   "°C",
		},
	}
}

// ColumnSpec declares the kind and unit of one variable.
type ColumnSpec struct {
	Name string
	Kind mess.Kind
	Unit string
}

// Schema is the ordered column declaration of a reference frame. Targets
// are read with the reference schema so kinds never come from target data.
type Schema []ColumnSpec

func (s Schema) lookup(name string) (ColumnSpec, bool) {
	for _, c := range s {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// Frame is a typed table read from a file plus load diagnostics.
type Frame struct {
	Name      string
	Table     *mess.Table
	Units     map[string]string
	Rows      int
	Processed int
	Warnings  []string
	// Passthrough holds excluded columns verbatim, in file order.
	Passthrough []RawColumn
}

// RawColumn is an untyped column carried alongside the similarity table.
type RawColumn struct {
	Name   string
	Values []string
}

// Schema returns the declared kinds and units of the frame's columns.
func (f *Frame) Schema() Schema {
	out := make(Schema, 0, len(f.Table.Columns))
	for _, c := range f.Table.Columns {
		out = append(out, ColumnSpec{Name: c.Name, Kind: c.Kind, Unit: f.Units[c.Name]})
	}
	return out
}

// rawTable is a header plus string records, before typing.
type rawTable struct {
	header []string
	rows   [][]string
	total  int
}

// ReadCSV reads a CSV/TSV file into a typed frame. A nil schema infers
// column kinds from the data; otherwise declared kinds are applied.
func ReadCSV(path string, opt Options, schema Schema) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), mess.ErrEmptyTable)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	raw := &rawTable{header: append([]string(nil), header...)}
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", raw.total+1, err)
		}
		raw.total++
		if len(raw.rows) >= maxRows {
			continue
		}
		raw.rows = append(raw.rows, rec)
	}
	return buildFrame(filepath.Base(path), raw, opt, schema)
}

// buildFrame types the raw columns and assembles the similarity table.
func buildFrame(name string, raw *rawTable, opt Options, schema Schema) (*Frame, error) {
	ncol := len(raw.header)
	if ncol == 0 {
		return nil, fmt.Errorf("%s: %w", name, mess.ErrEmptyTable)
	}
	fr := &Frame{Name: name, Units: map[string]string{}, Rows: raw.total, Processed: len(raw.rows)}
	na := naSet(opt.NAValues)
	cols := make([]mess.Column, 0, ncol)
	for j := 0; j < ncol; j++ {
		clean, unit := splitUnits(normalizeHeader(raw.header[j]))
		cells := make([]string, len(raw.rows))
		for i, rec := range raw.rows {
			if j < len(rec) {
				cells[i] = strings.TrimSpace(rec[j])
			}
		}
		if containsFold(opt.Exclude, clean) {
			fr.Passthrough = append(fr.Passthrough, RawColumn{Name: clean, Values: cells})
			continue
		}

		var kind mess.Kind
		spec, fixed := schema.lookup(clean)
		if fixed {
			kind = spec.Kind
		} else {
			var isDate bool
			kind, unit, isDate = inferKind(cells, unit, na, opt)
			if isDate {
				fr.Warnings = append(fr.Warnings, fmt.Sprintf("column %q holds dates; excluded", clean))
				fr.Passthrough = append(fr.Passthrough, RawColumn{Name: clean, Values: cells})
				continue
			}
			if containsFold(opt.Categorical, clean) {
				kind = mess.Categorical
			}
		}

		switch kind {
		case mess.Categorical:
			vals := make([]string, len(cells))
			for i, v := range cells {
				if _, missing := na[strings.ToLower(v)]; !missing {
					vals[i] = v
				}
			}
			if !fixed && everyValueDistinct(vals) {
				fr.Warnings = append(fr.Warnings, fmt.Sprintf("column %q has a distinct value in every row; consider --exclude", clean))
			}
			cols = append(cols, mess.CategoricalColumn(clean, vals))
		default:
			if unit == "" && anyPercent(cells) {
				unit = "%"
			}
			vals, bad, outUnit := parseColumn(cells, unit, na, opt)
			if bad > 0 {
				fr.Warnings = append(fr.Warnings, fmt.Sprintf("column %q: %d non-numeric values treated as missing", clean, bad))
			}
			if outUnit != "" {
				fr.Units[clean] = outUnit
			}
			if spec, ok := schema.lookup(clean); ok && spec.Unit != outUnit {
				fr.Warnings = append(fr.Warnings, fmt.Sprintf("column %q: unit %q differs from reference unit %q", clean, outUnit, spec.Unit))
			}
			cols = append(cols, mess.NumericalColumn(clean, vals))
		}
	}
	if fr.Processed < fr.Rows {
		fr.Warnings = append(fr.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", fr.Processed, fr.Rows))
	}
	tb, err := mess.NewTable(cols...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	fr.Table = tb
	return fr, nil
}

// inferKind decides a column kind by predominant parsed type. Units may
// be upgraded to "%" when values carry a percent sign.
func inferKind(cells []string, unit string, na map[string]struct{}, opt Options) (mess.Kind, string, bool) {
	var numCnt, dtCnt, txtCnt int
	for _, v := range cells {
		if _, missing := na[strings.ToLower(v)]; missing {
			continue
		}
		if strings.Contains(v, "%") && unit == "" {
			unit = "%"
		}
		if _, ok := parseNumeric(v, unit, opt); ok {
			numCnt++
			continue
		}
		if _, ok := parseTimeMaybe(v); ok {
			dtCnt++
			continue
		}
		txtCnt++
	}
	switch {
	case numCnt > 0 && numCnt >= dtCnt && numCnt >= txtCnt:
		return mess.Numerical, unit, false
	case dtCnt > 0 && dtCnt >= txtCnt:
		return mess.Categorical, unit, true
	default:
		return mess.Categorical, unit, false
	}
}

// parseColumn parses numeric cells, normalizing units. Missing and
// unparsable cells become NaN; bad counts the unparsable ones.
func parseColumn(cells []string, unit string, na map[string]struct{}, opt Options) (vals []float64, bad int, outUnit string) {
	vals = make([]float64, len(cells))
	outUnit = unit
	for i, v := range cells {
		if _, missing := na[strings.ToLower(v)]; missing {
			vals[i] = math.NaN()
			continue
		}
		x, ok := parseNumeric(v, unit, opt)
		if !ok {
			vals[i] = math.NaN()
			bad++
			continue
		}
		if opt.UnitNormalize && unit != "" {
			if nx, nu, okc := normalizeUnit(x, unit, opt); okc {
				x = nx
				outUnit = nu
			}
		}
		vals[i] = x
	}
	return vals, bad, outUnit
}

func naSet(tokens []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens)+1)
	out[""] = struct{}{}
	for _, t := range tokens {
		out[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return out
}

func containsFold(list []string, name string) bool {
	for _, s := range list {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return true
		}
	}
	return false
}

func anyPercent(cells []string) bool {
	for _, v := range cells {
		if strings.Contains(v, "%") {
			return true
		}
	}
	return false
}

// normalizeHeader applies NFKC so visually identical headers match by name.
func normalizeHeader(h string) string {
	return strings.TrimSpace(norm.NFKC.String(strings.TrimPrefix(h, "\ufeff")))
}

func sniffDelimiter(path string) rune {
	name := strings.ToLower(path)
	if strings.HasSuffix(name, ".tsv") {
		return '\t'
	}
	// Default to comma; using filename heuristic only to avoid reading twice.
	return ','
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// everyValueDistinct reports whether a categorical column looks like an
// identifier: more than one present value and no repeats.
func everyValueDistinct(vals []string) bool {
	seen := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			return false
		}
		seen[v] = struct{}{}
	}
	return len(seen) > 1
}

func parseNumeric(s string, unit string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	if strings.Contains(raw, "%") {
		raw = strings.ReplaceAll(raw, "%", "")
	}
	// Normalize spaces
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	// Decide decimal separator
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		if cpos >= 0 && dpos >= 0 {
			if cpos > dpos {
				dec = ','
				thou = '.'
			} else {
				dec = '.'
				thou = ','
			}
		} else if cpos >= 0 {
			dec = ','
		} else {
			dec = '.'
		}
	}
	// Remove thousands separators (common: ',', '.', space) if they differ from decimal
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func normalizeUnit(x float64, unit string, opt Options) (float64, string, bool) {
	if opt.UnitTargets == nil {
		return x, unit, false
	}
	target, ok := opt.UnitTargets[unit]
	if !ok {
		return x, unit, false
	}
	switch unit + ">" + target {
	case "g/L>mg/L":
		return x * 1000, target, true
	case "ug/L>mg/L":
		return x / 1000, target, true
	case "°F>°C":
		return (x - 32) * 5.0 / 9.0, target, true
	default:
		return x, unit, false
	}
}

var unitPatterns = []struct {
	re   *regexp.Regexp
	pick int
}{
	{regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`), 2},  // e.g., Alpha (%)
	{regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), 2}, // e.g., Mass [mg/L]
	{regexp.MustCompile(`^(.*?)[_\s-]+(mg/L|g/L|ug/L|°[CF]|mm|%|ppm|ppb)$`), 2},
}

func splitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, p := range unitPatterns {
		if m := p.re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[p.pick])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}
