package analysis

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/KaramelBytes/mess-cli/internal/mess"
)

// MissingToken is written for missing cells in CSV output.
const MissingToken = "NA"

// WriteCSV writes one line per target row: any passthrough columns, the
// per-variable similarities (when the result kept them), then mess, mod
// and mos. Row order matches the target, so gridded callers can write the
// values back in linear cell order.
func WriteCSV(w io.Writer, res *mess.Result, passthrough []RawColumn) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(passthrough)+len(res.Similarity)+3)
	for _, p := range passthrough {
		header = append(header, p.Name)
	}
	for j := range res.Similarity {
		header = append(header, "sim_"+res.Variables[j])
	}
	header = append(header, "mess", "mod", "mos")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(header))
	for i := 0; i < res.Len(); i++ {
		k := 0
		for _, p := range passthrough {
			rec[k] = valueAt(p.Values, i)
			k++
		}
		for j := range res.Similarity {
			rec[k] = formatFloat(res.Similarity[j][i])
			k++
		}
		rec[k] = formatFloat(res.Min[i])
		rec[k+1] = labelOr(res.MoDName(i))
		rec[k+2] = labelOr(res.MoSName(i))
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// jsonFloat encodes NaN as null and infinities as strings.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte("null"), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	case math.IsInf(v, 1):
		return []byte(`"Inf"`), nil
	}
	return []byte(strconv.FormatFloat(v, 'g', -1, 64)), nil
}

type jsonRow struct {
	Extra      map[string]string    `json:"extra,omitempty"`
	Similarity map[string]jsonFloat `json:"similarity,omitempty"`
	MESS       jsonFloat            `json:"mess"`
	MoD        *string              `json:"mod"`
	MoS        *string              `json:"mos"`
}

type jsonResult struct {
	Variables []string  `json:"variables"`
	Kinds     []string  `json:"kinds"`
	Rows      []jsonRow `json:"rows"`
}

// WriteJSON writes the result as a single JSON document; missing values
// are null.
func WriteJSON(w io.Writer, res *mess.Result, passthrough []RawColumn) error {
	out := jsonResult{Variables: res.Variables, Rows: make([]jsonRow, res.Len())}
	for _, k := range res.Kinds {
		out.Kinds = append(out.Kinds, k.String())
	}
	for i := range out.Rows {
		row := jsonRow{MESS: jsonFloat(res.Min[i])}
		if len(passthrough) > 0 {
			row.Extra = make(map[string]string, len(passthrough))
			for _, p := range passthrough {
				row.Extra[p.Name] = valueAt(p.Values, i)
			}
		}
		if res.Similarity != nil {
			row.Similarity = make(map[string]jsonFloat, len(res.Variables))
			for j, name := range res.Variables {
				row.Similarity[name] = jsonFloat(res.Similarity[j][i])
			}
		}
		if name, ok := res.MoDName(i); ok {
			row.MoD = &name
		}
		if name, ok := res.MoSName(i); ok {
			row.MoS = &name
		}
		out.Rows[i] = row
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return MissingToken
	case math.IsInf(v, -1):
		return "-Inf"
	case math.IsInf(v, 1):
		return "Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func labelOr(name string, ok bool) string {
	if !ok {
		return MissingToken
	}
	return name
}

func valueAt(vals []string, i int) string {
	if i < len(vals) {
		return vals[i]
	}
	return ""
}
