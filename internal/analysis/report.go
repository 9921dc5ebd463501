package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/mess-cli/internal/mess"
)

// Report is a markdown-friendly summary of one MESS run.
type Report struct {
	Reference  string
	Target     string
	RefRows    int
	RefDropped int
	Variables  []VariableInfo
	Summary    mess.Summary
	Warnings   []string
}

// VariableInfo describes one reference variable.
type VariableInfo struct {
	Name     string
	Kind     mess.Kind
	Unit     string
	Min, Max float64 // numerical only
	Levels   int     // categorical only
}

// NewReport assembles a run report from the reference model, the frames
// it was read from and the result.
func NewReport(ref *mess.Reference, refFrame, target *Frame, res *mess.Result) *Report {
	rep := &Report{
		Reference:  refFrame.Name,
		Target:     target.Name,
		RefRows:    ref.SampleSize(),
		RefDropped: ref.Dropped(),
		Summary:    res.Summary(),
	}
	kinds := ref.Kinds()
	for j, name := range ref.Variables() {
		v := VariableInfo{Name: name, Kind: kinds[j], Unit: refFrame.Units[name]}
		if lo, hi, ok := ref.Range(name); ok {
			v.Min, v.Max = lo, hi
		}
		if n, ok := ref.Levels(name); ok {
			v.Levels = n
		}
		rep.Variables = append(rep.Variables, v)
	}
	for _, w := range refFrame.Warnings {
		rep.Warnings = append(rep.Warnings, "reference: "+w)
	}
	for _, w := range target.Warnings {
		rep.Warnings = append(rep.Warnings, "target: "+w)
	}
	if rep.RefDropped > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("dropped %d reference rows with missing values", rep.RefDropped))
	}
	return rep
}

// Markdown renders a compact report suitable for standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	s := r.Summary
	b.WriteString("[MESS SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Reference: %s (%d rows)\n", r.Reference, r.RefRows))
	b.WriteString(fmt.Sprintf("Target: %s (%d rows)\n", r.Target, s.Rows))
	b.WriteString(fmt.Sprintf("Defined: %d, extrapolated (MESS < 0): %d", s.Defined, s.Extrapolated))
	if s.Defined > 0 {
		b.WriteString(fmt.Sprintf(" (%.1f%%)", float64(s.Extrapolated)*100.0/float64(s.Defined)))
	}
	b.WriteString("\n")
	if s.Unseen > 0 {
		b.WriteString(fmt.Sprintf("Unseen categories: %d rows\n", s.Unseen))
	}
	if s.Defined > 0 {
		b.WriteString(fmt.Sprintf("MESS: min %s, max %s, mean %s\n", fmtStat(s.Min), fmtStat(s.Max), fmtStat(s.Mean)))
	}

	b.WriteString("\n[VARIABLES]\n")
	for _, v := range r.Variables {
		name := v.Name
		if v.Unit != "" {
			name = fmt.Sprintf("%s [%s]", name, v.Unit)
		}
		b.WriteString(fmt.Sprintf("- %s: %s", safeVal(name), v.Kind))
		switch v.Kind {
		case mess.Numerical:
			b.WriteString(fmt.Sprintf(" — range %.4g..%.4g", v.Min, v.Max))
		case mess.Categorical:
			b.WriteString(fmt.Sprintf(" — %d levels", v.Levels))
		}
		b.WriteString("\n")
	}

	writeCounts(&b, "[MOST DISSIMILAR]", s, func(c mess.VariableCount) int { return c.MoD })
	writeCounts(&b, "[MOST SIMILAR]", s, func(c mess.VariableCount) int { return c.MoS })

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeCounts(b *strings.Builder, title string, s mess.Summary, count func(mess.VariableCount) int) {
	if s.Defined == 0 {
		return
	}
	b.WriteString("\n" + title + "\n")
	for _, v := range s.Variables {
		n := count(v)
		if n == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("- %s: %d (%.1f%%)\n", safeVal(v.Name), n, float64(n)*100.0/float64(s.Defined)))
	}
}

func fmtStat(v float64) string {
	if math.IsInf(v, -1) {
		return "-Inf"
	}
	if math.IsNaN(v) {
		return MissingToken
	}
	return fmt.Sprintf("%.4g", v)
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
