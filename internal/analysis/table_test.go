package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/mess-cli/internal/mess"
)

var referenceRows = []string{
	"site;bio1 (°F);soil;conc_g/L;sampled",
	"s1;50;loam;0,5;2024-01-02",
	"s2;NA;clay;0,7;2024-01-03",
	"s3;68;loam;;2024-01-04",
}

func writeFile(t *testing.T, name string, lines []string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestReadCSVInfersKindsAndUnits(t *testing.T) {
	path := writeFile(t, "occurrences.csv", referenceRows)
	opt := DefaultOptions()
	opt.Delimiter = ';'
	opt.DecimalSeparator = ','
	opt.Exclude = []string{"Site"}

	fr, err := ReadCSV(path, opt, nil)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if fr.Name != "occurrences.csv" || fr.Rows != 3 || fr.Processed != 3 {
		t.Fatalf("frame = %q rows=%d processed=%d", fr.Name, fr.Rows, fr.Processed)
	}
	if got := strings.Join(fr.Table.Names(), ","); got != "bio1,soil,conc" {
		t.Fatalf("columns = %s", got)
	}

	bio1, _ := fr.Table.Column("bio1")
	if bio1.Kind != mess.Numerical || fr.Units["bio1"] != "°C" {
		t.Fatalf("bio1 kind=%s unit=%q", bio1.Kind, fr.Units["bio1"])
	}
	if !almostEqual(bio1.Num[0], 10, 1e-9) || !math.IsNaN(bio1.Num[1]) || !almostEqual(bio1.Num[2], 20, 1e-9) {
		t.Fatalf("bio1 = %v", bio1.Num)
	}

	conc, _ := fr.Table.Column("conc")
	if fr.Units["conc"] != "mg/L" || !almostEqual(conc.Num[0], 500, 1e-9) || !math.IsNaN(conc.Num[2]) {
		t.Fatalf("conc unit=%q vals=%v", fr.Units["conc"], conc.Num)
	}

	soil, _ := fr.Table.Column("soil")
	if soil.Kind != mess.Categorical || soil.Cat[1] != "clay" {
		t.Fatalf("soil = %#v", soil)
	}

	if len(fr.Passthrough) != 2 || fr.Passthrough[0].Name != "site" || fr.Passthrough[1].Name != "sampled" {
		t.Fatalf("passthrough = %#v", fr.Passthrough)
	}
	if len(fr.Warnings) != 1 || !strings.Contains(fr.Warnings[0], `"sampled" holds dates`) {
		t.Fatalf("warnings = %#v", fr.Warnings)
	}
}

func TestReadCSVAppliesReferenceSchema(t *testing.T) {
	refPath := writeFile(t, "ref.csv", []string{
		"lc,elev",
		"1,100",
		"2,200",
		"2,300",
	})
	opt := DefaultOptions()
	opt.Categorical = []string{"lc"}
	ref, err := ReadCSV(refPath, opt, nil)
	if err != nil {
		t.Fatalf("reference: %v", err)
	}
	schema := ref.Schema()
	if schema[0].Kind != mess.Categorical || schema[1].Kind != mess.Numerical {
		t.Fatalf("schema = %#v", schema)
	}

	// Target columns in a different order, with a bad numeric cell.
	tgtPath := writeFile(t, "grid.tsv", []string{
		"elev\tlc",
		"150\t2",
		"high\t3",
		"-9999\tNA",
	})
	tgt, err := ReadCSV(tgtPath, DefaultOptions(), schema)
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	lc, _ := tgt.Table.Column("lc")
	if lc.Kind != mess.Categorical || lc.Cat[0] != "2" || lc.Cat[2] != "" {
		t.Fatalf("lc = %#v", lc)
	}
	elev, _ := tgt.Table.Column("elev")
	if elev.Num[0] != 150 || !math.IsNaN(elev.Num[1]) || !math.IsNaN(elev.Num[2]) {
		t.Fatalf("elev = %v", elev.Num)
	}
	if len(tgt.Warnings) != 1 || !strings.Contains(tgt.Warnings[0], "1 non-numeric values") {
		t.Fatalf("warnings = %#v", tgt.Warnings)
	}

	r, err := mess.NewReference(ref.Table)
	if err != nil {
		t.Fatalf("NewReference: %v", err)
	}
	res, err := r.Compute(tgt.Table, mess.Options{})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if name, _ := res.MoDName(1); name != "lc" || !math.IsInf(res.Min[1], -1) {
		t.Fatalf("row 1: min=%v mod=%q", res.Min[1], name)
	}
	if !math.IsNaN(res.Min[2]) {
		t.Fatalf("row 2: min=%v, want NaN", res.Min[2])
	}
}

func TestReadCSVEmpty(t *testing.T) {
	path := writeFile(t, "empty.csv", nil)
	if _, err := ReadCSV(path, DefaultOptions(), nil); !errors.Is(err, mess.ErrEmptyTable) {
		t.Fatalf("err = %v, want ErrEmptyTable", err)
	}
}

func TestReadXLSXSheetSelection(t *testing.T) {
	path := writeXLSXFixture(t)
	opt := DefaultOptions()
	opt.DecimalSeparator = ','
	opt.ThousandsSeparator = '.'
	opt.SheetName = "Data"

	byName, err := ReadXLSX(path, opt, nil)
	if err != nil {
		t.Fatalf("ReadXLSX name: %v", err)
	}
	if byName.Rows != 10 || byName.Table.Rows() != 10 {
		t.Fatalf("rows = %d/%d, want 10", byName.Rows, byName.Table.Rows())
	}
	if byName.Name != "analysis_dataset.xlsx (sheet: Data)" {
		t.Fatalf("name = %q", byName.Name)
	}
	want := "Group,Concentration,Temp,Score,LocaleNumber,Category,Note"
	if got := strings.Join(byName.Table.Names(), ","); got != want {
		t.Fatalf("columns = %s", got)
	}
	conc, _ := byName.Table.Column("Concentration")
	if byName.Units["Concentration"] != "mg/L" || !almostEqual(conc.Num[0], 500, 1e-9) {
		t.Fatalf("concentration = %v %q", conc.Num[0], byName.Units["Concentration"])
	}
	temp, _ := byName.Table.Column("Temp")
	if byName.Units["Temp"] != "°C" || !almostEqual(temp.Num[0], (70-32)*5.0/9.0, 1e-9) {
		t.Fatalf("temp = %v %q", temp.Num[0], byName.Units["Temp"])
	}
	locale, _ := byName.Table.Column("LocaleNumber")
	if !almostEqual(locale.Num[0], 1000, 1e-9) {
		t.Fatalf("locale = %v", locale.Num[0])
	}
	cat, _ := byName.Table.Column("Category")
	if cat.Kind != mess.Categorical || cat.Cat[0] != "alpha" {
		t.Fatalf("category = %#v", cat)
	}

	opt.SheetName = ""
	opt.SheetIndex = 2
	opt.MaxRows = 9
	byIndex, err := ReadXLSX(path, opt, nil)
	if err != nil {
		t.Fatalf("ReadXLSX index: %v", err)
	}
	if byIndex.Rows != 10 || byIndex.Processed != 9 || byIndex.Table.Rows() != 9 {
		t.Fatalf("rows=%d processed=%d", byIndex.Rows, byIndex.Processed)
	}
	warnings := strings.Join(byIndex.Warnings, "\n")
	if len(byIndex.Warnings) != 2 ||
		!strings.Contains(warnings, "processed only 9/10 rows due to MaxRows") ||
		!strings.Contains(warnings, `column "Note" has a distinct value in every row`) {
		t.Fatalf("warnings = %#v", byIndex.Warnings)
	}

	opt.SheetName = "Missing"
	if _, err := ReadXLSX(path, opt, nil); !errors.Is(err, ErrSheetNotFound) {
		t.Fatalf("err = %v, want ErrSheetNotFound", err)
	}

	opt.SheetName = ""
	opt.SheetIndex = 5
	if _, err := ReadXLSX(path, opt, nil); !errors.Is(err, ErrSheetNotFound) {
		t.Fatalf("index 5: err = %v, want ErrSheetNotFound", err)
	}
}

func TestReadCSVRejectsNonFiniteText(t *testing.T) {
	path := writeFile(t, "inf.csv", []string{
		"T,C",
		"1,a",
		"Inf,b",
		"3,a",
		"-Infinity,b",
	})
	fr, err := ReadCSV(path, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	col, _ := fr.Table.Column("T")
	if col.Kind != mess.Numerical {
		t.Fatalf("kind = %s, want numerical", col.Kind)
	}
	if col.Num[0] != 1 || !math.IsNaN(col.Num[1]) || col.Num[2] != 3 || !math.IsNaN(col.Num[3]) {
		t.Fatalf("T = %v", col.Num)
	}
	if len(fr.Warnings) != 1 || fr.Warnings[0] != `column "T": 2 non-numeric values treated as missing` {
		t.Fatalf("warnings = %#v", fr.Warnings)
	}
}

func TestReadCSVWarnsOnIdentifierColumn(t *testing.T) {
	path := writeFile(t, "ids.csv", []string{
		"id,elev,soil",
		"r1,100,loam",
		"r2,200,clay",
		"r3,300,loam",
	})
	fr, err := ReadCSV(path, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(fr.Warnings) != 1 || fr.Warnings[0] != `column "id" has a distinct value in every row; consider --exclude` {
		t.Fatalf("warnings = %#v", fr.Warnings)
	}

	// The same column read against a schema is not flagged.
	tgt, err := ReadCSV(path, DefaultOptions(), fr.Schema())
	if err != nil {
		t.Fatalf("ReadCSV target: %v", err)
	}
	if len(tgt.Warnings) != 0 {
		t.Fatalf("target warnings = %#v", tgt.Warnings)
	}
}

// Relationship targets may carry a leading slash or omit the xl/ prefix.
func TestNormalizeRelPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"styles.xml", "xl/styles.xml"},
	}
	for _, tt := range tests {
		if got := normalizeRelPath(tt.input); got != tt.expected {
			t.Errorf("normalizeRelPath(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestColIndexFromRef(t *testing.T) {
	cases := map[string]int{"A1": 0, "C12": 2, "Z3": 25, "AA10": 26, "ab2": 27, "": -1}
	for ref, want := range cases {
		if got := colIndexFromRef(ref); got != want {
			t.Errorf("colIndexFromRef(%q) = %d, want %d", ref, got, want)
		}
	}
}

func sampleResult(t *testing.T) *mess.Result {
	t.Helper()
	ref, err := mess.NewTable(
		mess.NumericalColumn("T", []float64{10, 20, 30}),
		mess.CategoricalColumn("C", []string{"A", "A", "B"}),
	)
	if err != nil {
		t.Fatalf("reference: %v", err)
	}
	tgt, err := mess.NewTable(
		mess.NumericalColumn("T", []float64{5, math.NaN()}),
		mess.CategoricalColumn("C", []string{"Z", ""}),
	)
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	res, err := mess.Compute(ref, tgt, mess.Options{Full: true})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	return res
}

func TestWriteCSV(t *testing.T) {
	res := sampleResult(t)
	var buf bytes.Buffer
	pass := []RawColumn{{Name: "id", Values: []string{"p1", "p2"}}}
	if err := WriteCSV(&buf, res, pass); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "id,sim_T,sim_C,mess,mod,mos\n" +
		"p1,-25,-Inf,-Inf,C,T\n" +
		"p2,NA,NA,NA,NA,NA\n"
	if buf.String() != want {
		t.Fatalf("csv =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteJSON(t *testing.T) {
	res := sampleResult(t)
	var buf bytes.Buffer
	if err := WriteJSON(&buf, res, nil); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var doc struct {
		Variables []string `json:"variables"`
		Kinds     []string `json:"kinds"`
		Rows      []struct {
			Similarity map[string]any `json:"similarity"`
			MESS       any            `json:"mess"`
			MoD        *string        `json:"mod"`
			MoS        *string        `json:"mos"`
		} `json:"rows"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v\n%s", err, buf.String())
	}
	if len(doc.Rows) != 2 || doc.Kinds[0] != "numerical" || doc.Kinds[1] != "categorical" {
		t.Fatalf("doc = %+v", doc)
	}
	r0 := doc.Rows[0]
	if r0.MESS != "-Inf" || r0.MoD == nil || *r0.MoD != "C" || r0.Similarity["T"] != -25.0 {
		t.Fatalf("row 0 = %+v", r0)
	}
	r1 := doc.Rows[1]
	if r1.MESS != nil || r1.MoD != nil || r1.MoS != nil || r1.Similarity["T"] != nil {
		t.Fatalf("row 1 = %+v", r1)
	}
}

func TestReportMarkdown(t *testing.T) {
	refPath := writeFile(t, "ref.csv", []string{
		"bio1,soil",
		"10,a",
		"20,a",
		",b",
		"30,b",
	})
	tgtPath := writeFile(t, "grid.csv", []string{
		"bio1,soil",
		"5,a",
		"15,c",
		"25,b",
	})
	ref, err := ReadCSV(refPath, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("reference: %v", err)
	}
	tgt, err := ReadCSV(tgtPath, DefaultOptions(), ref.Schema())
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	model, err := mess.NewReference(ref.Table)
	if err != nil {
		t.Fatalf("NewReference: %v", err)
	}
	res, err := model.Compute(tgt.Table, mess.Options{})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	md := NewReport(model, ref, tgt, res).Markdown()
	for _, want := range []string{
		"[MESS SUMMARY]",
		"Reference: ref.csv (3 rows)",
		"Target: grid.csv (3 rows)",
		"Defined: 3, extrapolated (MESS < 0): 2 (66.7%)",
		"Unseen categories: 1 rows",
		"- bio1: numerical — range 10..30",
		"- soil: categorical — 2 levels",
		"[MOST DISSIMILAR]",
		"[MOST SIMILAR]",
		"dropped 1 reference rows with missing values",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}
