package parser

import (
	"strings"

	"github.com/KaramelBytes/mess-cli/internal/analysis"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

func (xlsxLoader) Load(path string, opt analysis.Options, schema analysis.Schema) (*analysis.Frame, error) {
	return analysis.ReadXLSX(path, opt, schema)
}
