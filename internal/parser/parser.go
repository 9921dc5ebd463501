package parser

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/mess-cli/internal/analysis"
)

// Loader reads one tabular format into a typed frame.
type Loader interface {
	CanLoad(filename string) bool
	Load(path string, opt analysis.Options, schema analysis.Schema) (*analysis.Frame, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// Load selects a loader based on filename and reads the file. A nil schema
// infers column kinds; a reference schema fixes them.
func Load(path string, opt analysis.Options, schema analysis.Schema) (*analysis.Frame, error) {
	for _, l := range registry {
		if l.CanLoad(path) {
			return l.Load(path, opt, schema)
		}
	}
	return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
}

// Supported reports whether some registered loader accepts the filename.
func Supported(path string) bool {
	for _, l := range registry {
		if l.CanLoad(path) {
			return true
		}
	}
	return false
}

func init() {
	// Register default loaders
	Register(csvLoader{})
	Register(xlsxLoader{})
}

// ErrUnsupported indicates a format is not supported yet.
var ErrUnsupported = errors.New("unsupported table format")
