package exportfmt

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is one of the three recognized text export/import formats.
type Format string

const (
	FormatTxt  Format = "txt"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name from config or a --format flag.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTxt, FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("exportfmt: unsupported format %q (want txt, csv, or json)", s)
	}
}

// DetectFormat infers a Format from a file's extension, the same
// auto-detection rule accountsource.ParseFile uses for account files.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return FormatTxt, nil
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("exportfmt: unsupported file extension %q (want .txt, .csv, or .json)", filepath.Ext(path))
	}
}
