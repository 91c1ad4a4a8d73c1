package domain

import (
	"path/filepath"
	"strings"
)

// fileExtensions maps file extensions to source formats.
var fileExtensions = map[string]SourceFormat{
	".csv":      FormatCSV,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".pdf":      FormatPDF,
	".docx":     FormatWord,
	".doc":      FormatWord,
	".pptx":     FormatPowerPoint,
	".ppt":      FormatPowerPoint,
}

// DetectFormat detects the source format of a file from its extension.
// Returns FormatUnknown for unrecognised extensions.
func DetectFormat(path string) SourceFormat {
	ext := strings.ToLower(filepath.Ext(path))
	if format, ok := fileExtensions[ext]; ok {
		return format
	}
	return FormatUnknown
}

// ParseFormat parses a user-supplied format name as accepted by the CLI.
// "auto" returns FormatUnknown, meaning the format should be detected
// from the file extension.
func ParseFormat(s string) (SourceFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatUnknown, nil
	case "pdf":
		return FormatPDF, nil
	case "word":
		return FormatWord, nil
	case "powerpoint":
		return FormatPowerPoint, nil
	case "markdown":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	default:
		return FormatUnknown, ErrUnsupportedFormat
	}
}

// TitleFromPath derives a display title from a file path: the file name
// stem with underscores and dashes replaced by spaces.
func TitleFromPath(path string) string {
	name := filepath.Base(path)
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}
