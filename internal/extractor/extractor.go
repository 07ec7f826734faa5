// Package extractor converts raw document bytes into normalized plain text.
// It is a pure transform: no temp files, no subprocesses, no network.
package extractor

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"rascaffold/internal/reading"
)

// Format tags the source file type. The upload layer has already classified
// the file; the extractor trusts the tag and fails on mismatched content.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatTXT  Format = "txt"

	// Reference-only formats: accepted for knowledge-base files, not for
	// the primary document.
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// Cause distinguishes why extraction failed.
type Cause string

const (
	CauseCorrupt     Cause = "corrupt"     // bytes did not parse as the declared format
	CauseUnsupported Cause = "unsupported" // format tag not recognized
	CauseEmpty       Cause = "empty"       // parse succeeded but produced no text
)

// Error is the extraction failure surfaced to the pipeline. It is
// deterministic and never retried.
type Error struct {
	Format Format
	Cause  Cause
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s (%s): %v", e.Format, e.Cause, e.Err)
	}
	return fmt.Sprintf("extract %s: %s", e.Format, e.Cause)
}

func (e *Error) Unwrap() error { return e.Err }

// Extract converts raw bytes of the given format into a Document.
// Empty or whitespace-only output is an extraction failure, not a pass.
func Extract(data []byte, format Format, name string) (reading.Document, error) {
	var (
		text string
		err  error
	)
	switch format {
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	case FormatTXT:
		text, err = extractText(data)
	case FormatMarkdown:
		text, err = extractMarkdown(data)
	case FormatHTML:
		text, err = extractHTML(data)
	default:
		return reading.Document{}, &Error{Format: format, Cause: CauseUnsupported}
	}
	if err != nil {
		return reading.Document{}, &Error{Format: format, Cause: CauseCorrupt, Err: err}
	}

	text = Normalize(text)
	if text == "" {
		return reading.Document{}, &Error{Format: format, Cause: CauseEmpty}
	}

	return reading.Document{
		Text:   text,
		Format: string(format),
		Bytes:  len(data),
		Name:   name,
	}, nil
}

// FormatForFile maps a filename extension to a Format. Used for reference
// files, where no upstream classification exists.
func FormatForFile(filename string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF, true
	case ".docx":
		return FormatDOCX, true
	case ".txt":
		return FormatTXT, true
	case ".md", ".markdown":
		return FormatMarkdown, true
	case ".html", ".htm":
		return FormatHTML, true
	}
	return "", false
}

var excessBlankLines = regexp.MustCompile(`\n{3,}`)

// Normalize standardizes line endings and whitespace so downstream offsets
// are stable across source formats.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\f", "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text = strings.Join(lines, "\n")
	text = excessBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
