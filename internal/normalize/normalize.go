// Package normalize turns raw pasted or uploaded text into ordered serial records.
package normalize

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"dmlabels/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Source picks the text to normalize. Uploaded file content wins over the
// pasted field whenever a file was supplied, matching the upload form.
func Source(file []byte, hasFile bool, pasted string) (string, error) {
	if !hasFile {
		return pasted, nil
	}
	file = bytes.TrimPrefix(file, utf8BOM)
	if !utf8.Valid(file) {
		return "", domain.ErrInvalidEncoding
	}
	return string(file), nil
}

// Normalize splits raw into serial records and resolves the size selector.
// Lines may end in "\n", "\r\n" or a lone "\r". Surrounding whitespace is
// trimmed, empty lines are dropped, order is kept and duplicates are kept.
func Normalize(raw, size string) ([]domain.SerialRecord, domain.SizeClass, error) {
	records := Lines(raw)
	if len(records) == 0 {
		return nil, "", domain.ErrEmptyInput
	}
	sc, err := domain.ParseSizeClass(size)
	if err != nil {
		return nil, "", err
	}
	return records, sc, nil
}

// Lines returns the non-empty trimmed lines of raw as records.
func Lines(raw string) []domain.SerialRecord {
	var out []domain.SerialRecord
	lineNo := 0
	for len(raw) > 0 {
		lineNo++
		i := strings.IndexAny(raw, "\r\n")
		var line string
		if i < 0 {
			line, raw = raw, ""
		} else {
			line = raw[:i]
			if raw[i] == '\r' && i+1 < len(raw) && raw[i+1] == '\n' {
				raw = raw[i+2:]
			} else {
				raw = raw[i+1:]
			}
		}
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, domain.SerialRecord{Text: line, Index: len(out), SourceLine: lineNo})
		}
	}
	return out
}
