package presentation

import (
	"encoding/json"
	"io"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatClasses formats a list of classes as JSON
func (f *Formatter) FormatClasses(classes []ClassDTO) error {
	return f.encode(classes)
}

// FormatRecords formats a list of ledger records as JSON
func (f *Formatter) FormatRecords(records []RecordDTO) error {
	return f.encode(records)
}

// FormatResult formats any operation result as JSON
func (f *Formatter) FormatResult(result any) error {
	return f.encode(result)
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
