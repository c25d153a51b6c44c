package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Formatter is the interface for encoding reports in a structured format.
type Formatter interface {
	// Format formats v according to the specified density level.
	Format(v interface{}, density Density) (string, error)

	// FormatToWriter writes formatted output directly to a writer.
	FormatToWriter(w io.Writer, v interface{}, density Density) error
}

// Densifier is implemented by reports that trim themselves per density.
type Densifier interface {
	Densify(d Density) interface{}
}

// YAMLFormatter formats reports as YAML output.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format formats v as YAML.
func (f *YAMLFormatter) Format(v interface{}, density Density) (string, error) {
	var buf bytes.Buffer
	if err := f.FormatToWriter(&buf, v, density); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatToWriter writes YAML output to a writer.
func (f *YAMLFormatter) FormatToWriter(w io.Writer, v interface{}, density Density) error {
	filtered := applyDensityFilter(v, density)

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	return encoder.Encode(filtered)
}

// JSONFormatter formats reports as JSON output.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format formats v as JSON.
func (f *JSONFormatter) Format(v interface{}, density Density) (string, error) {
	var buf bytes.Buffer
	if err := f.FormatToWriter(&buf, v, density); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatToWriter writes JSON output to a writer.
func (f *JSONFormatter) FormatToWriter(w io.Writer, v interface{}, density Density) error {
	filtered := applyDensityFilter(v, density)

	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	return encoder.Encode(filtered)
}

// applyDensityFilter lets a Densifier trim itself; other values pass through.
func applyDensityFilter(v interface{}, density Density) interface{} {
	if d, ok := v.(Densifier); ok {
		return d.Densify(density)
	}
	return v
}

// GetFormatter returns the formatter for a structured format.
func GetFormatter(format Format) (Formatter, error) {
	switch format {
	case FormatYAML:
		return NewYAMLFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatText:
		return nil, fmt.Errorf("text output is rendered by each command")
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
