package output

import (
	"strings"
	"testing"
)

// TestGetFormatterYAML tests that GetFormatter returns a YAML formatter
func TestGetFormatterYAML(t *testing.T) {
	formatter, err := GetFormatter(FormatYAML)
	if err != nil {
		t.Fatalf("GetFormatter(FormatYAML) failed: %v", err)
	}

	_, ok := formatter.(*YAMLFormatter)
	if !ok {
		t.Errorf("expected *YAMLFormatter, got %T", formatter)
	}
}

// TestGetFormatterJSON tests that GetFormatter returns a JSON formatter
func TestGetFormatterJSON(t *testing.T) {
	formatter, err := GetFormatter(FormatJSON)
	if err != nil {
		t.Fatalf("GetFormatter(FormatJSON) failed: %v", err)
	}

	_, ok := formatter.(*JSONFormatter)
	if !ok {
		t.Errorf("expected *JSONFormatter, got %T", formatter)
	}
}

// TestGetFormatterInvalid tests that text and unknown formats have no formatter
func TestGetFormatterInvalid(t *testing.T) {
	for _, f := range []Format{FormatText, Format("invalid")} {
		if _, err := GetFormatter(f); err == nil {
			t.Errorf("GetFormatter(%q) should return an error", f)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"YAML", FormatYAML, false},
		{" json ", FormatJSON, false},
		{"cgf", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseDensity(t *testing.T) {
	tests := []struct {
		input   string
		want    Density
		wantErr bool
	}{
		{"sparse", DensitySparse, false},
		{"", DensityMedium, false},
		{"DENSE", DensityDense, false},
		{"smart", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDensity(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDensity(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDensity(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDensityIncludes(t *testing.T) {
	if DensitySparse.IncludesDetails() {
		t.Error("sparse should not include details")
	}
	if !DensityMedium.IncludesDetails() || DensityMedium.IncludesUnchanged() {
		t.Error("medium should include details but not unchanged items")
	}
	if !DensityDense.IncludesUnchanged() {
		t.Error("dense should include unchanged items")
	}
}

func TestValidate(t *testing.T) {
	if !ValidateFormat(FormatJSON) || ValidateFormat(Format("xml")) {
		t.Error("ValidateFormat mismatch")
	}
	if !ValidateDensity(DensityDense) || ValidateDensity(Density("smart")) {
		t.Error("ValidateDensity mismatch")
	}
	if DefaultFormat != FormatText || DefaultDensity != DensityMedium {
		t.Errorf("defaults = %s/%s", DefaultFormat, DefaultDensity)
	}
}

type counted struct {
	Items []string `json:"items" yaml:"items"`
}

func (c counted) Densify(d Density) interface{} {
	if !d.IncludesDetails() {
		return map[string]int{"count": len(c.Items)}
	}
	return c
}

func TestFormatterAppliesDensity(t *testing.T) {
	v := counted{Items: []string{"a", "<b>"}}

	got, err := NewJSONFormatter().Format(v, DensitySparse)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(got) != "{\n  \"count\": 2\n}" {
		t.Errorf("sparse JSON = %q", got)
	}

	got, err = NewJSONFormatter().Format(v, DensityMedium)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, `"<b>"`) {
		t.Errorf("JSON should not escape HTML: %q", got)
	}

	got, err = NewYAMLFormatter().Format(v, DensityDense)
	if err != nil {
		t.Fatal(err)
	}
	if got != "items:\n  - a\n  - <b>\n" {
		t.Errorf("YAML = %q", got)
	}
}
