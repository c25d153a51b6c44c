package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
)

const testScriptSource = `import { helper } from './helper';

// Lines shown on the venue screen.
export const scriptLines = {
  title: "Venues",
  steps: ['Pick a date', "Confirm"],
};

export const scriptLines_Errors = {
  notFound: 'Venue not found',
};

const local = { hidden: "not exported" };
`

const testTypeScriptSource = `export const scriptLines: Record<string, string> = {
  greeting: 'Hello',
};
`

const testTSXSource = `export const scriptLines = { label: 'Open' };
export function Button(): JSX.Element {
  return <button>{scriptLines.label}</button>;
}
`

func TestNewParser(t *testing.T) {
	for _, lang := range []Language{JavaScript, TypeScript, TSX} {
		t.Run("creates "+string(lang)+" parser", func(t *testing.T) {
			p, err := NewParser(lang)
			if err != nil {
				t.Fatalf("NewParser(%s) failed: %v", lang, err)
			}
			defer p.Close()

			if p.Language() != lang {
				t.Errorf("expected language %s, got %s", lang, p.Language())
			}
		})
	}

	t.Run("rejects unsupported language", func(t *testing.T) {
		_, err := NewParser(Language("fortran"))
		if err == nil {
			t.Fatal("expected error for unsupported language")
		}

		if _, ok := err.(*UnsupportedLanguageError); !ok {
			t.Errorf("expected UnsupportedLanguageError, got %T", err)
		}
	})
}

func TestNewParserForFile(t *testing.T) {
	tests := []struct {
		path    string
		want    Language
		wantErr bool
	}{
		{"src/features/a/script_lines.js", JavaScript, false},
		{"src/features/a/script_lines.TS", TypeScript, false},
		{"src/App.tsx", TSX, false},
		{"README.md", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p, err := NewParserForFile(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewParserForFile failed: %v", err)
			}
			defer p.Close()
			if p.Language() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, p.Language())
			}
		})
	}
}

func TestParser_Parse(t *testing.T) {
	p, err := NewParser(JavaScript)
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	defer p.Close()

	t.Run("parses valid source", func(t *testing.T) {
		result, err := p.Parse([]byte(testScriptSource))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		defer result.Close()

		if result.Root == nil {
			t.Fatal("expected non-nil root node")
		}

		if result.Root.Type() != "program" {
			t.Errorf("expected root type 'program', got %q", result.Root.Type())
		}

		if result.Language != JavaScript {
			t.Errorf("expected language %s, got %s", JavaScript, result.Language)
		}
	})

	t.Run("preserves source", func(t *testing.T) {
		source := []byte(testScriptSource)
		result, err := p.Parse(source)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		defer result.Close()

		if string(result.Source) != string(source) {
			t.Error("source was not preserved")
		}
	})
}

func TestParser_ParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script_lines.js")
	if err := os.WriteFile(path, []byte(testScriptSource), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := NewParser(JavaScript)
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	defer p.Close()

	result, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	defer result.Close()

	if result.FilePath != path {
		t.Errorf("expected FilePath %q, got %q", path, result.FilePath)
	}

	_, err = p.ParseFile(filepath.Join(dir, "missing.js"))
	var fre *FileReadError
	if !errors.As(err, &fre) {
		t.Fatalf("expected FileReadError, got %T", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("expected FileReadError to unwrap to os.ErrNotExist")
	}
}

func TestParseResult_FindNodesByType(t *testing.T) {
	p, err := NewParser(JavaScript)
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	defer p.Close()

	result, err := p.Parse([]byte(testScriptSource))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	defer result.Close()

	t.Run("finds export statements", func(t *testing.T) {
		exports := result.FindNodesByType("export_statement")
		if len(exports) != 2 {
			t.Errorf("expected 2 export_statement nodes, got %d", len(exports))
		}
	})

	t.Run("finds string literals", func(t *testing.T) {
		strs := result.FindNodesByType("string")
		// './helper', 4 exported values and 1 local value
		if len(strs) != 6 {
			t.Errorf("expected 6 string nodes, got %d", len(strs))
		}
	})
}

func TestParseResult_WalkNodes(t *testing.T) {
	p, err := NewParser(JavaScript)
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	defer p.Close()

	result, err := p.Parse([]byte(testScriptSource))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	defer result.Close()

	t.Run("visits all nodes", func(t *testing.T) {
		count := 0
		result.WalkNodes(func(node *sitter.Node) bool {
			count++
			return true
		})

		if count == 0 {
			t.Error("expected to visit some nodes")
		}
	})

	t.Run("stops on false return", func(t *testing.T) {
		count := 0
		limit := 5
		result.WalkNodes(func(node *sitter.Node) bool {
			count++
			return count < limit
		})

		if count != limit {
			t.Errorf("expected to visit %d nodes, visited %d", limit, count)
		}
	})
}

func TestParseResult_Leaves(t *testing.T) {
	p, err := NewParser(JavaScript)
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	defer p.Close()

	src := "const a = f('x'); // note\n"
	result, err := p.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	defer result.Close()

	var texts []string
	for _, leaf := range result.Leaves() {
		texts = append(texts, result.NodeText(leaf))
	}
	got := strings.Join(texts, " ")
	want := "const a = f ( ' x ' ) ; // note"
	if got != want {
		t.Errorf("expected leaves %q, got %q", want, got)
	}

	last := result.Leaves()[len(result.Leaves())-1]
	if last.Type() != "comment" {
		t.Errorf("expected trailing comment leaf, got %q", last.Type())
	}
}

func TestParseResult_NodeText(t *testing.T) {
	p, err := NewParser(JavaScript)
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	defer p.Close()

	result, err := p.Parse([]byte(testScriptSource))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	defer result.Close()

	imports := result.FindNodesByType("import_statement")
	if len(imports) == 0 {
		t.Fatal("no import statement found")
	}

	text := result.NodeText(imports[0])
	if !strings.Contains(text, "./helper") {
		t.Errorf("expected import text to contain './helper', got %q", text)
	}
}

func TestParseResult_Err(t *testing.T) {
	p, err := NewParser(JavaScript)
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	defer p.Close()

	t.Run("valid source has no errors", func(t *testing.T) {
		result, err := p.Parse([]byte(testScriptSource))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		defer result.Close()

		if result.HasErrors() {
			t.Error("expected no parse errors for valid source")
		}
		if result.Err() != nil {
			t.Errorf("expected nil Err, got %v", result.Err())
		}
	})

	t.Run("invalid source reports location", func(t *testing.T) {
		invalidSource := "export const scriptLines = {\n  title: 'a',\n  ]]\n};\n"
		result, err := p.Parse([]byte(invalidSource))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		defer result.Close()

		if !result.HasErrors() {
			t.Fatal("expected parse errors for invalid source")
		}
		var pe *ParseError
		if !errors.As(result.Err(), &pe) {
			t.Fatalf("expected ParseError, got %T", result.Err())
		}
		if pe.Line == 0 {
			t.Error("expected a 1-based line number")
		}
	})
}

func TestExportedDeclarations(t *testing.T) {
	sources := map[Language]string{
		JavaScript: testScriptSource,
		TypeScript: testTypeScriptSource,
		TSX:        testTSXSource,
	}
	wantNames := map[Language][]string{
		JavaScript: {"scriptLines", "scriptLines_Errors"},
		TypeScript: {"scriptLines"},
		TSX:        {"scriptLines"},
	}

	for lang, src := range sources {
		t.Run(string(lang), func(t *testing.T) {
			p, err := NewParser(lang)
			if err != nil {
				t.Fatalf("NewParser failed: %v", err)
			}
			defer p.Close()

			result, err := p.Parse([]byte(src))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			defer result.Close()

			var names []string
			for _, d := range ExportedDeclarations(result.Root) {
				names = append(names, result.NodeText(d.ChildByFieldName("name")))
			}
			if strings.Join(names, ",") != strings.Join(wantNames[lang], ",") {
				t.Errorf("expected %v, got %v", wantNames[lang], names)
			}
		})
	}

	if ExportedDeclarations(nil) != nil {
		t.Error("expected nil for nil root")
	}
}

func TestLanguageFromExtension(t *testing.T) {
	for _, ext := range SupportedExtensions() {
		if LanguageFromExtension(ext) == "" {
			t.Errorf("supported extension %s has no language", ext)
		}
	}
	if LanguageFromExtension(".go") != "" {
		t.Error("expected .go to be unsupported")
	}
}

func TestParseError(t *testing.T) {
	t.Run("formats with file", func(t *testing.T) {
		err := &ParseError{
			Message: "syntax error",
			File:    "script_lines.js",
			Line:    10,
			Column:  5,
		}
		expected := "script_lines.js:10:5: syntax error"
		if got := err.Error(); got != expected {
			t.Errorf("expected %q, got %q", expected, got)
		}
	})

	t.Run("formats without file", func(t *testing.T) {
		err := &ParseError{
			Message: "syntax error",
			Line:    10,
			Column:  5,
		}
		expected := "10:5: syntax error"
		if got := err.Error(); got != expected {
			t.Errorf("expected %q, got %q", expected, got)
		}
	})
}

func TestUnsupportedLanguageError(t *testing.T) {
	err := &UnsupportedLanguageError{Language: "fortran"}
	expected := "unsupported language: fortran"
	if got := err.Error(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}

	_, err2 := NewParserForFile("features/home/script_lines.py")
	var ule *UnsupportedLanguageError
	if !errors.As(err2, &ule) {
		t.Fatalf("expected UnsupportedLanguageError, got %T", err2)
	}
	if ule.File != "features/home/script_lines.py" || ule.Language != ".py" {
		t.Errorf("unexpected error fields: %+v", ule)
	}
	if got := ule.Error(); !strings.HasPrefix(got, `features/home/script_lines.py: unsupported extension ".py"`) {
		t.Errorf("unexpected message %q", got)
	}
}

func TestFileReadError(t *testing.T) {
	err := &FileReadError{Path: "features/home/script_lines.js", Err: os.ErrNotExist}
	expected := "read string module features/home/script_lines.js: file does not exist"
	if got := err.Error(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}
