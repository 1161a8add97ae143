package feed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSources(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSourcesDefault(t *testing.T) {
	sources, err := LoadSources("")
	if err != nil {
		t.Fatal(err)
	}

	if len(sources) != len(DefaultSources) {
		t.Fatalf("Expected %d sources, got %d", len(DefaultSources), len(sources))
	}

	sources[0].Name = "changed"
	if DefaultSources[0].Name == "changed" {
		t.Error("Expected LoadSources to return a copy of the defaults")
	}
}

func TestLoadSourcesFromFile(t *testing.T) {
	path := writeSources(t, `
sources:
  - url: "https://example.com/a.xml"
    name: "Alpha"
    platform: "YouTube"
  - url: "https://example.com/b.xml"
    name: "Beta"
    extract_content: true
`)

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(sources) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(sources))
	}
	if sources[0].Name != "Alpha" || sources[1].Name != "Beta" {
		t.Errorf("Expected file order to be preserved, got %s, %s", sources[0].Name, sources[1].Name)
	}
	if sources[0].Platform != "YouTube" {
		t.Errorf("Expected platform 'YouTube', got '%s'", sources[0].Platform)
	}
	if sources[1].Platform != DefaultPlatform {
		t.Errorf("Expected default platform '%s', got '%s'", DefaultPlatform, sources[1].Platform)
	}
	if !sources[1].ExtractContent {
		t.Error("Expected extract_content to be enabled for Beta")
	}
}

func TestLoadSourcesValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{
			name:    "missing url",
			content: "sources:\n  - name: \"Alpha\"\n",
			errText: "source URL is required",
		},
		{
			name:    "missing name",
			content: "sources:\n  - url: \"https://example.com/a.xml\"\n",
			errText: "source name is required",
		},
		{
			name:    "bad scheme",
			content: "sources:\n  - url: \"ftp://example.com/a.xml\"\n    name: \"Alpha\"\n",
			errText: "must be http or https",
		},
		{
			name:    "empty list",
			content: "sources: []\n",
			errText: "no sources defined",
		},
		{
			name:    "invalid yaml",
			content: "sources: [\n",
			errText: "failed to parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSources(writeSources(t, tt.content))
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("Expected error containing %q, got: %v", tt.errText, err)
			}
		})
	}
}

func TestLoadSourcesMissingFile(t *testing.T) {
	if _, err := LoadSources(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
