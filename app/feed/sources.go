package feed

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSources is used when no sources file is configured.
var DefaultSources = []Source{
	{URL: "https://www.google.com.br/alerts/feeds/04594274413169544206/16978264240944516861", Name: "Google Alerts", Platform: "Aggregator"},
	{URL: "https://www.youtube.com/feeds/videos.xml?channel_id=UCwpyuvmJ_mOrebYbUPXtaBQ", Name: "Meu Timão", Platform: "YouTube"},
	{URL: "https://www.youtube.com/feeds/videos.xml?channel_id=UCXSYz2vDsxEEcRz998QqN3g", Name: "Canal do Povo", Platform: "YouTube"},
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads the ordered source list from a YAML file. An empty path
// returns a copy of DefaultSources.
func LoadSources(path string) ([]Source, error) {
	if path == "" {
		return append([]Source(nil), DefaultSources...), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i := range file.Sources {
		source := &file.Sources[i]
		source.URL = strings.TrimSpace(source.URL)
		source.Name = strings.TrimSpace(source.Name)
		if source.Platform == "" {
			source.Platform = DefaultPlatform
		}

		if err := validateSource(*source); err != nil {
			return nil, fmt.Errorf("invalid source at index %d in %s: %w", i, path, err)
		}

		slog.Debug("Source loaded", "name", source.Name, "platform", source.Platform, "url", source.URL)
	}

	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("no sources defined in %s", path)
	}

	return file.Sources, nil
}

func validateSource(source Source) error {
	if source.URL == "" {
		return fmt.Errorf("source URL is required")
	}
	if source.Name == "" {
		return fmt.Errorf("source name is required")
	}
	if !strings.HasPrefix(source.URL, "http://") && !strings.HasPrefix(source.URL, "https://") {
		return fmt.Errorf("source URL must be http or https: %s", source.URL)
	}
	return nil
}
