// Package batch reads query files for unattended search and download runs.
package batch

import (
	"fmt"
	"os"
	"strings"

	"codeberg.org/snonux/galleryexplorer/internal/search"
)

// QueryEntry is one line of a batch file
type QueryEntry struct {
	Text string
	// Engine is set only when the line names one
	Engine    search.Engine
	HasEngine bool
}

// ReadBatchFile reads queries from a file.
// Supported line formats:
// - query only: "red fox" (uses the configured engine)
// - with engine: "red fox = bing"
// Blank lines and lines starting with '#' are ignored.
func ReadBatchFile(filename string) ([]QueryEntry, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return ParseBatch(string(content))
}

// ParseBatch parses batch file content
func ParseBatch(content string) ([]QueryEntry, error) {
	var entries []QueryEntry

	for n, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		text, engineName, hasEngine := strings.Cut(line, "=")
		text = strings.TrimSpace(text)
		if text == "" {
			// "= bing" has nothing to search for
			continue
		}

		entry := QueryEntry{Text: text}
		if hasEngine {
			engineName = strings.TrimSpace(engineName)
			if engineName != "" {
				engine, err := search.ParseEngine(engineName)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", n+1, err)
				}
				entry.Engine = engine
				entry.HasEngine = true
			}
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// EngineOr returns the entry's engine, or fallback when the line named none
func (e QueryEntry) EngineOr(fallback search.Engine) search.Engine {
	if e.HasEngine {
		return e.Engine
	}
	return fallback
}
