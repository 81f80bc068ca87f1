package results

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// LoadDir reads every *.json file in dir, in name order. Each file holds one
// result object or an array of them. Files that cannot be read or decoded are
// logged and skipped; only an unreadable directory is an error.
func LoadDir(dir string, logger zerolog.Logger) ([]TestResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading results directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var out []TestResult
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		rs, err := LoadFile(path)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("file", path).
				Msg("skipping unreadable test result")
			continue
		}
		out = append(out, rs...)
	}

	logger.Debug().
		Str("dir", dir).
		Int("results", len(out)).
		Msg("loaded test results")
	return out, nil
}

// LoadFile decodes one result file.
func LoadFile(path string) ([]TestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode accepts a single result object or an array of them.
func Decode(data []byte) ([]TestResult, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var rs []TestResult
		if err := json.Unmarshal(data, &rs); err != nil {
			return nil, fmt.Errorf("decoding results: %w", err)
		}
		return rs, nil
	}
	var r TestResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	return []TestResult{r}, nil
}
