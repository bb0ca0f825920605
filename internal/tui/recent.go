package tui

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const maxRecent = 10

// RecentEntry is one workbook opened or produced by dishtap.
type RecentEntry struct {
	Path     string    `json:"path"`
	OpenedAt time.Time `json:"opened_at"`
}

// recentFile is swapped in tests.
var recentFile = func() string {
	cfg, err := os.UserConfigDir()
	if err != nil {
		cfg = os.TempDir()
	}
	return filepath.Join(cfg, "dishtap", "recent.json")
}

func LoadRecent() []RecentEntry {
	data, err := os.ReadFile(recentFile())
	if err != nil {
		return nil
	}
	var entries []RecentEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil
	}
	return entries
}

// SaveRecent moves path to the top of the recent list. Failures are ignored;
// the list is a convenience.
func SaveRecent(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	entries := LoadRecent()
	filtered := make([]RecentEntry, 0, len(entries)+1)
	filtered = append(filtered, RecentEntry{Path: abs, OpenedAt: time.Now()})
	for _, e := range entries {
		if e.Path != abs {
			filtered = append(filtered, e)
		}
	}
	if len(filtered) > maxRecent {
		filtered = filtered[:maxRecent]
	}

	data, err := json.MarshalIndent(filtered, "", "  ")
	if err != nil {
		return
	}
	file := recentFile()
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return
	}
	_ = os.WriteFile(file, data, 0644)
}
