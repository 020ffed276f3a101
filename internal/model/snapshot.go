package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// snapshotDir is the directory for snapshot files.
const snapshotDir = "/tmp"

// snapshotPrefix is the filename prefix for snapshot files.
const snapshotPrefix = "deskdriver-snapshot-"

func safeScope(scope string) string {
	safe := strings.ReplaceAll(scope, "/", "_")
	return strings.ReplaceAll(safe, " ", "_")
}

func snapshotPath(scope string, ts int64) string {
	return filepath.Join(snapshotDir, fmt.Sprintf("%s%s-%d.json", snapshotPrefix, safeScope(scope), ts))
}

// SaveSnapshot writes a flat capture to a snapshot file for later diffing.
// The scope string names what was captured, typically the application name.
func SaveSnapshot(scope string, ts int64, nodes []FlatNode) error {
	data, err := json.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return os.WriteFile(snapshotPath(scope, ts), data, 0644)
}

// LoadSnapshot reads a previously saved snapshot from disk.
func LoadSnapshot(scope string, ts int64) ([]FlatNode, error) {
	data, err := os.ReadFile(snapshotPath(scope, ts))
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var nodes []FlatNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return nodes, nil
}

// LatestSnapshotTS returns the newest saved snapshot timestamp for the
// scope, or 0 when none exists.
func LatestSnapshotTS(scope string) int64 {
	prefix := snapshotPrefix + safeScope(scope) + "-"

	entries, err := os.ReadDir(snapshotDir)
	if err != nil {
		return 0
	}
	var latest int64
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		ts, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json"), 10, 64)
		if err != nil {
			continue
		}
		if ts > latest {
			latest = ts
		}
	}
	return latest
}

// CleanSnapshots removes snapshot files for the given scope older than maxAge.
func CleanSnapshots(scope string, maxAge time.Duration) {
	prefix := snapshotPrefix + safeScope(scope) + "-"

	entries, err := os.ReadDir(snapshotDir)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(snapshotDir, entry.Name()))
		}
	}
}
