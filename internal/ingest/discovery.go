package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	DefaultFilePrefix = "activities_"
	FileExtension     = ".csv"
)

// DiscoverFiles lists non-directory entries in dir named <prefix>*.csv, sorted by
// file name. The date embedded in the name is not validated.
func DiscoverFiles(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrDiscovery, dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, FileExtension) {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	files := make([]string, len(names))
	for i, name := range names {
		files[i] = filepath.Join(dir, name)
	}
	return files, nil
}
