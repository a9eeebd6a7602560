package ingest

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source is one file offered for ingestion. Open is called once, when the
// upload stage starts.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileSource reads from a local path.
func FileSource(path string) Source {
	return Source{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// BytesSource serves an in-memory payload.
func BytesSource(name string, data []byte) Source {
	return Source{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

var supportedExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}, ".heic": {}, ".heif": {},
}

// SupportedImage reports whether the service accepts files with this name.
func SupportedImage(name string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// CollectSources expands glob patterns and keeps supported image files in
// argument order. Unsupported or missing paths are returned in skipped.
func CollectSources(patterns []string) (sources []Source, skipped []string, err error) {
	seen := map[string]struct{}{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		matches, globErr := filepath.Glob(p)
		if globErr != nil {
			return nil, nil, globErr
		}
		if matches == nil {
			matches = []string{p}
		}
		sort.Strings(matches)
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			info, statErr := os.Stat(m)
			if statErr != nil {
				if errors.Is(statErr, os.ErrNotExist) {
					skipped = append(skipped, m)
					continue
				}
				return nil, nil, statErr
			}
			if info.IsDir() || !SupportedImage(m) {
				skipped = append(skipped, m)
				continue
			}
			sources = append(sources, FileSource(m))
		}
	}
	return sources, skipped, nil
}
