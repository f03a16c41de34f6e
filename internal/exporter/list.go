package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Artifact is one export file as presented to a lister.
type Artifact struct {
	Filename    string    `json:"filename"`
	Records     int       `json:"records"`
	SizeBytes   int64     `json:"size_bytes"`
	CompletedAt time.Time `json:"completed_at"`
}

// Run pairs the artifacts produced by one export run, correlated by the
// shared timestamp token embedded in both filenames.
type Run struct {
	Stamp string    `json:"stamp"`
	CSV   *Artifact `json:"csv,omitempty"`
	XML   *Artifact `json:"xml,omitempty"`
}

// ListRuns enumerates prior runs from the sidecar files in dir, newest first.
func ListRuns(dir string) ([]Run, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading artifact directory: %w", err)
	}

	runs := make(map[string]*Run)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		m := artifactPattern.FindStringSubmatch(entry.Name())
		if m == nil || m[3] != ".meta.json" {
			continue
		}
		stamp, format := m[1], m[2]

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}

		var sidecar Sidecar
		if err := json.Unmarshal(data, &sidecar); err != nil {
			continue
		}

		artifact := &Artifact{
			Filename:    sidecar.Filename,
			Records:     sidecar.Records,
			CompletedAt: sidecar.CompletedAt,
		}
		if info, err := os.Stat(filepath.Join(dir, sidecar.Filename)); err == nil {
			artifact.SizeBytes = info.Size()
		}

		run, ok := runs[stamp]
		if !ok {
			run = &Run{Stamp: stamp}
			runs[stamp] = run
		}

		switch format {
		case "csv":
			run.CSV = artifact
		case "xml":
			run.XML = artifact
		}
	}

	list := make([]Run, 0, len(runs))
	for _, run := range runs {
		list = append(list, *run)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].Stamp > list[j].Stamp
	})

	return list, nil
}
