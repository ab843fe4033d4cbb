package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeusync/drivesim/internal/core/episode"
	"github.com/zeusync/drivesim/internal/storage"
)

// Export is the root JSON structure of an episode file.
type Export struct {
	Episode storage.Episode  `json:"episode"`
	Summary storage.Summary  `json:"summary"`
	Results []episode.Result `json:"results"`
}

// exportJSON writes the episode to a JSON file, gzipped if configured.
func (b *Backend) exportJSON(export Export) (string, error) {
	name := strings.TrimSuffix(filepath.Base(export.Episode.Track), filepath.Ext(export.Episode.Track))
	name = strings.NewReplacer(" ", "_", ":", "_").Replace(name)
	if name == "" || name == "." {
		name = "episode"
	}
	id := export.Episode.ID
	if len(id) > 8 {
		id = id[:8]
	}
	filename := fmt.Sprintf("%s_%s_%s.json", name, export.Episode.StartedAt.Format("20060102_150405"), id)
	if b.cfg.CompressOutput {
		filename += ".gz"
	}

	if err := os.MkdirAll(b.cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	f, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	if b.cfg.CompressOutput {
		gz := gzip.NewWriter(f)
		defer gz.Close()
		w = gz
	}

	enc := json.NewEncoder(w)
	if err = enc.Encode(export); err != nil {
		return "", fmt.Errorf("failed to encode episode: %w", err)
	}
	return outputPath, nil
}

// ReadExport loads a file written by the backend, gzipped or not.
func ReadExport(path string) (*Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	var export Export
	if err = json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("decode episode: %w", err)
	}
	return &export, nil
}
