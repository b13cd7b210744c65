package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/dayview/pkg/render/sink"
)

// stdoutPath as --output writes a single artifact to standard output.
const stdoutPath = "-"

// feedBase is the output base name for feed input.
const feedBase = "dayview"

// basePath derives the base output path: the output without a known format
// extension, or the input without its extension.
func basePath(output, input string) string {
	if output == "" {
		if input == "" {
			return feedBase
		}
		return trimExt(input)
	}
	return trimExt(output)
}

// trimExt strips a format or event-file extension, including compound ones
// like ".layout.json" and ".conflicts.svg".
func trimExt(path string) string {
	for _, suffix := range []string{".layout.json", ".conflicts.svg"} {
		if strings.HasSuffix(path, suffix) {
			return strings.TrimSuffix(path, suffix)
		}
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch strings.TrimPrefix(ext, ".") {
	case "json", "yaml", "yml", "toml", "ics", "html", "svg", "png", "pdf", "txt", "dot":
		return strings.TrimSuffix(path, filepath.Ext(path))
	}
	return path
}

// artifactPath returns where one format is written. A single format with an
// explicit output goes exactly there.
func artifactPath(base, output, format string, single bool) string {
	if single && output != "" {
		return output
	}
	return base + sink.Format(format).Extension()
}

type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
}

// writeArtifacts writes each artifact and returns the paths in format order.
func writeArtifacts(p artifactWriteParams) ([]string, error) {
	single := len(p.formats) == 1
	if p.output == stdoutPath {
		if !single {
			return nil, fmt.Errorf("--output - needs exactly one format, got %d", len(p.formats))
		}
		_, err := os.Stdout.Write(p.artifacts[p.formats[0]])
		return nil, err
	}

	base := basePath(p.output, p.input)
	var paths []string
	for _, f := range p.formats {
		data, ok := p.artifacts[f]
		if !ok {
			continue
		}
		path := artifactPath(base, p.output, f, single)
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return paths, err
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// layoutPath is the default layout file for an input.
func layoutPath(output, input string) string {
	if output != "" {
		return output
	}
	return basePath("", input) + ".layout.json"
}
