// Package output persists retrieval results to local files: one indented
// JSON document, newline-delimited JSON records, or a raw byte blob.
//
// The format is chosen by which operation is invoked, never inferred from
// the data. Files are created fresh on every invocation; an existing file
// at the same path is silently overwritten.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultDir is the output directory used by the CLI.
const DefaultDir = "data_output"

// timestampLayout produces discriminators like 20240131_154502.
const timestampLayout = "20060102_150405"

// Writer writes artifacts into one output directory, naming them
// {kind}_{company}_{discriminator}.{ext}. The company segment is omitted
// when no company identifier is known.
type Writer struct {
	dir     string
	company string
	logger  zerolog.Logger
}

// NewWriter creates a writer for the given directory and company
// identifier. company may be empty.
func NewWriter(dir, company string) *Writer {
	return &Writer{
		dir:     dir,
		company: company,
		logger:  log.With().Str("component", "output-writer").Logger(),
	}
}

// Name builds a deterministic artifact name from a kind, a discriminator
// (timestamp, document number, or lookup key), and an extension.
func (w *Writer) Name(kind, discriminator, ext string) string {
	parts := []string{kind}
	if w.company != "" {
		parts = append(parts, w.company)
	}
	if discriminator != "" {
		parts = append(parts, discriminator)
	}
	return strings.Join(parts, "_") + ext
}

// TimestampName builds an artifact name discriminated by the current time.
func (w *Writer) TimestampName(kind, ext string) string {
	return w.Name(kind, time.Now().Format(timestampLayout), ext)
}

// WriteJSON serializes one value as indented JSON. The .json extension is
// appended when missing. Returns the path of the written file.
func (w *Writer) WriteJSON(value any, filename string) (string, error) {
	if !strings.HasSuffix(filename, ".json") {
		filename += ".json"
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize %s: %w", filename, err)
	}

	return w.write(filename, append(data, '\n'))
}

// WriteLines serializes each record as one compact JSON line, so downstream
// tools can consume the file incrementally. The extension is normalized to
// .jsonl even when the caller passed .json.
func (w *Writer) WriteLines(records []map[string]any, filename string) (string, error) {
	switch {
	case strings.HasSuffix(filename, ".jsonl"):
	case strings.HasSuffix(filename, ".json"):
		filename = strings.TrimSuffix(filename, ".json") + ".jsonl"
	default:
		filename += ".jsonl"
	}

	var buf strings.Builder
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return "", fmt.Errorf("serialize record for %s: %w", filename, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	return w.write(filename, []byte(buf.String()))
}

// WriteBinary writes raw bytes verbatim. The .pdf extension is appended
// when missing.
func (w *Writer) WriteBinary(data []byte, filename string) (string, error) {
	if !strings.HasSuffix(filename, ".pdf") {
		filename += ".pdf"
	}

	return w.write(filename, data)
}

// write creates the output directory if absent and writes the file.
func (w *Writer) write(filename string, data []byte) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory %s: %w", w.dir, err)
	}

	path := filepath.Join(w.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	w.logger.Debug().
		Str("path", path).
		Int("bytes", len(data)).
		Msg("Wrote output file")

	return path, nil
}
