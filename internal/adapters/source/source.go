// Package source reads record sets from CSV, JSON and YAML files.
package source

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/ports"
)

// Supported formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatFromPath maps a file extension to a format.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, filepath.Ext(path))
}

// Load reads the records in path, choosing the decoder by extension.
func Load(path string) ([]domain.Record, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening records: %w", err)
	}
	defer f.Close()

	records, err := Decode(format, f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}

// Decode reads records of the given format from r.
func Decode(format string, r io.Reader) ([]domain.Record, error) {
	src, err := New(format)
	if err != nil {
		return nil, err
	}
	return src.Decode(r)
}

// New returns the ports.RecordSource for format.
func New(format string) (ports.RecordSource, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return CSV{}, nil
	case FormatJSON:
		return JSON{}, nil
	case FormatYAML, "yml":
		return YAML{}, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
}

// CSV decodes a header row followed by one record per line. The id, name and
// email columns are matched case-insensitively; other columns go to Fields.
type CSV struct{}

// Decode implements ports.RecordSource.
func (CSV) Decode(r io.Reader) ([]domain.Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []domain.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row %d: %w", len(records)+2, err)
		}
		records = append(records, csvRecord(header, row))
	}
	return records, nil
}

func csvRecord(header, row []string) domain.Record {
	var rec domain.Record
	for i, col := range header {
		if i >= len(row) {
			break
		}
		switch strings.ToLower(col) {
		case "id":
			rec.ID = row[i]
		case domain.FieldName:
			rec.Name = row[i]
		case domain.FieldEmail:
			rec.Email = row[i]
		default:
			if rec.Fields == nil {
				rec.Fields = make(map[string]string)
			}
			rec.Fields[col] = row[i]
		}
	}
	return rec
}

// JSON decodes an array of records.
type JSON struct{}

// Decode implements ports.RecordSource.
func (JSON) Decode(r io.Reader) ([]domain.Record, error) {
	var records []domain.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding json records: %w", err)
	}
	return records, nil
}

// YAML decodes a sequence of records.
type YAML struct{}

// Decode implements ports.RecordSource.
func (YAML) Decode(r io.Reader) ([]domain.Record, error) {
	var records []domain.Record
	if err := yaml.NewDecoder(r).Decode(&records); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding yaml records: %w", err)
	}
	return records, nil
}
