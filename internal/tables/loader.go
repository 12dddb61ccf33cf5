// Package tables loads the dataset tables a chat session is seeded with
// and produces compact summaries for the model's prompt.
package tables

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Table is an in-memory tabular dataset.
type Table struct {
	Name   string
	Path   string
	Header []string
	Rows   [][]string
}

// Loader loads a table format by file name.
type Loader interface {
	CanLoad(filename string) bool
	Load(path string) (*Table, error)
}

var registry []Loader

// RegisterLoader adds a loader implementation to the registry.
func RegisterLoader(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates a table format is not supported.
var ErrUnsupported = errors.New("unsupported table format")

// LoadFile selects a loader by file name and loads the table under the
// given name (defaults to the base file name without extension).
func LoadFile(path, name string) (*Table, error) {
	for _, l := range registry {
		if l.CanLoad(path) {
			t, err := l.Load(path)
			if err != nil {
				return nil, err
			}
			if name == "" {
				base := filepath.Base(path)
				name = strings.TrimSuffix(base, filepath.Ext(base))
			}
			t.Name = name
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
}

type csvLoader struct{}

func (csvLoader) CanLoad(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

const maxRows = 100000

func (csvLoader) Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = sniffDelimiter(path)

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Table{Path: path}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := &Table{Path: path, Header: append([]string(nil), header...)}
	for len(t.Rows) < maxRows {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+2, err)
		}
		t.Rows = append(t.Rows, append([]string(nil), rec...))
	}
	return t, nil
}

// sniffDelimiter inspects the first line and picks among ',', ';', '\t'.
func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	f, err := os.Open(path)
	if err != nil {
		return ','
	}
	defer f.Close()
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return ','
	}
	best, bestCount := ',', strings.Count(line, ",")
	if n := strings.Count(line, ";"); n > bestCount {
		best, bestCount = ';', n
	}
	if n := strings.Count(line, "\t"); n > bestCount {
		best = '\t'
	}
	return best
}

func init() {
	RegisterLoader(csvLoader{})
}
