package tables

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTable(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadFileCSV(t *testing.T) {
	p := writeTable(t, "sales.csv", "region,amount\nnorth,10\nsouth,20\n")
	tab, err := LoadFile(p, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tab.Name != "sales" {
		t.Fatalf("expected table name from file, got %q", tab.Name)
	}
	if len(tab.Header) != 2 || tab.Header[1] != "amount" {
		t.Fatalf("unexpected header: %v", tab.Header)
	}
	if len(tab.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tab.Rows))
	}
}

func TestLoadFileTSV(t *testing.T) {
	p := writeTable(t, "a.tsv", "x\ty\n1\t2\n")
	tab, err := LoadFile(p, "points")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tab.Name != "points" {
		t.Fatalf("expected explicit name, got %q", tab.Name)
	}
	if len(tab.Rows) != 1 || tab.Rows[0][1] != "2" {
		t.Fatalf("unexpected rows: %v", tab.Rows)
	}
}

func TestLoadFileSemicolonSniff(t *testing.T) {
	p := writeTable(t, "b.csv", "x;y\n1;2\n3;4\n")
	tab, err := LoadFile(p, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tab.Header) != 2 {
		t.Fatalf("delimiter not sniffed, header: %v", tab.Header)
	}
}

func TestLoadFileUnsupported(t *testing.T) {
	p := writeTable(t, "c.parquet", "binary")
	if _, err := LoadFile(p, ""); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestSummarizeKinds(t *testing.T) {
	tab := &Table{
		Name:   "t",
		Header: []string{"amount", "region", "note"},
		Rows: [][]string{
			{"1", "north", "aaaa"},
			{"2", "north", "bbbb"},
			{"3", "south", "cccc"},
			{"4", "", "dddd"},
		},
	}
	opt := DefaultOptions()
	opt.MaxUnique = 3
	s := Summarize(tab, opt)
	if s.Rows != 4 {
		t.Fatalf("rows: %d", s.Rows)
	}
	if got := s.Columns[0].Kind; got != KindNumeric {
		t.Fatalf("amount kind: %s", got)
	}
	if got := s.Columns[0].Mean; got != 2.5 {
		t.Fatalf("amount mean: %v", got)
	}
	if got := s.Columns[1].Kind; got != KindCategorical {
		t.Fatalf("region kind: %s", got)
	}
	if got := s.Columns[1].Missing; got != 1 {
		t.Fatalf("region missing: %d", got)
	}
	if got := s.Columns[1].TopValues[0].Value; got != "north" {
		t.Fatalf("region top value: %s", got)
	}
	if got := s.Columns[2].Kind; got != KindText {
		t.Fatalf("note kind: %s", got)
	}
}

func TestSummarizeCorrelations(t *testing.T) {
	tab := &Table{
		Name:   "t",
		Header: []string{"x", "y"},
		Rows:   [][]string{{"1", "2"}, {"2", "4"}, {"3", "6"}},
	}
	s := Summarize(tab, DefaultOptions())
	if len(s.Corr) != 1 {
		t.Fatalf("expected one correlation pair, got %d", len(s.Corr))
	}
	if math.Abs(s.Corr[0].R-1.0) > 1e-9 {
		t.Fatalf("expected perfect correlation, got %v", s.Corr[0].R)
	}
}

func TestSummaryMarkdown(t *testing.T) {
	tab := &Table{
		Name:   "sales",
		Header: []string{"amount"},
		Rows:   [][]string{{"1"}, {"3"}},
	}
	md := Summarize(tab, DefaultOptions()).Markdown()
	if !strings.Contains(md, "[TABLE sales]") {
		t.Fatalf("missing table header: %q", md)
	}
	if !strings.Contains(md, "amount: numeric") {
		t.Fatalf("missing column line: %q", md)
	}
}
