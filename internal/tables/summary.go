package tables

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Column kinds inferred from the data.
const (
	KindNumeric     = "numeric"
	KindCategorical = "categorical"
	KindText        = "text"
)

// CategoryCount is one categorical value and its frequency.
type CategoryCount struct {
	Value string
	Count int
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Categorical top values
	TopValues []CategoryCount
}

// PairCorr is a Pearson correlation between two numeric columns.
type PairCorr struct {
	A, B string
	R    float64
}

// Summary is a prompt-friendly description of one table.
type Summary struct {
	Table   string
	Rows    int
	Columns []ColumnSummary
	Corr    []PairCorr
}

// Options controls summarization.
type Options struct {
	// TopValues limits how many category values are reported per column.
	TopValues int
	// Correlations toggles Pearson correlations among numeric columns.
	Correlations bool
	// MaxUnique above which a non-numeric column is treated as free text.
	MaxUnique int
}

// DefaultOptions returns reasonable defaults for prompt summaries.
func DefaultOptions() Options {
	return Options{TopValues: 5, Correlations: true, MaxUnique: 20}
}

// Summarize analyzes a table into a Summary.
func Summarize(t *Table, opt Options) *Summary {
	if opt.TopValues <= 0 {
		opt.TopValues = 5
	}
	if opt.MaxUnique <= 0 {
		opt.MaxUnique = 20
	}
	s := &Summary{Table: t.Name, Rows: len(t.Rows)}
	numeric := map[string][]float64{}

	for ci, name := range t.Header {
		col := ColumnSummary{Name: strings.TrimSpace(name)}
		var values []float64
		counts := map[string]int{}
		for _, row := range t.Rows {
			if ci >= len(row) {
				col.Missing++
				continue
			}
			cell := strings.TrimSpace(row[ci])
			if cell == "" {
				col.Missing++
				continue
			}
			col.NonNull++
			counts[cell]++
			if f, err := strconv.ParseFloat(cell, 64); err == nil {
				values = append(values, f)
			}
		}
		col.Unique = len(counts)

		// Numeric when at least 80% of non-null cells parse as numbers.
		if col.NonNull > 0 && len(values)*5 >= col.NonNull*4 {
			col.Kind = KindNumeric
			col.Min, col.Max = values[0], values[0]
			for _, f := range values {
				if f < col.Min {
					col.Min = f
				}
				if f > col.Max {
					col.Max = f
				}
			}
			col.Mean = stat.Mean(values, nil)
			if len(values) > 1 {
				col.Std = stat.StdDev(values, nil)
			}
			numeric[col.Name] = values
		} else if col.Unique <= opt.MaxUnique {
			col.Kind = KindCategorical
			col.TopValues = topCounts(counts, opt.TopValues)
		} else {
			col.Kind = KindText
		}
		s.Columns = append(s.Columns, col)
	}

	if opt.Correlations {
		s.Corr = correlations(s.Columns, numeric, len(t.Rows))
	}
	return s
}

func topCounts(counts map[string]int, limit int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, CategoryCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Value < out[j].Value
		}
		return out[i].Count > out[j].Count
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// correlations computes pairwise Pearson r for numeric columns whose value
// slices are complete (equal to the row count), which keeps pairs aligned.
func correlations(cols []ColumnSummary, numeric map[string][]float64, rows int) []PairCorr {
	var names []string
	for _, c := range cols {
		if c.Kind == KindNumeric && len(numeric[c.Name]) == rows && rows > 1 {
			names = append(names, c.Name)
		}
	}
	var out []PairCorr
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			r := stat.Correlation(numeric[names[i]], numeric[names[j]], nil)
			out = append(out, PairCorr{A: names[i], B: names[j], R: r})
		}
	}
	sort.Slice(out, func(i, j int) bool { return abs(out[i].R) > abs(out[j].R) })
	return out
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// Markdown renders the summary as compact text for the prompt's tables
// section and the tables command.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[TABLE %s]\n", s.Table))
	b.WriteString(fmt.Sprintf("Rows: %d\nColumns: %d\n", s.Rows, len(s.Columns)))
	for _, c := range s.Columns {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", c.Name, c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case KindNumeric:
			b.WriteString(fmt.Sprintf("; min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
		case KindCategorical:
			if len(c.TopValues) > 0 {
				b.WriteString("; top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", kv.Value, kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		}
		b.WriteString("\n")
	}
	if len(s.Corr) > 0 {
		b.WriteString("Correlations:\n")
		max := len(s.Corr)
		if max > 6 {
			max = 6
		}
		for _, p := range s.Corr[:max] {
			b.WriteString(fmt.Sprintf("- corr(%s, %s) = %.2f\n", p.A, p.B, p.R))
		}
	}
	return b.String()
}

// Describe loads and summarizes every table reference, concatenating the
// summaries into one prompt section.
func Describe(ts []*Table, opt Options) string {
	parts := make([]string, 0, len(ts))
	for _, t := range ts {
		parts = append(parts, Summarize(t, opt).Markdown())
	}
	return strings.Join(parts, "\n")
}
