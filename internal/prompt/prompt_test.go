package prompt

import (
	"strings"
	"testing"
)

func TestRenderSubstitutesAllPlaceholders(t *testing.T) {
	b := NewBuilder("", []string{"math", "pandas"}, "[TABLE sales]", "eda_function")
	out := b.Render("user: hi", "count rows")
	for _, ph := range []string{PlaceholderLibraries, PlaceholderTables, PlaceholderFunction, PlaceholderHistory, PlaceholderInput} {
		if strings.Contains(out, ph) {
			t.Fatalf("placeholder %s not substituted", ph)
		}
	}
	for _, want := range []string{"math, pandas", "[TABLE sales]", "eda_function", "user: hi", "count rows"} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered prompt missing %q", want)
		}
	}
}

func TestRenderCustomTemplate(t *testing.T) {
	b := NewBuilder("fn={function_name} q={input}", nil, "", "f")
	if got := b.Render("", "hello"); got != "fn=f q=hello" {
		t.Fatalf("unexpected render: %q", got)
	}
}

func TestUpdateTables(t *testing.T) {
	b := NewBuilder("{tables}", nil, "old", "f")
	b.UpdateTables("new")
	if got := b.Render("", ""); got != "new" {
		t.Fatalf("expected updated tables description, got %q", got)
	}
}
