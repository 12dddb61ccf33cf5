package recall

import (
	"context"
	"strings"
	"testing"
)

type fakeEmbedder struct {
	calls int
	vecFn func(text string) []float32
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vecFn(t)
	}
	return out, nil
}

// keywordVec embeds by keyword presence so similarity is predictable.
func keywordVec(text string) []float32 {
	v := make([]float32, 3)
	if strings.Contains(text, "sales") {
		v[0] = 1
	}
	if strings.Contains(text, "churn") {
		v[1] = 1
	}
	if strings.Contains(text, "weather") {
		v[2] = 1
	}
	return v
}

func TestChunkByTokensOverlap(t *testing.T) {
	para := strings.Repeat("word ", 100) // ~125 tokens
	text := para + "\n\n" + para + "\n\n" + para
	chunks := ChunkByTokens(text, 150, 50)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// With overlap, the second chunk should start with the tail of the first.
	if !strings.HasPrefix(chunks[1], strings.TrimSpace(para)[:20]) {
		t.Fatalf("expected overlap carryover in chunk 2: %q", chunks[1][:40])
	}
}

func TestChunkByTokensEmpty(t *testing.T) {
	if got := ChunkByTokens("   \n\n  ", 100, 0); len(got) != 0 {
		t.Fatalf("expected no chunks for blank input, got %v", got)
	}
}

func TestBuildIndexAndSearch(t *testing.T) {
	dir := t.TempDir()
	emb := &fakeEmbedder{vecFn: keywordVec}
	turns := []TurnDoc{
		{ID: "t1", Role: "user", Content: "show me the sales table"},
		{ID: "t2", Role: "assistant", Content: "churn went down last quarter"},
		{ID: "t3", Role: "user", Content: "what about the weather data"},
	}
	idx, err := BuildIndex(context.Background(), emb, dir, turns, BuildOptions{
		EmbedProvider: "test", EmbedModel: "kw",
	})
	if err != nil {
		t.Fatalf("BuildIndex error: %v", err)
	}
	if len(idx.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(idx.Records))
	}

	hits := idx.Search(keywordVec("churn analysis"), 2, 0.1)
	if len(hits) == 0 || hits[0].TurnID != "t2" {
		t.Fatalf("expected t2 as best hit, got %+v", hits)
	}
}

func TestBuildIndexReusesUnchangedChunks(t *testing.T) {
	dir := t.TempDir()
	emb := &fakeEmbedder{vecFn: keywordVec}
	turns := []TurnDoc{{ID: "t1", Role: "user", Content: "sales question"}}

	if _, err := BuildIndex(context.Background(), emb, dir, turns, BuildOptions{EmbedProvider: "test", EmbedModel: "kw"}); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if emb.calls != 1 {
		t.Fatalf("expected 1 embed call, got %d", emb.calls)
	}

	// Rebuild with identical content should not embed again.
	if _, err := BuildIndex(context.Background(), emb, dir, turns, BuildOptions{EmbedProvider: "test", EmbedModel: "kw"}); err != nil {
		t.Fatalf("second build: %v", err)
	}
	if emb.calls != 1 {
		t.Fatalf("expected reuse without embedding, got %d calls", emb.calls)
	}

	// Changing the embed model invalidates reuse.
	if _, err := BuildIndex(context.Background(), emb, dir, turns, BuildOptions{EmbedProvider: "test", EmbedModel: "kw2"}); err != nil {
		t.Fatalf("third build: %v", err)
	}
	if emb.calls != 2 {
		t.Fatalf("expected re-embed after model change, got %d calls", emb.calls)
	}
}

func TestIndexSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	emb := &fakeEmbedder{vecFn: keywordVec}
	turns := []TurnDoc{{ID: "t1", Role: "user", Content: "weather today"}}
	if _, err := BuildIndex(context.Background(), emb, dir, turns, BuildOptions{}); err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	loaded, err := Load(IndexPath(dir))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Records) != 1 || loaded.Records[0].TurnID != "t1" {
		t.Fatalf("unexpected loaded index: %+v", loaded)
	}
}

func TestCosineSim(t *testing.T) {
	if s := CosineSim([]float32{1, 0}, []float32{1, 0}); s < 0.999 {
		t.Fatalf("identical vectors should score ~1, got %f", s)
	}
	if s := CosineSim([]float32{1, 0}, []float32{0, 1}); s != 0 {
		t.Fatalf("orthogonal vectors should score 0, got %f", s)
	}
	if s := CosineSim([]float32{1}, []float32{1, 2}); s != 0 {
		t.Fatalf("dimension mismatch should score 0, got %f", s)
	}
}
