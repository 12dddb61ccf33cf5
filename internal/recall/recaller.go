package recall

import (
	"context"
	"strings"
)

// EmbedderFunc adapts a closure to the Embedder interface.
type EmbedderFunc func(ctx context.Context, texts []string) ([][]float32, error)

func (f EmbedderFunc) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return f(ctx, texts)
}

// Recaller refreshes a session's recall index on demand and answers queries
// against it. Turns are supplied lazily so the index always reflects the
// current transcript.
type Recaller struct {
	emb        Embedder
	sessionDir string
	turnsFn    func() []TurnDoc
	opts       BuildOptions
	topK       int
	minScore   float64
}

// NewRecaller builds a Recaller. topK <= 0 selects 3; minScore <= 0 selects
// 0.25.
func NewRecaller(emb Embedder, sessionDir string, turnsFn func() []TurnDoc, opts BuildOptions, topK int, minScore float64) *Recaller {
	if topK <= 0 {
		topK = 3
	}
	if minScore <= 0 {
		minScore = 0.25
	}
	return &Recaller{
		emb:        emb,
		sessionDir: sessionDir,
		turnsFn:    turnsFn,
		opts:       opts,
		topK:       topK,
		minScore:   minScore,
	}
}

// Recall refreshes the index from the current turns, embeds the query, and
// returns the matching chunks joined as a context block. An empty string
// means nothing scored above the threshold.
func (r *Recaller) Recall(ctx context.Context, query string) (string, error) {
	idx, err := BuildIndex(ctx, r.emb, r.sessionDir, r.turnsFn(), r.opts)
	if err != nil {
		return "", err
	}
	vecs, err := r.emb.Embed(ctx, []string{query})
	if err != nil {
		return "", err
	}
	if len(vecs) == 0 {
		return "", nil
	}
	recs := idx.Search(vecs[0], r.topK, r.minScore)
	if len(recs) == 0 {
		return "", nil
	}
	parts := make([]string, len(recs))
	for i, rec := range recs {
		parts[i] = rec.Role + ": " + rec.Text
	}
	return strings.Join(parts, "\n"), nil
}
