package recall

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/edalab/edachat/internal/utils"
)

// TurnDoc is one conversation turn offered for indexing.
type TurnDoc struct {
	ID      string
	Role    string
	Content string
}

// Record is one embedded chunk of a past turn.
type Record struct {
	TurnID    string    `json:"turn_id"`
	Role      string    `json:"role"`
	ChunkID   int       `json:"chunk_id"`
	ChunkHash string    `json:"chunk_hash,omitempty"`
	Text      string    `json:"text"`
	Vector    []float32 `json:"vector"`
}

// Index holds the embedded history of one session.
type Index struct {
	TurnHashes map[string]string `json:"turn_hashes"`
	Records    []Record          `json:"records"`
	Meta       IndexMeta         `json:"meta"`
}

type IndexMeta struct {
	IndexVersion   int       `json:"index_version"`
	EmbedProvider  string    `json:"embed_provider"`
	EmbedModel     string    `json:"embed_model"`
	EmbedDim       int       `json:"embed_dim"`
	ChunkMaxTokens int       `json:"chunk_max_tokens"`
	ChunkOverlap   int       `json:"chunk_overlap"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Embedder produces one vector per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// IndexPath returns the on-disk index location inside a session directory.
func IndexPath(sessionDir string) string {
	return filepath.Join(sessionDir, "recall_index.json")
}

func (idx *Index) Save(path string) error {
	if idx == nil {
		return fmt.Errorf("nil index")
	}
	if idx.TurnHashes == nil {
		idx.TurnHashes = map[string]string{}
	}
	b, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(path, b)
}

func Load(path string) (*Index, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var idx Index
	if err := json.Unmarshal(b, &idx); err != nil {
		return nil, err
	}
	if idx.TurnHashes == nil {
		idx.TurnHashes = map[string]string{}
	}
	if idx.Meta.IndexVersion == 0 {
		idx.Meta.IndexVersion = 1
	}
	return &idx, nil
}

// metaCompatible reports whether records embedded under prev can be reused
// under cur without re-embedding.
func metaCompatible(prev, cur IndexMeta) bool {
	if prev.IndexVersion != cur.IndexVersion {
		return false
	}
	if prev.EmbedProvider != "" && cur.EmbedProvider != "" && prev.EmbedProvider != cur.EmbedProvider {
		return false
	}
	if prev.EmbedModel != "" && cur.EmbedModel != "" && prev.EmbedModel != cur.EmbedModel {
		return false
	}
	if prev.ChunkMaxTokens != 0 && cur.ChunkMaxTokens != 0 && prev.ChunkMaxTokens != cur.ChunkMaxTokens {
		return false
	}
	if prev.ChunkOverlap != 0 && cur.ChunkOverlap != 0 && prev.ChunkOverlap != cur.ChunkOverlap {
		return false
	}
	return true
}

// CosineSim returns the cosine similarity of two vectors, or 0 on dimension
// mismatch or zero-length input.
func CosineSim(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		fa := float64(a[i])
		fb := float64(b[i])
		dot += fa * fb
		na += fa * fa
		nb += fb * fb
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

type BuildOptions struct {
	Force            bool
	EmbedProvider    string
	EmbedModel       string
	ChunkMaxTokens   int
	ChunkOverlap     int
	MaxChunksPerTurn int
}

// BuildIndex creates or refreshes the recall index for a session's turns.
// Chunks whose hash matches a previous record are reused without re-embedding.
func BuildIndex(ctx context.Context, emb Embedder, sessionDir string, turns []TurnDoc, opts BuildOptions) (*Index, error) {
	path := IndexPath(sessionDir)
	prev, _ := Load(path) // best effort
	if prev == nil {
		prev = &Index{TurnHashes: map[string]string{}}
	}
	if opts.ChunkMaxTokens <= 0 {
		opts.ChunkMaxTokens = 300
	}
	if opts.ChunkOverlap < 0 {
		opts.ChunkOverlap = 0
	}
	idx := &Index{TurnHashes: map[string]string{}}
	idx.Meta = IndexMeta{
		IndexVersion:   1,
		EmbedProvider:  opts.EmbedProvider,
		EmbedModel:     opts.EmbedModel,
		ChunkMaxTokens: opts.ChunkMaxTokens,
		ChunkOverlap:   opts.ChunkOverlap,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	type work struct {
		turnID, role string
		chunks       []string
	}
	var all []work
	for _, turn := range turns {
		chunks := ChunkByTokens(turn.Content, opts.ChunkMaxTokens, opts.ChunkOverlap)
		if opts.MaxChunksPerTurn > 0 && len(chunks) > opts.MaxChunksPerTurn {
			chunks = chunks[:opts.MaxChunksPerTurn]
		}
		all = append(all, work{turnID: turn.ID, role: turn.Role, chunks: chunks})
		sum := sha1.Sum([]byte(turn.Content))
		idx.TurnHashes[turn.ID] = fmt.Sprintf("%x", sum[:])
	}

	byTurn := map[string][]Record{}
	for _, r := range prev.Records {
		byTurn[r.TurnID] = append(byTurn[r.TurnID], r)
	}

	type chunkMeta struct {
		turnID, role string
		chunkID      int
		text, hash   string
	}
	var toEmbed []chunkMeta
	var reuse []Record
	for _, w := range all {
		prevChunks := byTurn[w.turnID]
		for i, text := range w.chunks {
			h := sha1.Sum([]byte(text))
			ch := fmt.Sprintf("%x", h[:])
			var matched *Record
			if !opts.Force && metaCompatible(prev.Meta, idx.Meta) {
				for j := range prevChunks {
					pr := prevChunks[j]
					if pr.ChunkID == i && pr.ChunkHash == ch && len(pr.Vector) > 0 {
						matched = &pr
						break
					}
				}
			}
			if matched != nil {
				reuse = append(reuse, *matched)
			} else {
				toEmbed = append(toEmbed, chunkMeta{turnID: w.turnID, role: w.role, chunkID: i, text: text, hash: ch})
			}
		}
	}

	idx.Records = append(idx.Records, reuse...)
	if len(toEmbed) > 0 {
		texts := make([]string, len(toEmbed))
		for i := range toEmbed {
			texts[i] = toEmbed[i].text
		}
		vecs, err := emb.Embed(ctx, texts)
		if err != nil {
			return nil, err
		}
		for i := range toEmbed {
			if i >= len(vecs) {
				break
			}
			cm := toEmbed[i]
			idx.Records = append(idx.Records, Record{
				TurnID: cm.turnID, Role: cm.role, ChunkID: cm.chunkID,
				ChunkHash: cm.hash, Text: cm.text, Vector: vecs[i],
			})
		}
		if len(vecs) > 0 {
			idx.Meta.EmbedDim = len(vecs[0])
		}
	}

	sort.Slice(idx.Records, func(i, j int) bool {
		if idx.Records[i].TurnID == idx.Records[j].TurnID {
			return idx.Records[i].ChunkID < idx.Records[j].ChunkID
		}
		return idx.Records[i].TurnID < idx.Records[j].TurnID
	})
	if err := idx.Save(path); err != nil {
		return nil, err
	}
	return idx, nil
}

// Search returns the top-k records scoring at or above minScore against the
// query vector, best first.
func (idx *Index) Search(query []float32, topK int, minScore float64) []Record {
	type scored struct {
		rec   Record
		score float64
	}
	hits := make([]scored, 0, len(idx.Records))
	for _, r := range idx.Records {
		s := CosineSim(query, r.Vector)
		if s >= minScore {
			hits = append(hits, scored{rec: r, score: s})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	out := make([]Record, len(hits))
	for i, h := range hits {
		out[i] = h.rec
	}
	return out
}
