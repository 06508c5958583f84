// Package embedding implements a self-contained text embedding engine.
//
// Vectors are TF-IDF weighted bags of hashed tokens: every token is hashed
// with three independent seeds into a fixed number of slots (the hashing
// trick keeps the output dimension bounded while the vocabulary grows), and
// character trigrams are folded in at half weight so small tokenization
// differences still land near each other. No model files, no network —
// the engine learns its vocabulary and document frequencies from the texts
// it is fed.
package embedding

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// DefaultDimension is the output vector size used when none is configured.
const DefaultDimension = 384

// DefaultModelName identifies vectors produced by this engine in storage.
const DefaultModelName = "tfidf-hash-v1"

// hashSeeds are the three independent seeds used by the hashing trick.
var hashSeeds = [3]uint32{0x9747b28c, 0x85ebca6b, 0xc2b2ae35}

// Engine converts text into fixed-dimension vectors. Vocabulary and IDF
// statistics are owned by the instance — there is no ambient global state.
// Embed takes a read lock and never mutates; EmbedBatch takes the write
// lock, folds the batch into the vocabulary statistics, and recomputes IDF
// before producing vectors.
type Engine struct {
	dim int

	mu        sync.RWMutex
	vocab     map[string]int     // term -> dense index, first-seen order
	df        map[string]int     // term -> document frequency
	idf       map[string]float64 // recomputed after every batch
	totalDocs int                // cumulative, never reset
}

// NewEngine creates an engine with an empty vocabulary. A dim of zero or
// less falls back to DefaultDimension.
func NewEngine(dim int) *Engine {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &Engine{
		dim:   dim,
		vocab: make(map[string]int),
		df:    make(map[string]int),
		idf:   make(map[string]float64),
	}
}

// Dimension returns the output vector length.
func (e *Engine) Dimension() int {
	return e.dim
}

// DocumentCount returns the cumulative number of documents processed.
func (e *Engine) DocumentCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.totalDocs
}

// VocabularySize returns the number of distinct terms seen so far.
func (e *Engine) VocabularySize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.vocab)
}

// Embed converts a single text into a vector using the current vocabulary
// state. It does not update vocabulary statistics, so for a fixed state the
// result is deterministic. Terms the engine has never seen fall back to an
// IDF of 1.0. All-stopword or empty input yields the zero vector.
func (e *Engine) Embed(text string) []float32 {
	tokens := tokenize(text)
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.vectorLocked(tokens)
}

// EmbedBatch folds the texts into the vocabulary statistics (incrementing
// the cumulative document count, updating per-term document frequencies and
// recomputing IDF for every seen term) and returns one vector per input.
// This is the learning path: stored memories go through here, queries use
// the read-only Embed.
func (e *Engine) EmbedBatch(texts []string) [][]float32 {
	tokenized := make([][]string, len(texts))
	for i, t := range texts {
		tokenized[i] = tokenize(t)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, tokens := range tokenized {
		e.totalDocs++
		seen := make(map[string]bool, len(tokens))
		for _, tok := range tokens {
			if _, ok := e.vocab[tok]; !ok {
				e.vocab[tok] = len(e.vocab)
			}
			if !seen[tok] {
				seen[tok] = true
				e.df[tok]++
			}
		}
	}

	// Smoothed IDF = ln(1 + N/(df+1)), N cumulative across the engine's
	// lifetime. The +1 inside the log keeps terms that appear in every
	// document at a small positive weight instead of zeroing them out,
	// which matters on corpora of a handful of documents.
	n := float64(e.totalDocs)
	for term, df := range e.df {
		e.idf[term] = math.Log(1 + n/float64(df+1))
	}

	out := make([][]float32, len(texts))
	for i, tokens := range tokenized {
		out[i] = e.vectorLocked(tokens)
	}
	return out
}

// vectorLocked computes the TF-IDF hashed vector for tokens. Callers must
// hold at least the read lock.
func (e *Engine) vectorLocked(tokens []string) []float32 {
	vec := make([]float32, e.dim)
	if len(tokens) == 0 {
		return vec
	}

	tf := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		tf[tok]++
	}

	// Sorted iteration keeps float accumulation order stable so identical
	// inputs produce bit-identical vectors.
	terms := make([]string, 0, len(tf))
	for term := range tf {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	total := float64(len(tokens))
	for _, term := range terms {
		idf, ok := e.idf[term]
		if !ok {
			idf = 1.0
		}
		weight := (tf[term] / total) * idf
		if weight == 0 {
			continue
		}

		e.accumulate(vec, term, weight)

		// Character trigrams at half weight tolerate tokenization noise
		// ("async" and "asynchronous" share a prefix of trigrams).
		runes := []rune(term)
		for i := 0; i+3 <= len(runes); i++ {
			e.accumulate(vec, string(runes[i:i+3]), weight/2)
		}
	}

	normalize(vec)
	return vec
}

// accumulate hashes s with each seed and adds weight at the resulting slots.
func (e *Engine) accumulate(vec []float32, s string, weight float64) {
	var seedBytes [4]byte
	for _, seed := range hashSeeds {
		h := fnv.New32a()
		binary.LittleEndian.PutUint32(seedBytes[:], seed)
		_, _ = h.Write(seedBytes[:])
		_, _ = h.Write([]byte(s))
		slot := h.Sum32() % uint32(e.dim)
		vec[slot] += float32(weight)
	}
}

// normalize scales vec to unit L2 norm in place. A zero vector stays zero.
func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}

// tokenize lowercases, splits on non-alphanumeric boundaries and drops
// tokens of two runes or fewer.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Mismatched dimensions or a zero-norm side yield 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
