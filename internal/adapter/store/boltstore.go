package store

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.etcd.io/bbolt"

	"github.com/EricA1019/Godot-MCP/internal/adapter/analyzer"
	"github.com/EricA1019/Godot-MCP/internal/domain"
)

var (
	bucketDocs     = []byte("docs")
	bucketContents = []byte("contents")
	bucketTerms    = []byte("terms")
	bucketMeta     = []byte("meta")
	keySchema      = []byte("schema_version")
)

// schemaVersion guards against opening an index written by an
// incompatible layout. Bump on any bucket or encoding change.
const schemaVersion = "1"

// BM25 parameters; overridable via SetParams.
const (
	defaultK1 = 1.2
	defaultB  = 0.75
)

// BoltStore is a persistent inverted index over documents backed by a
// single bbolt database file. One document per normalized path; upserts
// are delete-then-add inside the same transaction so the engine never
// holds two documents for one key.
type BoltStore struct {
	db        *bbolt.DB
	tokenizer *analyzer.Tokenizer
	k1        float64
	b         float64
}

type docMeta struct {
	Kind   string         `json:"kind"`
	Hash   string         `json:"hash"`
	Length int            `json:"length"`
	TF     map[string]int `json:"tf"`
}

type posting struct {
	Path string `json:"path"`
	TF   int    `json:"tf"`
}

// Open opens or creates an index under dir. The directory is created if
// absent. Returns domain.ErrIndexUnavailable when the directory cannot
// be used or an incompatible index is present.
func Open(dir string, tokenizer *analyzer.Tokenizer) (*BoltStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", domain.ErrIndexUnavailable, dir, err)
	}

	db, err := bbolt.Open(filepath.Join(dir, "index.db"), 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", domain.ErrIndexUnavailable, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocs, bucketContents, bucketTerms, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		meta := tx.Bucket(bucketMeta)
		if v := meta.Get(keySchema); v == nil {
			return meta.Put(keySchema, []byte(schemaVersion))
		} else if string(v) != schemaVersion {
			return fmt.Errorf("schema version %q, want %q", v, schemaVersion)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}

	return &BoltStore{db: db, tokenizer: tokenizer, k1: defaultK1, b: defaultB}, nil
}

// SetParams overrides the BM25 ranking parameters.
func (s *BoltStore) SetParams(k1, b float64) {
	s.k1 = k1
	s.b = b
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// ApplyBatch applies ops in order inside one transaction: either all
// operations are visible to future readers or none are. Returns the
// number of operations applied; upserts whose hash matches the stored
// document are skipped.
func (s *BoltStore) ApplyBatch(ops []domain.Op) (int, error) {
	applied := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		applied = 0
		for _, op := range ops {
			switch op.Type {
			case domain.OpDelete:
				removed, err := deleteDoc(tx, op.Doc.Path)
				if err != nil {
					return err
				}
				if removed {
					applied++
				}
			case domain.OpUpsert:
				docs := tx.Bucket(bucketDocs)
				if data := docs.Get([]byte(op.Doc.Path)); data != nil {
					var meta docMeta
					if err := json.Unmarshal(data, &meta); err == nil && meta.Hash == op.Doc.Hash {
						continue
					}
					if _, err := deleteDoc(tx, op.Doc.Path); err != nil {
						return err
					}
				}
				if err := s.addDoc(tx, op.Doc); err != nil {
					return err
				}
				applied++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: commit: %v", domain.ErrIndexUnavailable, err)
	}
	return applied, nil
}

// deleteDoc removes a document, its content blob and its postings.
func deleteDoc(tx *bbolt.Tx, path string) (bool, error) {
	docs := tx.Bucket(bucketDocs)
	key := []byte(path)
	data := docs.Get(key)
	if data == nil {
		return false, nil
	}
	var meta docMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return false, err
	}

	terms := tx.Bucket(bucketTerms)
	for term := range meta.TF {
		tkey := []byte(term)
		var postings []posting
		if pdata := terms.Get(tkey); pdata != nil {
			if err := json.Unmarshal(pdata, &postings); err != nil {
				return false, err
			}
		}
		kept := postings[:0]
		for _, p := range postings {
			if p.Path != path {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			if err := terms.Delete(tkey); err != nil {
				return false, err
			}
			continue
		}
		pdata, err := json.Marshal(kept)
		if err != nil {
			return false, err
		}
		if err := terms.Put(tkey, pdata); err != nil {
			return false, err
		}
	}

	if err := tx.Bucket(bucketContents).Delete(key); err != nil {
		return false, err
	}
	return true, docs.Delete(key)
}

// addDoc inserts a document assuming no existing entry for its path.
func (s *BoltStore) addDoc(tx *bbolt.Tx, doc domain.Document) error {
	tf := s.tokenizer.TermFrequencies(doc.Content)
	length := 0
	for _, n := range tf {
		length += n
	}

	meta := docMeta{Kind: doc.Kind, Hash: doc.Hash, Length: length, TF: tf}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	key := []byte(doc.Path)
	if err := tx.Bucket(bucketDocs).Put(key, data); err != nil {
		return err
	}
	if err := tx.Bucket(bucketContents).Put(key, []byte(doc.Content)); err != nil {
		return err
	}

	terms := tx.Bucket(bucketTerms)
	sorted := make([]string, 0, len(tf))
	for term := range tf {
		sorted = append(sorted, term)
	}
	sort.Strings(sorted)

	for _, term := range sorted {
		tkey := []byte(term)
		var postings []posting
		if pdata := terms.Get(tkey); pdata != nil {
			if err := json.Unmarshal(pdata, &postings); err != nil {
				return err
			}
		}
		postings = append(postings, posting{Path: doc.Path, TF: tf[term]})
		// Postings stay sorted by path so score accumulation is
		// order-stable across runs.
		sort.Slice(postings, func(i, j int) bool { return postings[i].Path < postings[j].Path })
		pdata, err := json.Marshal(postings)
		if err != nil {
			return err
		}
		if err := terms.Put(tkey, pdata); err != nil {
			return err
		}
	}
	return nil
}

// Search returns up to limit hits for a free-text query, ordered by
// descending score with ties broken by ascending path. Every search
// runs in a fresh read transaction, so it observes all batches that
// committed before the call.
func (s *BoltStore) Search(query string, limit int) ([]domain.Hit, error) {
	advanced, err := s.SearchAdvanced(query, "", limit, false)
	if err != nil {
		return nil, err
	}
	hits := make([]domain.Hit, len(advanced))
	for i, h := range advanced {
		hits[i] = domain.Hit{Score: h.Score, Path: h.Path, Kind: h.Kind}
	}
	return hits, nil
}

// SearchAdvanced restricts hits to an optional kind and optionally
// attaches a short snippet around the first matching term.
func (s *BoltStore) SearchAdvanced(query, kind string, limit int, wantSnippet bool) ([]domain.AdvancedHit, error) {
	terms := s.tokenizer.Tokenize(query)
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: no searchable terms in %q", domain.ErrQueryInvalid, query)
	}
	if limit <= 0 {
		return []domain.AdvancedHit{}, nil
	}

	// Deduplicate and sort query terms for order-stable accumulation.
	uniq := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		uniq[t] = struct{}{}
	}
	sorted := make([]string, 0, len(uniq))
	for t := range uniq {
		sorted = append(sorted, t)
	}
	sort.Strings(sorted)

	var hits []domain.AdvancedHit
	err := s.db.View(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(bucketDocs)
		termBucket := tx.Bucket(bucketTerms)

		totalDocs := docs.Stats().KeyN
		if totalDocs == 0 {
			return nil
		}
		avgLen := averageDocLength(docs, totalDocs)

		scores := make(map[string]float64)
		matched := make(map[string]int)
		lengths := make(map[string]int)
		kinds := make(map[string]string)

		for _, term := range sorted {
			pdata := termBucket.Get([]byte(term))
			if pdata == nil {
				continue
			}
			var postings []posting
			if err := json.Unmarshal(pdata, &postings); err != nil {
				return err
			}

			n := float64(len(postings))
			idf := math.Log((float64(totalDocs)-n+0.5)/(n+0.5) + 1)

			for _, p := range postings {
				if _, ok := lengths[p.Path]; !ok {
					var meta docMeta
					if data := docs.Get([]byte(p.Path)); data != nil {
						if err := json.Unmarshal(data, &meta); err != nil {
							return err
						}
					}
					lengths[p.Path] = meta.Length
					kinds[p.Path] = meta.Kind
				}

				dl := float64(lengths[p.Path])
				tf := float64(p.TF)
				scores[p.Path] += idf * (tf * (s.k1 + 1)) / (tf + s.k1*(1-s.b+s.b*dl/avgLen))
				matched[p.Path]++
			}
		}

		paths := make([]string, 0, len(scores))
		for path, count := range matched {
			// AND semantics: every query term must occur in the doc.
			if count != len(sorted) {
				continue
			}
			if kind != "" && kinds[path] != kind {
				continue
			}
			paths = append(paths, path)
		}
		sort.Slice(paths, func(i, j int) bool {
			si, sj := scores[paths[i]], scores[paths[j]]
			if si != sj {
				return si > sj
			}
			return paths[i] < paths[j]
		})
		if len(paths) > limit {
			paths = paths[:limit]
		}

		contents := tx.Bucket(bucketContents)
		for _, path := range paths {
			hit := domain.AdvancedHit{Score: scores[path], Path: path, Kind: kinds[path]}
			if wantSnippet {
				hit.Snippet = makeSnippet(string(contents.Get([]byte(path))), sorted)
			}
			hits = append(hits, hit)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", domain.ErrIndexUnavailable, err)
	}
	if hits == nil {
		hits = []domain.AdvancedHit{}
	}
	return hits, nil
}

func averageDocLength(docs *bbolt.Bucket, totalDocs int) float64 {
	total := 0
	_ = docs.ForEach(func(k, v []byte) error {
		var meta docMeta
		if err := json.Unmarshal(v, &meta); err == nil {
			total += meta.Length
		}
		return nil
	})
	if total == 0 {
		return 1
	}
	return float64(total) / float64(totalDocs)
}

// makeSnippet extracts a window around the first occurrence of the
// first query term (in the given order) that appears in content: 60
// bytes of leading context, 200 of trailing, newlines flattened,
// ellipsis when the file continues past the window.
func makeSnippet(content string, terms []string) string {
	lower := strings.ToLower(content)
	start := 0
	for _, t := range terms {
		if i := strings.Index(lower, t); i >= 0 {
			start = i
			break
		}
	}
	windowStart := start - 60
	if windowStart < 0 {
		windowStart = 0
	}
	windowEnd := start + 200
	if windowEnd > len(content) {
		windowEnd = len(content)
	}
	snippet := strings.NewReplacer("\n", " ", "\r", " ").Replace(content[windowStart:windowEnd])
	if windowEnd < len(content) {
		snippet += "..."
	}
	return snippet
}

// Health reports document count and distinct term count. The term count
// stands in for engine segments: stable under no-op upserts.
func (s *BoltStore) Health() (domain.Stats, error) {
	var stats domain.Stats
	err := s.db.View(func(tx *bbolt.Tx) error {
		stats.DocCount = tx.Bucket(bucketDocs).Stats().KeyN
		stats.SegmentCount = tx.Bucket(bucketTerms).Stats().KeyN
		return nil
	})
	if err != nil {
		return domain.Stats{}, fmt.Errorf("%w: health: %v", domain.ErrIndexUnavailable, err)
	}
	return stats, nil
}

// Paths lists every indexed path in ascending order.
func (s *BoltStore) Paths() ([]string, error) {
	var paths []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			paths = append(paths, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list paths: %v", domain.ErrIndexUnavailable, err)
	}
	return paths, nil
}

// Hash returns the stored content hash for a path, or "" when the path
// is not indexed.
func (s *BoltStore) Hash(path string) (string, error) {
	var hash string
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocs).Get([]byte(path))
		if data == nil {
			return nil
		}
		var meta docMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		hash = meta.Hash
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: hash lookup: %v", domain.ErrIndexUnavailable, err)
	}
	return hash, nil
}
