package vectormem

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/gradeinsight/assistant/internal/embedding"
)

const collectionName = "grade_conversations"

// Store persists conversational turns with their embeddings in an embedded
// chromem-go collection. Embeddings are computed at insert time through the
// configured provider; the embedding dimensionality is fixed for the store's
// lifetime and enforced on every insert.
type Store struct {
	mu       sync.RWMutex
	db       *chromem.DB
	col      *chromem.Collection
	provider embedding.Provider
	dims     int
}

// NewStore opens a store. An empty path keeps everything in memory;
// otherwise the collection is persisted under path.
func NewStore(path string, provider embedding.Provider) (*Store, error) {
	var (
		db  *chromem.DB
		err error
	)
	if strings.TrimSpace(path) == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("open persistent store: %w", err)
		}
	}

	col, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	s := &Store{db: db, col: col, provider: provider}
	// After a persistent reload, adopt the dimensionality of existing records.
	if docs := col.Count(); docs > 0 {
		s.dims = -1 // unknown until the first insert probes it
	}
	return s, nil
}

// Insert embeds and stores one conversational turn. Whitespace-only content
// is a no-op and returns an empty id. The id is derived deterministically
// from (conversation_id, timestamp, content prefix), so re-inserting an
// identical turn upserts the same document instead of duplicating it.
func (s *Store) Insert(ctx context.Context, conversationID, role, content, timestamp string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", nil
	}
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	vec, err := s.provider.Encode(ctx, content)
	if err != nil {
		return "", fmt.Errorf("embed content: %w", err)
	}

	s.mu.Lock()
	if s.dims > 0 && s.dims != len(vec) {
		s.mu.Unlock()
		return "", fmt.Errorf("embedding dimension mismatch: got %d want %d", len(vec), s.dims)
	}
	s.dims = len(vec)
	col := s.col
	s.mu.Unlock()

	id := docID(conversationID, timestamp, content)
	doc := chromem.Document{
		ID:        id,
		Content:   content,
		Embedding: vec,
		Metadata: map[string]string{
			"conversation_id": conversationID,
			"role":            role,
			"timestamp":       timestamp,
			"content_length":  strconv.Itoa(len(content)),
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return "", fmt.Errorf("add document: %w", err)
	}
	return id, nil
}

// Query returns up to k matches for the given embedding ordered by ascending
// distance. Filters are an exact-match conjunction over metadata fields; a
// missing key places no constraint on that field.
func (s *Store) Query(ctx context.Context, vec []float32, k int, filters map[string]string) ([]Match, error) {
	s.mu.RLock()
	col := s.col
	s.mu.RUnlock()

	// chromem rejects nResults larger than the collection, so clamp.
	total := col.Count()
	if total == 0 || k <= 0 {
		return nil, nil
	}
	if k > total {
		k = total
	}

	results, err := col.QueryEmbedding(ctx, vec, k, filters, nil)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{
			ID:             r.ID,
			ConversationID: r.Metadata["conversation_id"],
			Role:           r.Metadata["role"],
			Content:        r.Content,
			Timestamp:      r.Metadata["timestamp"],
			Similarity:     r.Similarity,
			Distance:       1 - r.Similarity,
		})
	}
	return matches, nil
}

// Search embeds the query text and returns matches ordered by descending
// similarity. Empty queries return no matches.
func (s *Store) Search(ctx context.Context, query string, k int, filters map[string]string) ([]Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	vec, err := s.provider.Encode(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.Query(ctx, vec, k, filters)
}

// Count reports the number of stored records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.col.Count()
}

// Stats summarizes the store for the metrics endpoint.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dims := s.dims
	if dims < 0 {
		dims = 0
	}
	return Stats{
		TotalMessages: s.col.Count(),
		Collection:    collectionName,
		Dimensions:    dims,
	}
}

// Clear removes all records and resets the collection.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(collectionName); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	col, err := s.db.CreateCollection(collectionName, nil, nil)
	if err != nil {
		return fmt.Errorf("recreate collection: %w", err)
	}
	s.col = col
	s.dims = 0
	return nil
}

func docID(conversationID, timestamp, content string) string {
	prefix := content
	if len(prefix) > 50 {
		prefix = prefix[:50]
	}
	sum := md5.Sum([]byte(conversationID + "_" + timestamp + "_" + prefix))
	return hex.EncodeToString(sum[:])
}
