package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DocumentStore reads and writes search documents.
type DocumentStore interface {
	Save(ctx context.Context, doc Document) error
	Delete(ctx context.Context, offerID int64) error
	// Query returns every document whose name or description contains the
	// term, case-insensitive.  An empty term matches everything.
	Query(ctx context.Context, term string) ([]Document, error)
}

// RedisStore keeps one JSON document per offer under search:offer:{id}.
// Queries scan the keyspace; the index is small enough that a full scan
// is cheap, and redis keeps it off the hot database path.
type RedisStore struct {
	Client *redis.Client
}

// NewRedisStore returns nil when the client is nil so callers degrade
// the same way the rest of the redis wiring does.
func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		return nil
	}
	return &RedisStore{Client: client}
}

func documentKey(offerID int64) string {
	return fmt.Sprintf("search:offer:%d", offerID)
}

func (s *RedisStore) Save(ctx context.Context, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, documentKey(doc.OfferID), body, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, offerID int64) error {
	return s.Client.Del(ctx, documentKey(offerID)).Err()
}

func (s *RedisStore) Query(ctx context.Context, term string) ([]Document, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	var (
		out    []Document
		cursor uint64
	)
	for {
		keys, next, err := s.Client.Scan(ctx, cursor, "search:offer:*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			raw, err := s.Client.Get(ctx, key).Result()
			if err == redis.Nil {
				continue // expired between scan and get
			}
			if err != nil {
				return nil, err
			}
			var doc Document
			if err := json.Unmarshal([]byte(raw), &doc); err != nil {
				continue // skip malformed entries rather than fail the query
			}
			if term == "" ||
				strings.Contains(strings.ToLower(doc.Name), term) ||
				strings.Contains(strings.ToLower(doc.Description), term) {
				out = append(out, doc)
			}
		}
		cursor = next
		if cursor == 0 {
			return out, nil
		}
	}
}
