// Package failstore is the durable, process-wide log of submission outcomes.
// Each logical queue is one Redis string holding a JSON array of entries,
// mirroring the flat keyed layout the pipeline has always used.
package failstore

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"lead-relay/internal/models"
)

// Queue keys. Pending-retry holds submissions whose delivery failed and await
// replay; sent-history is a best-effort audit trail of successful deliveries.
const (
	QueuePendingRetry = "queue:pending_retry"
	QueueSentHistory  = "queue:sent_history"
)

// Store reads and writes StoredEntry collections under named queue keys.
// Write failures are logged and swallowed: a store failure must never mask the
// transport error the caller is already handling.
type Store struct {
	client *redis.Client
}

func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Append reads the current list for the key, appends, and writes it back.
// Missing or corrupt stored data counts as an empty list.
func (s *Store) Append(ctx context.Context, queueKey string, entry models.StoredEntry) {
	entries := s.ReadAll(ctx, queueKey)
	entries = append(entries, entry)
	data, err := json.Marshal(entries)
	if err != nil {
		log.Printf("failstore: marshal %s: %v", queueKey, err)
		return
	}
	if err := s.client.Set(ctx, queueKey, data, 0).Err(); err != nil {
		log.Printf("failstore: write %s: %v", queueKey, err)
	}
}

// ReadAll returns every entry stored under the key, in insertion order. A
// missing key or a value that does not parse as a JSON array yields an empty
// slice, never an error.
func (s *Store) ReadAll(ctx context.Context, queueKey string) []models.StoredEntry {
	data, err := s.client.Get(ctx, queueKey).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		log.Printf("failstore: read %s: %v", queueKey, err)
		return nil
	}
	var entries []models.StoredEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Printf("failstore: corrupt data under %s, treating as empty: %v", queueKey, err)
		return nil
	}
	return entries
}

// Clear removes the queue.
func (s *Store) Clear(ctx context.Context, queueKey string) {
	if err := s.client.Del(ctx, queueKey).Err(); err != nil {
		log.Printf("failstore: clear %s: %v", queueKey, err)
	}
}

// Depth returns the number of entries under the key.
func (s *Store) Depth(ctx context.Context, queueKey string) int {
	return len(s.ReadAll(ctx, queueKey))
}
