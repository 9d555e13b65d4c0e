package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	HashStore
	KVStore
	SetStore
	SortedSetStore
	TxExecutor
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore reads hashes. Hash writes go through Tx.
type HashStore interface {
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// SetStore reads unordered sets.
type SetStore interface {
	SMembers(ctx context.Context, key string) ([]string, error)
	SCard(ctx context.Context, key string) (int64, error)
}

// ZEntry is a sorted-set member with its score.
type ZEntry struct {
	Member string
	Score  float64
}

// SortedSetStore reads sorted sets by rank.
type SortedSetStore interface {
	ZCard(ctx context.Context, key string) (int64, error)
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ZEntry, error)
}

// TxExecutor applies a batch of writes atomically (MULTI/EXEC).
type TxExecutor interface {
	Exec(ctx context.Context, tx *Tx) error
}

// IndexManager creates FT indexes. An existing index is ErrIndexExists.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
}

// Searcher provides vector search over FT indexes.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}
