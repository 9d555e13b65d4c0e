// Package valkey implements db.Store over rueidis for Valkey with valkey-search
// and for Redis 8+ (both speak FT.CREATE / FT.SEARCH KNN over hashes).
package valkey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/lograg/internal/db"
)

var _ db.Store = (*Store)(nil)

// Config holds connection parameters. Addrs with more than one entry make
// rueidis discover a cluster; record keys keep a tenant in one slot.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Store is the rueidis-backed db.Store used by the record repository and
// the embedding cache.
type Store struct {
	client rueidis.Client
}

// NewStore dials the server. Client-side caching stays off: records are
// written by every instance and read through FT.SEARCH, which is never cached.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("addrs is required")
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // parseKNNResult reads the RESP2 flat array
	})
	if err != nil {
		return nil, fmt.Errorf("connect %v: %w", cfg.Addrs, err)
	}
	return &Store{client: client}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return &db.Error{Op: "ping", Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() { s.client.Close() }

// WaitForReady pings until the server answers, backing off from 50ms up to
// one second between attempts, and gives up after timeout.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	delay := 50 * time.Millisecond
	var lastErr error
	for {
		if lastErr = s.Ping(ctx); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("database not ready after %s: %w", timeout, lastErr)
		case <-time.After(delay):
		}
		delay = min(2*delay, time.Second)
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder { return s.client.B() }

// isRedisErr reports a server-side error whose message contains substr, ignoring case.
func isRedisErr(err error, substr string) bool {
	if re, ok := rueidis.IsRedisErr(err); ok {
		return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
	}
	return false
}
