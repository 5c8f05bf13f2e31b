package core

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Operation names used as counter suffixes.
const (
	OpStore  = "store"
	OpDelete = "delete"
	OpHash   = "hash"

	metricsPrefix = "simplefile:"
)

var metricOps = []string{OpStore, OpDelete, OpHash}

// MetricsClient is the subset of go-redis used for counters.
type MetricsClient interface {
	TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

// OpCounters is a snapshot of operation counts.
type OpCounters struct {
	Store       int64 `json:"store"`
	Delete      int64 `json:"delete"`
	Hash        int64 `json:"hash"`
	BytesStored int64 `json:"bytes_stored"`
}

// StorageMetrics keeps per-user and global operation counters in Redis.
// A nil *StorageMetrics is valid and records nothing.
type StorageMetrics struct {
	redis MetricsClient
}

func NewStorageMetrics(client MetricsClient) *StorageMetrics {
	return &StorageMetrics{redis: client}
}

func globalOpKey(op string) string { return metricsPrefix + "ops:" + op }

func userOpKey(username, op string) string {
	return metricsPrefix + "user:" + username + ":ops:" + op
}

func globalBytesKey() string { return metricsPrefix + "bytes_stored" }

func userBytesKey(username string) string {
	return metricsPrefix + "user:" + username + ":bytes_stored"
}

// Record increments the counters for one successful operation.
// bytes is only meaningful for OpStore.
func (m *StorageMetrics) Record(ctx context.Context, username, op string, bytes int64) error {
	if m == nil || m.redis == nil {
		return nil
	}
	_, err := m.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, globalOpKey(op))
		p.Incr(ctx, userOpKey(username, op))
		if op == OpStore && bytes > 0 {
			p.IncrBy(ctx, globalBytesKey(), bytes)
			p.IncrBy(ctx, userBytesKey(username), bytes)
		}
		return nil
	})
	return err
}

// Snapshot returns the counters of username and the global totals.
func (m *StorageMetrics) Snapshot(ctx context.Context, username string) (user OpCounters, global OpCounters, err error) {
	if m == nil || m.redis == nil {
		return OpCounters{}, OpCounters{}, nil
	}
	keys := make([]string, 0, 2*(len(metricOps)+1))
	for _, op := range metricOps {
		keys = append(keys, userOpKey(username, op))
	}
	keys = append(keys, userBytesKey(username))
	for _, op := range metricOps {
		keys = append(keys, globalOpKey(op))
	}
	keys = append(keys, globalBytesKey())

	vals, err := m.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return OpCounters{}, OpCounters{}, err
	}
	n := len(metricOps) + 1
	return countersFrom(vals[:n]), countersFrom(vals[n:]), nil
}

// countersFrom maps MGET values in metricOps order followed by bytes.
func countersFrom(vals []interface{}) OpCounters {
	return OpCounters{
		Store:       parseCounter(vals[0]),
		Delete:      parseCounter(vals[1]),
		Hash:        parseCounter(vals[2]),
		BytesStored: parseCounter(vals[3]),
	}
}

func parseCounter(v interface{}) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
