// Package auditlog implements the address space's mutation journal
// (SPEC_FULL supplemental feature 3): a Redis-backed, append-only record
// of every AddNodes/AddReferences/DeleteNodes/DeleteReferences call,
// published for operator observability. The in-memory node store remains
// authoritative (spec §4.1/§5) — this is a secondary sink, never consulted
// for correctness.
//
// Connection setup below mirrors redis/client.go's pattern in the teacher
// repo: a thin wrapper around *redis.Client with a named zap logger and a
// startup ping.
package auditlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Entry is one journal record.
type Entry struct {
	RequestID string    `json:"request_id"`
	At        time.Time `json:"at"`
	Operation string    `json:"operation"` // "AddNodes" | "AddReferences" | "DeleteNodes" | "DeleteReferences"
	Detail    string    `json:"detail"`
	Status    string    `json:"status"`
}

// Sink accepts journal entries. Append must not block the caller's writer
// section for long — RedisSink bounds its own call with a timeout and
// degrades to a logged warning on failure rather than propagating an error
// into the mutation path.
type Sink interface {
	Append(ctx context.Context, e Entry)
}

// Nop discards every entry; the default Sink when no audit backend is
// configured.
type Nop struct{}

func (Nop) Append(context.Context, Entry) {}

const (
	streamKey   = "addrspace:audit"
	channelKey  = "addrspace:audit:live"
	streamMaxLn = 10_000
)

// RedisSink publishes entries to a capped Redis stream (durable, bounded
// history) and fans them out over a Pub/Sub channel (live tail for
// operators), the same split the teacher's StringStore uses between
// durable documents and in-memory projection, just inverted: here Redis is
// the secondary projection and the in-memory graph is the source of
// truth.
type RedisSink struct {
	rdb *redis.Client
	log *zap.Logger
}

// NewRedisSink wraps an existing Redis client. Connectivity is checked
// with a short-timeout ping at construction, logged but not fatal.
func NewRedisSink(rdb *redis.Client, log *zap.Logger) *RedisSink {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("auditlog")

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis connectivity check failed; audit entries will be attempted regardless", zap.Error(err))
	}

	return &RedisSink{rdb: rdb, log: log}
}

// Append publishes e to the capped stream and the live channel. Failures
// are logged at Warn and swallowed: a broken audit sink must never fail
// the mutation it is observing.
func (s *RedisSink) Append(ctx context.Context, e Entry) {
	ctx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()

	data, err := json.Marshal(e)
	if err != nil {
		s.log.Warn("marshal audit entry", zap.Error(err))
		return
	}

	if err := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey,
		MaxLen: streamMaxLn,
		Approx: true,
		Values: map[string]any{"payload": data},
	}).Err(); err != nil {
		s.log.Warn("xadd audit entry", zap.Error(err))
	}

	if err := s.rdb.Publish(ctx, channelKey, data).Err(); err != nil {
		s.log.Warn("publish audit entry", zap.Error(err))
	}
}
