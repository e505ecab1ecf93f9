// Package cache stores completion replies so identical one-off requests are
// answered without a network call.
//
// Two backends are available:
//   - RedisCache:  shared across processes, entries expire through Redis TTLs.
//   - MemoryCache: in-process TTL cache for single-user CLI sessions.
//
// Both implement Cache and are interchangeable.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nulpointcorp/agentkit/internal/providers"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Key returns a deterministic SHA-256 key for a completion request sent to
// provider. The provider tag is part of the key so two backends serving the
// same model id never share entries.
func Key(provider string, req *providers.CompletionRequest) string {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	msgs := make([]msg, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = msg{Role: m.Role, Content: m.Content}
	}
	data, _ := json.Marshal(struct {
		P    string `json:"p"`
		M    string `json:"m"`
		T    string `json:"t"`
		MT   int    `json:"mt"`
		Msgs []msg  `json:"msgs"`
	}{
		provider,
		req.Model,
		temperatureKey(req.Temperature),
		req.MaxTokens,
		msgs,
	})
	h := sha256.Sum256(data)
	return "completion:" + hex.EncodeToString(h[:])
}

func temperatureKey(t *float64) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *t)
}
