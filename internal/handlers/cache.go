package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	u "dmlabels/internal/utils"
)

const cacheKeyPrefix = "dmlabels:"

// cachedResult is what a conversion returns to the transport, and what is
// stored in Redis when the result cache is enabled.
type cachedResult struct {
	Preview []byte `json:"preview"`
	PDF     []byte `json:"pdf"`
	Pages   int    `json:"pages"`
	Symbols int    `json:"symbols"`
	BatchID string `json:"batch_id"`
}

// computeResultCacheKey creates a SHA256-based cache key from every input
// that affects the output.
func computeResultCacheKey(params *LabelRequestParams) string {
	h := sha256.New()
	for _, part := range []string{
		params.Text,
		params.Size,
		params.Page.Paper,
		params.Page.Orientation,
		params.Page.Margin,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// getCachedResult returns nil, nil on a cache miss.
func getCachedResult(ctx context.Context, rdb *redis.Client, key string) (*cachedResult, error) {
	ctxRedis, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	data, err := rdb.Get(ctxRedis, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		u.Warn("Redis read failed", "error", err)
		return nil, err
	}

	var out cachedResult
	if err := json.Unmarshal(data, &out); err != nil {
		u.Warn("Discarding unreadable cache entry", "key", key, "error", err)
		return nil, err
	}
	u.Info("Result cache hit", "key", key)
	return &out, nil
}

func setCachedResult(ctx context.Context, rdb *redis.Client, key string, res *cachedResult, ttl time.Duration) {
	ctxRedis, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	if ttl <= 0 {
		ttl = 1 * time.Minute
	}
	data, err := json.Marshal(res)
	if err != nil {
		u.Warn("Cache encode failed", "error", err)
		return
	}
	if err := rdb.Set(ctxRedis, key, data, ttl).Err(); err != nil {
		u.Warn("Redis write failed", "error", err)
	}
}
