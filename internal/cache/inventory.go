package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix     = "user:%d"
	PostKeyPrefix     = "post:%d"
	FeedVersionKey    = "posts:list:version"
	FeedListKeyFormat = "posts:list:v%d:%d:%d"
	FactorySummaryKey = "factories:summary"
	TokenBlacklistKey = "blacklist:%s"
)

const (
	UserTTL    = 5 * time.Minute
	PostTTL    = 30 * time.Minute
	ListTTL    = 1 * time.Minute
	SummaryTTL = 15 * time.Second
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func BlacklistKey(jti string) string {
	return fmt.Sprintf(TokenBlacklistKey, jti)
}

// FeedListKey is versioned so one INCR invalidates every cached feed page.
func FeedListKey(ctx context.Context, limit, offset int) string {
	var version int64
	if client != nil {
		version, _ = client.Get(ctx, FeedVersionKey).Int64()
	}
	return fmt.Sprintf(FeedListKeyFormat, version, limit, offset)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidatePosts drops the given posts and every cached feed page.
func InvalidatePosts(ctx context.Context, postIDs ...uint) {
	if client == nil {
		return
	}
	keys := make([]string, 0, len(postIDs))
	for _, id := range postIDs {
		keys = append(keys, PostKey(id))
	}
	Invalidate(ctx, keys...)
	client.Incr(ctx, FeedVersionKey)
}

func InvalidateFactorySummary(ctx context.Context) {
	Invalidate(ctx, FactorySummaryKey)
}

// RevokeToken blacklists a token id until the token would have expired anyway.
func RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if client == nil || jti == "" {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	return client.Set(ctx, BlacklistKey(jti), "1", ttl).Err()
}

// IsTokenRevoked reports whether jti was blacklisted. Without Redis nothing is revoked.
func IsTokenRevoked(ctx context.Context, jti string) bool {
	if client == nil || jti == "" {
		return false
	}
	n, err := client.Exists(ctx, BlacklistKey(jti)).Result()
	return err == nil && n > 0
}
