// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// tree.go caches materialized comment trees per post. Entries are JSON
// and are dropped whenever a comment on the post is created or deleted.
// Each post also carries a generation counter that invalidation bumps; a
// tree is only stored if the generation read before loading it is still
// current, so a slow reader cannot overwrite a newer invalidation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"myblog/internal/models"
)

const (
	// treeKeyPrefix is the Valkey key prefix for cached comment trees.
	treeKeyPrefix = "comments:post:"

	// genKeyPrefix is the Valkey key prefix for per-post generations.
	genKeyPrefix = "comments:gen:"

	// genTTL bounds the lifetime of an idle generation counter.
	genTTL = 24 * time.Hour

	// DefaultTreeTTL is how long a comment tree stays cached.
	DefaultTreeTTL = 5 * time.Minute
)

// TreeCache manages comment-tree caching in Valkey. Failures are logged
// and treated as misses.
type TreeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTreeCache creates a tree cache backed by the given Valkey client.
func NewTreeCache(client *redis.Client, ttl time.Duration) *TreeCache {
	if ttl == 0 {
		ttl = DefaultTreeTTL
	}
	return &TreeCache{client: client, ttl: ttl}
}

// TreeKey returns the cache key for a post's comment tree.
func TreeKey(postID uuid.UUID) string {
	return treeKeyPrefix + postID.String()
}

// GenKey returns the key of a post's tree generation counter.
func GenKey(postID uuid.UUID) string {
	return genKeyPrefix + postID.String()
}

// setIfCurrent writes KEYS[1] only while KEYS[2] still holds ARGV[1]. A
// missing generation counts as "0".
var setIfCurrent = redis.NewScript(`
local cur = redis.call("GET", KEYS[2])
if cur == false then cur = "0" end
if cur ~= ARGV[1] then return 0 end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// Get returns the cached tree for a post. On a miss it returns the
// current generation, which the caller hands back to Set once it has
// loaded the tree. A generation of -1 means the cache is unusable and Set
// will not store anything.
func (tc *TreeCache) Get(ctx context.Context, postID uuid.UUID) ([]*models.CommentNode, int64, bool) {
	var treeCmd, genCmd *redis.StringCmd
	_, err := tc.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		treeCmd = p.Get(ctx, TreeKey(postID))
		genCmd = p.Get(ctx, GenKey(postID))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		slog.Warn("tree cache get error", "post_id", postID, "error", err)
		return nil, -1, false
	}

	gen, err := genCmd.Int64()
	if errors.Is(err, redis.Nil) {
		gen = 0
	} else if err != nil {
		slog.Warn("tree cache generation error", "post_id", postID, "error", err)
		return nil, -1, false
	}

	val, err := treeCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false
	}
	if err != nil {
		slog.Warn("tree cache get error", "post_id", postID, "error", err)
		return nil, -1, false
	}

	var tree []*models.CommentNode
	if err := json.Unmarshal(val, &tree); err != nil {
		slog.Warn("tree cache decode error", "post_id", postID, "error", err)
		return nil, gen, false
	}
	slog.Debug("tree cache hit", "post_id", postID)
	return tree, gen, true
}

// Set stores the tree for a post with the configured TTL, provided no
// invalidation happened since Get reported gen.
func (tc *TreeCache) Set(ctx context.Context, postID uuid.UUID, gen int64, tree []*models.CommentNode) {
	if gen < 0 {
		return
	}
	val, err := json.Marshal(tree)
	if err != nil {
		slog.Warn("tree cache encode error", "post_id", postID, "error", err)
		return
	}
	keys := []string{TreeKey(postID), GenKey(postID)}
	stored, err := setIfCurrent.Run(ctx, tc.client, keys, gen, val, tc.ttl.Milliseconds()).Int()
	if err != nil {
		slog.Warn("tree cache set error", "post_id", postID, "error", err)
		return
	}
	if stored == 0 {
		slog.Debug("tree cache set skipped, generation moved", "post_id", postID, "gen", gen)
	}
}

// Invalidate removes the cached tree for a post and bumps its generation
// so that in-flight loads are not stored.
func (tc *TreeCache) Invalidate(ctx context.Context, postID uuid.UUID) {
	_, err := tc.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, GenKey(postID))
		p.Expire(ctx, GenKey(postID), genTTL)
		p.Del(ctx, TreeKey(postID))
		return nil
	})
	if err != nil {
		slog.Warn("tree cache invalidate error", "post_id", postID, "error", err)
		return
	}
	slog.Debug("tree cache invalidated", "post_id", postID)
}
