package blog

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"myblog/internal/models"
)

// memoryCache is an in-process TreeCache for tests. afterMiss, if set, runs
// once a Get has missed, before the caller loads the tree.
type memoryCache struct {
	mu        sync.Mutex
	trees     map[uuid.UUID][]*models.CommentNode
	gens      map[uuid.UUID]int64
	afterMiss func(postID uuid.UUID)
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		trees: make(map[uuid.UUID][]*models.CommentNode),
		gens:  make(map[uuid.UUID]int64),
	}
}

func (c *memoryCache) Get(_ context.Context, postID uuid.UUID) ([]*models.CommentNode, int64, bool) {
	c.mu.Lock()
	tree, ok := c.trees[postID]
	gen := c.gens[postID]
	hook := c.afterMiss
	c.mu.Unlock()

	if !ok && hook != nil {
		hook(postID)
	}
	return tree, gen, ok
}

func (c *memoryCache) Set(_ context.Context, postID uuid.UUID, gen int64, tree []*models.CommentNode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[postID] != gen {
		return
	}
	c.trees[postID] = tree
}

func (c *memoryCache) Invalidate(_ context.Context, postID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[postID]++
	delete(c.trees, postID)
}

func (c *memoryCache) cached(postID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.trees[postID]
	return ok
}
