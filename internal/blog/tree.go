package blog

import (
	"cmp"
	"slices"

	"github.com/google/uuid"

	"myblog/internal/models"
)

// BuildTree materializes the nested view of one post's comments.
//
// Roots are ordered newest first; replies at every depth oldest first.
// Comments whose parent is not in the input are dropped along with their
// descendants. The walk uses an explicit queue, so depth is bounded only
// by memory.
func BuildTree(comments []models.Comment) []*models.CommentNode {
	sorted := slices.Clone(comments)
	slices.SortStableFunc(sorted, func(a, b models.Comment) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})

	children := make(map[uuid.UUID][]*models.CommentNode)
	roots := []*models.CommentNode{}
	for _, c := range sorted {
		n := &models.CommentNode{Comment: c, Replies: []*models.CommentNode{}}
		if c.ParentID == nil {
			roots = append(roots, n)
		} else {
			children[*c.ParentID] = append(children[*c.ParentID], n)
		}
	}
	slices.Reverse(roots)

	visited := make(map[uuid.UUID]bool, len(sorted))
	queue := slices.Clone(roots)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if visited[n.ID] {
			continue
		}
		visited[n.ID] = true
		if kids, ok := children[n.ID]; ok {
			n.Replies = kids
			queue = append(queue, kids...)
		}
	}
	return roots
}
