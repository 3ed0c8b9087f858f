package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/klass-lk/postboard/internal/model"
)

type MemoryPostRepository struct {
	mu    sync.RWMutex
	posts []model.Post
	ids   map[uint64]struct{}
}

func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{ids: make(map[uint64]struct{})}
}

func (r *MemoryPostRepository) Save(_ context.Context, post model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ids[post.ID]; ok {
		return fmt.Errorf("post %d already exists", post.ID)
	}
	if n := len(r.posts); n > 0 && r.posts[n-1].ID > post.ID {
		return fmt.Errorf("post %d is older than last post %d", post.ID, r.posts[n-1].ID)
	}
	r.posts = append(r.posts, post)
	r.ids[post.ID] = struct{}{}
	return nil
}

func (r *MemoryPostRepository) FindAll(_ context.Context) ([]model.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Post, len(r.posts))
	copy(out, r.posts)
	return out, nil
}

// Exclusive is always true: the posts live in this process only.
func (r *MemoryPostRepository) Exclusive() bool {
	return true
}

func (r *MemoryPostRepository) Close(_ context.Context) error {
	return nil
}
