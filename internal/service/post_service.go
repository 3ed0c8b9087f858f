// Package service implements the post store: the authority for post ids and
// timestamps. Several services may share one durable backend; the backend's
// duplicate id rejection keeps ids unique across them.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/klass-lk/postboard"
	"github.com/klass-lk/postboard/internal/model"
	"github.com/klass-lk/postboard/internal/repository"
)

var errClosed = errors.New("store is closed")

// PostService serializes every create and list on one lock. Create holds the
// write lock across the repository write, so a list never sees a partial append
// and ids and timestamps are handed out in insertion order.
type PostService struct {
	mu     sync.RWMutex
	repo   repository.PostRepository
	now    func() time.Time
	logger *slog.Logger

	opened bool
	closed bool
	lastID uint64
	lastTS int64
}

func NewPostService(repo repository.PostRepository, now func() time.Time, logger *slog.Logger) *PostService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostService{repo: repo, now: now, logger: logger}
}

// Open reads the persisted collection so ids and timestamps continue where the
// previous process left off.
func (s *PostService) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return postboard.StoreUnavailableError.Wrap(errClosed)
	}
	n, err := s.syncLocked(ctx)
	if err != nil {
		return postboard.StoreUnavailableError.Wrap(fmt.Errorf("load posts: %w", err))
	}
	s.opened = true
	s.logger.Info("post store opened", "posts", n, "last_id", s.lastID)
	return nil
}

// syncLocked raises lastID and lastTS to the newest persisted post and returns
// the collection size.
func (s *PostService) syncLocked(ctx context.Context) (int, error) {
	posts, err := s.repo.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	for _, p := range posts {
		if p.ID > s.lastID {
			s.lastID = p.ID
		}
		if p.Timestamp > s.lastTS {
			s.lastTS = p.Timestamp
		}
	}
	return len(posts), nil
}

// Close releases the repository. Later calls fail with StoreUnavailableError.
func (s *PostService) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.repo.Close(ctx)
}

// List returns every post, oldest first. An empty store yields an empty slice.
func (s *PostService) List(ctx context.Context) ([]model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkUsable(); err != nil {
		return nil, err
	}
	posts, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("list posts", "err", err)
		return nil, postboard.StoreUnavailableError.Wrap(err)
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return posts, nil
}

// Create validates the fields, assigns the next id and a timestamp no earlier
// than the previous post's, and persists the post. On any failure no post is
// stored.
func (s *PostService) Create(ctx context.Context, title, body, author string) (model.Post, error) {
	post := model.Post{
		Title:  strings.TrimSpace(title),
		Body:   strings.TrimSpace(body),
		Author: strings.TrimSpace(author),
	}
	if err := Validate(post.Title, post.Body, post.Author); err != nil {
		return model.Post{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUsable(); err != nil {
		return model.Post{}, err
	}

	err := s.saveNextLocked(ctx, &post)
	if err != nil {
		// Another process sharing the backend may have taken the id. Catch up
		// with the collection and try once more; if nothing moved, the failure
		// is the backend's own.
		before := s.lastID
		if _, syncErr := s.syncLocked(ctx); syncErr == nil && s.lastID > before {
			s.logger.Info("post ids advanced elsewhere, retrying", "from", before, "to", s.lastID)
			err = s.saveNextLocked(ctx, &post)
		}
	}
	if err != nil {
		s.logger.Error("create post", "id", post.ID, "err", err)
		return model.Post{}, postboard.StoreUnavailableError.Wrap(err)
	}

	s.lastID = post.ID
	s.lastTS = post.Timestamp
	s.logger.Debug("post created", "id", post.ID, "author", post.Author)
	return post, nil
}

func (s *PostService) saveNextLocked(ctx context.Context, post *model.Post) error {
	post.ID = s.lastID + 1
	post.Timestamp = s.now().UnixNano()
	if post.Timestamp < s.lastTS {
		post.Timestamp = s.lastTS
	}
	return s.repo.Save(ctx, *post)
}

// Version is the id of the newest post this service has seen, 0 when empty.
// It moves on every create made through this service; creates made by other
// processes sharing the backend only show up after the next id conflict.
func (s *PostService) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastID
}

// Exclusive reports whether no other process can write to the backend, which
// makes Version a complete record of every create.
func (s *PostService) Exclusive() bool {
	return repository.IsExclusive(s.repo)
}

func (s *PostService) checkUsable() error {
	if s.closed {
		return postboard.StoreUnavailableError.Wrap(errClosed)
	}
	if !s.opened {
		return postboard.StoreUnavailableError.Wrap(errors.New("store is not open"))
	}
	return nil
}

// Validate reports the first field that is empty after trimming, in title, body,
// author order.
func Validate(title, body, author string) error {
	for _, field := range []struct{ name, value string }{
		{"title", title},
		{"body", body},
		{"author", author},
	} {
		if strings.TrimSpace(field.value) == "" {
			return postboard.ValidationError.New(field.name)
		}
	}
	return nil
}
