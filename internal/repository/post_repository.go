// Package repository holds the persistence backends behind the post store.
package repository

import (
	"context"
	"fmt"

	"github.com/klass-lk/postboard/internal/config"
	"github.com/klass-lk/postboard/internal/model"
)

// PostRepository persists posts. Save must never overwrite an existing id and
// FindAll must return posts in ascending id order.
type PostRepository interface {
	Save(ctx context.Context, post model.Post) error
	FindAll(ctx context.Context) ([]model.Post, error)
	Close(ctx context.Context) error
}

// IsExclusive reports whether repo's collection is reachable only from this
// process. Repositories opt in with an Exclusive() bool method; anything else
// is assumed to be shared with other processes.
func IsExclusive(repo PostRepository) bool {
	e, ok := repo.(interface{ Exclusive() bool })
	return ok && e.Exclusive()
}

const (
	BackendMemory   = "memory"
	BackendSQL      = "sql"
	BackendMongo    = "mongo"
	BackendDynamoDB = "dynamodb"
)

// New opens the backend selected in cfg.
func New(ctx context.Context, cfg config.StoreConfig) (PostRepository, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryPostRepository(), nil
	case BackendSQL:
		return NewSQLPostRepository(ctx, cfg.SQL)
	case BackendMongo:
		return NewMongoPostRepository(ctx, cfg.Mongo)
	case BackendDynamoDB:
		return NewDynamoDBPostRepository(ctx, cfg.DynamoDB)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
