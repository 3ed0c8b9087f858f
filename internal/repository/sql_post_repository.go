package repository

import (
	"context"
	"fmt"

	"github.com/klass-lk/postboard"
	"github.com/klass-lk/postboard/internal/model"
)

type SQLPostRepository struct {
	*postboard.SQLRepository[model.Post]
}

func NewSQLPostRepository(ctx context.Context, cfg *postboard.SQLConfig) (*SQLPostRepository, error) {
	db, err := cfg.Connect(ctx)
	if err != nil {
		return nil, err
	}
	repo := &SQLPostRepository{SQLRepository: postboard.NewSQLRepository[model.Post](db)}
	if err := repo.CreateTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("create posts table: %w", err)
	}
	return repo, nil
}

func (r *SQLPostRepository) FindAll(ctx context.Context) ([]model.Post, error) {
	return r.SQLRepository.FindAll(ctx, "id")
}

func (r *SQLPostRepository) Close(_ context.Context) error {
	return r.DB().Close()
}
