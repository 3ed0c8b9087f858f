package repository

import (
	"context"

	"github.com/klass-lk/postboard"
	"github.com/klass-lk/postboard/internal/model"
)

type MongoPostRepository struct {
	*postboard.MongoRepository[model.Post]
	disconnect func(context.Context) error
}

func NewMongoPostRepository(ctx context.Context, cfg *postboard.MongoConfig) (*MongoPostRepository, error) {
	db, err := cfg.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return &MongoPostRepository{
		MongoRepository: postboard.NewMongoRepository[model.Post](db),
		disconnect:      db.Client().Disconnect,
	}, nil
}

func (r *MongoPostRepository) Close(ctx context.Context) error {
	return r.disconnect(ctx)
}
