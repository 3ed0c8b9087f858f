package repository

import (
	"context"

	"github.com/klass-lk/postboard"
	"github.com/klass-lk/postboard/internal/model"
)

type DynamoDBPostRepository struct {
	*postboard.DynamoDBRepository[model.Post]
}

func NewDynamoDBPostRepository(ctx context.Context, cfg *postboard.DynamoDBConfig) (*DynamoDBPostRepository, error) {
	client, err := postboard.NewDynamoDBClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return newDynamoDBPostRepository(ctx, client, cfg)
}

func newDynamoDBPostRepository(ctx context.Context, client postboard.DynamoDBAPI, cfg *postboard.DynamoDBConfig) (*DynamoDBPostRepository, error) {
	repo, err := postboard.NewDynamoDBRepository[model.Post](ctx, client, cfg)
	if err != nil {
		return nil, err
	}
	return &DynamoDBPostRepository{DynamoDBRepository: repo}, nil
}

func (r *DynamoDBPostRepository) Close(_ context.Context) error {
	return nil
}
