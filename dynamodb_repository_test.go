package postboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type dynamoEntity struct {
	ID   uint64 `postboard:"id" json:"id"`
	Name string `json:"name"`
}

type MockDynamoDB struct {
	mock.Mock
}

func (m *MockDynamoDB) DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.DescribeTableOutput), args.Error(1)
}

func (m *MockDynamoDB) CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.CreateTableOutput), args.Error(1)
}

func (m *MockDynamoDB) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.PutItemOutput), args.Error(1)
}

func (m *MockDynamoDB) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.QueryOutput), args.Error(1)
}

func itemFor(t *testing.T, e dynamoEntity) map[string]types.AttributeValue {
	t.Helper()
	data, err := json.Marshal(e)
	require.NoError(t, err)
	item, err := attributevalue.MarshalMap(DynamoDBItem{PK: "dynamoEntity", Data: string(data)})
	require.NoError(t, err)
	return item
}

func TestNewDynamoDBRepository_ExistingTable(t *testing.T) {
	client := new(MockDynamoDB)
	client.On("DescribeTable", mock.Anything, mock.Anything).Return(&dynamodb.DescribeTableOutput{}, nil)

	repo, err := NewDynamoDBRepository[dynamoEntity](context.Background(), client, NewDynamoDBConfig())

	require.NoError(t, err)
	assert.Equal(t, "postboard", repo.tableName)
	client.AssertNotCalled(t, "CreateTable", mock.Anything, mock.Anything)
}

func TestNewDynamoDBRepository_CreatesMissingTable(t *testing.T) {
	client := new(MockDynamoDB)
	client.On("DescribeTable", mock.Anything, mock.Anything).
		Return(nil, &types.ResourceNotFoundException{Message: aws.String("no table")}).Once()
	client.On("CreateTable", mock.Anything, mock.MatchedBy(func(in *dynamodb.CreateTableInput) bool {
		return aws.ToString(in.TableName) == "posts-test" && len(in.KeySchema) == 2
	})).Return(&dynamodb.CreateTableOutput{}, nil)
	client.On("DescribeTable", mock.Anything, mock.Anything).Return(&dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{TableStatus: types.TableStatusActive},
	}, nil)

	var logs bytes.Buffer
	cfg := NewDynamoDBConfig().
		WithTableName("posts-test").
		WithLogger(slog.New(slog.NewJSONHandler(&logs, nil)))
	_, err := NewDynamoDBRepository[dynamoEntity](context.Background(), client, cfg)

	require.NoError(t, err)
	client.AssertExpectations(t)
	assert.Contains(t, logs.String(), `"msg":"dynamodb table does not exist, creating it"`)
	assert.Contains(t, logs.String(), `"table":"posts-test"`)
}

func TestNewDynamoDBRepository_SkipTableCreation(t *testing.T) {
	client := new(MockDynamoDB)

	_, err := NewDynamoDBRepository[dynamoEntity](context.Background(), client, NewDynamoDBConfig().WithSkipTableCreation(true))

	require.NoError(t, err)
	client.AssertNotCalled(t, "DescribeTable", mock.Anything, mock.Anything)
}

func TestNewDynamoDBRepository_DescribeFails(t *testing.T) {
	client := new(MockDynamoDB)
	client.On("DescribeTable", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	_, err := NewDynamoDBRepository[dynamoEntity](context.Background(), client, NewDynamoDBConfig())

	assert.ErrorContains(t, err, "access denied")
}

func TestDynamoDBRepository_Save(t *testing.T) {
	client := new(MockDynamoDB)
	repo := &DynamoDBRepository[dynamoEntity]{client: client, tableName: "posts"}

	var captured *dynamodb.PutItemInput
	client.On("PutItem", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(*dynamodb.PutItemInput)
	}).Return(&dynamodb.PutItemOutput{}, nil)

	require.NoError(t, repo.Save(context.Background(), dynamoEntity{ID: 42, Name: "x"}))

	require.NotNil(t, captured)
	assert.Equal(t, "attribute_not_exists(pk)", aws.ToString(captured.ConditionExpression))

	var item DynamoDBItem
	require.NoError(t, attributevalue.UnmarshalMap(captured.Item, &item))
	assert.Equal(t, "dynamoEntity", item.PK)
	assert.Equal(t, "00000000000000000042", item.SK)
	assert.JSONEq(t, `{"id":42,"name":"x"}`, item.Data)
}

func TestDynamoDBRepository_SaveConflict(t *testing.T) {
	client := new(MockDynamoDB)
	repo := &DynamoDBRepository[dynamoEntity]{client: client, tableName: "posts"}
	client.On("PutItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")})

	err := repo.Save(context.Background(), dynamoEntity{ID: 1})

	var condErr *types.ConditionalCheckFailedException
	assert.ErrorAs(t, err, &condErr)
}

func TestDynamoDBRepository_FindAllFollowsPages(t *testing.T) {
	client := new(MockDynamoDB)
	repo := &DynamoDBRepository[dynamoEntity]{client: client, tableName: "posts"}

	lastKey := map[string]types.AttributeValue{"pk": &types.AttributeValueMemberS{Value: "dynamoEntity"}}
	client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.ExclusiveStartKey == nil
	})).Return(&dynamodb.QueryOutput{
		Items:            []map[string]types.AttributeValue{itemFor(t, dynamoEntity{ID: 1, Name: "a"})},
		LastEvaluatedKey: lastKey,
	}, nil).Once()
	client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.ExclusiveStartKey != nil
	})).Return(&dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{itemFor(t, dynamoEntity{ID: 2, Name: "b"})},
	}, nil).Once()

	got, err := repo.FindAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []dynamoEntity{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}, got)
	client.AssertExpectations(t)
}

func TestDynamoDBRepository_FindAllEmpty(t *testing.T) {
	client := new(MockDynamoDB)
	repo := &DynamoDBRepository[dynamoEntity]{client: client, tableName: "posts"}
	client.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{}, nil)

	got, err := repo.FindAll(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDynamoDBRepository_SortKey(t *testing.T) {
	repo := &DynamoDBRepository[dynamoEntity]{}

	sk1, err := repo.getSK(dynamoEntity{ID: 9})
	require.NoError(t, err)
	sk2, err := repo.getSK(dynamoEntity{ID: 10})
	require.NoError(t, err)

	assert.Less(t, sk1, sk2, "sort keys must order numerically")

	type noID struct{ Name string }
	_, err = (&DynamoDBRepository[noID]{}).getSK(noID{})
	assert.Error(t, err)
}
