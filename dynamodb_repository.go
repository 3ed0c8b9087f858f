package postboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBItem is the single-table envelope: pk is the entity type name, sk the
// entity id, data the JSON encoded entity.
type DynamoDBItem struct {
	PK        string `dynamodbav:"pk"`
	SK        string `dynamodbav:"sk"`
	Data      string `dynamodbav:"data"`
	CreatedAt int64  `dynamodbav:"createdAt"`
}

// DynamoDBRepository stores entities of one type under a single partition.
// Numeric ids are zero padded in the sort key so queries come back in id order.
type DynamoDBRepository[T any] struct {
	client    DynamoDBAPI
	tableName string
}

func NewDynamoDBRepository[T any](ctx context.Context, client DynamoDBAPI, cfg *DynamoDBConfig) (*DynamoDBRepository[T], error) {
	repo := &DynamoDBRepository[T]{
		client:    client,
		tableName: cfg.TableName,
	}

	if cfg.SkipTableCreation {
		return repo, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	_, err := repo.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(repo.tableName),
	})
	if err == nil {
		return repo, nil
	}

	var notFoundEx *types.ResourceNotFoundException
	if !errors.As(err, &notFoundEx) {
		return nil, fmt.Errorf("describe table %s: %w", repo.tableName, err)
	}

	cfg.logger().Info("dynamodb table does not exist, creating it", "table", repo.tableName)
	if err := repo.CreateTable(ctx); err != nil {
		return nil, fmt.Errorf("create table %s: %w", repo.tableName, err)
	}
	return repo, nil
}

// Save writes doc only if no item with the same key exists.
func (r *DynamoDBRepository[T]) Save(ctx context.Context, doc T) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	sk, err := r.getSK(doc)
	if err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	item, err := attributevalue.MarshalMap(DynamoDBItem{
		PK:        r.getPK(doc),
		SK:        sk,
		Data:      string(data),
		CreatedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	return err
}

// FindAll returns every entity of T in sort key order, following pagination.
func (r *DynamoDBRepository[T]) FindAll(ctx context.Context) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var entity T
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: r.getPK(entity)},
		},
		ScanIndexForward: aws.Bool(true),
	}

	results := []T{}
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			var item DynamoDBItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, err
			}
			var result T
			if err := json.Unmarshal([]byte(item.Data), &result); err != nil {
				return nil, err
			}
			results = append(results, result)
		}
	}
	return results, nil
}

func (r *DynamoDBRepository[T]) getPK(entity T) string {
	typ := reflect.TypeOf(entity)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return typ.Name()
}

func (r *DynamoDBRepository[T]) getSK(entity T) (string, error) {
	val := reflect.ValueOf(entity)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	typ := val.Type()

	for i := 0; i < typ.NumField(); i++ {
		if tag := typ.Field(i).Tag.Get("postboard"); tag != "id" {
			continue
		}
		field := val.Field(i)
		switch field.Kind() {
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return fmt.Sprintf("%020d", field.Uint()), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if field.Int() < 0 {
				return "", fmt.Errorf("negative id %d", field.Int())
			}
			return fmt.Sprintf("%020d", field.Int()), nil
		case reflect.String:
			return field.String(), nil
		default:
			return "", fmt.Errorf("unsupported id kind %s", field.Kind())
		}
	}

	return "", errors.New("postboard:\"id\" tag not found in struct")
}

func (r *DynamoDBRepository[T]) CreateTable(ctx context.Context) error {
	input := &dynamodb.CreateTableInput{
		TableName: aws.String(r.tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("pk"),
				AttributeType: types.ScalarAttributeTypeS,
			},
			{
				AttributeName: aws.String("sk"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("pk"),
				KeyType:       types.KeyTypeHash,
			},
			{
				AttributeName: aws.String("sk"),
				KeyType:       types.KeyTypeRange,
			},
		},
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(5),
			WriteCapacityUnits: aws.Int64(5),
		},
	}

	if _, err := r.client.CreateTable(ctx, input); err != nil {
		return err
	}

	waiter := dynamodb.NewTableExistsWaiter(r.client)
	return waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.tableName)}, time.Minute)
}
