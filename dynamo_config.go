package postboard

import "log/slog"

type DynamoDBConfig struct {
	TableName         string
	Region            string
	Endpoint          string
	SkipTableCreation bool

	// Logger reports table provisioning. Nil falls back to slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

func NewDynamoDBConfig() *DynamoDBConfig {
	return &DynamoDBConfig{
		TableName: "postboard",
		Region:    "us-east-1",
	}
}

func (c *DynamoDBConfig) WithTableName(name string) *DynamoDBConfig {
	c.TableName = name
	return c
}

func (c *DynamoDBConfig) WithRegion(region string) *DynamoDBConfig {
	c.Region = region
	return c
}

// WithEndpoint points the client at a local DynamoDB (dynamodb-local, localstack).
func (c *DynamoDBConfig) WithEndpoint(endpoint string) *DynamoDBConfig {
	c.Endpoint = endpoint
	return c
}

func (c *DynamoDBConfig) WithSkipTableCreation(skip bool) *DynamoDBConfig {
	c.SkipTableCreation = skip
	return c
}

func (c *DynamoDBConfig) WithLogger(logger *slog.Logger) *DynamoDBConfig {
	c.Logger = logger
	return c
}

func (c *DynamoDBConfig) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
