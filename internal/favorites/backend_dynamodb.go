package favorites

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"daily-joke/internal/config"
)

type preferenceItem struct {
	Key       string `dynamodbav:"pref_key"`
	Value     []byte `dynamodbav:"value"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

// DynamoDBBackend stores one item per key in a table whose partition key is pref_key.
type DynamoDBBackend struct {
	client    *dynamodb.Client
	tableName string
}

func NewDynamoDBBackend(client *dynamodb.Client, tableName string) *DynamoDBBackend {
	return &DynamoDBBackend{client: client, tableName: tableName}
}

// DialDynamoDB loads AWS credentials from the default chain.
func DialDynamoDB(ctx context.Context, cfg config.DynamoDBConfig) (*DynamoDBBackend, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewDynamoDBBackend(dynamodb.NewFromConfig(awsCfg), cfg.Table), nil
}

func (d *DynamoDBBackend) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"pref_key": &types.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	var item preferenceItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return item.Value, nil
}

func (d *DynamoDBBackend) Put(ctx context.Context, key string, value []byte) error {
	item, err := attributevalue.MarshalMap(preferenceItem{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put item: %w", err)
	}
	return nil
}

var _ Backend = (*DynamoDBBackend)(nil)
