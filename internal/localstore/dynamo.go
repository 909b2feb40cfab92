package localstore

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client DynamoKV calls.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

const (
	attrKey   = "key"
	attrValue = "value"
)

// DynamoKV stores values in a table whose partition key is the string
// attribute "key". Keys are prefixed with the device namespace so several
// devices can share one table.
type DynamoKV struct {
	api       DynamoAPI
	table     string
	namespace string
}

func NewDynamoKV(api DynamoAPI, table, namespace string) *DynamoKV {
	return &DynamoKV{api: api, table: table, namespace: namespace}
}

// OpenDynamoKV builds a client from the default AWS credential chain.
func OpenDynamoKV(ctx context.Context, region, table, namespace string) (*DynamoKV, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	log.Printf("[storage] dynamodb store initialized (table: %s)", table)
	return NewDynamoKV(dynamodb.NewFromConfig(cfg), table, namespace), nil
}

func (d *DynamoKV) fullKey(key string) string {
	return d.namespace + "/" + key
}

func (d *DynamoKV) keyAttr(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrKey: &types.AttributeValueMemberS{Value: d.fullKey(key)},
	}
}

func (d *DynamoKV) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := d.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key:       d.keyAttr(key),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get %s: %w", key, err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}
	v, ok := out.Item[attrValue].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("dynamodb item %s has no string value", key)
	}
	return []byte(v.Value), nil
}

func (d *DynamoKV) Set(ctx context.Context, key string, value []byte) error {
	item := d.keyAttr(key)
	item[attrValue] = &types.AttributeValueMemberS{Value: string(value)}
	_, err := d.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb put %s: %w", key, err)
	}
	return nil
}

func (d *DynamoKV) Delete(ctx context.Context, key string) error {
	_, err := d.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.table),
		Key:       d.keyAttr(key),
	})
	if err != nil {
		return fmt.Errorf("dynamodb delete %s: %w", key, err)
	}
	return nil
}

// Clear deletes every item in this namespace, following scan pagination.
func (d *DynamoKV) Clear(ctx context.Context) error {
	var start map[string]types.AttributeValue
	for {
		out, err := d.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(d.table),
			ProjectionExpression:      aws.String("#k"),
			FilterExpression:          aws.String("begins_with(#k, :ns)"),
			ExpressionAttributeNames:  map[string]string{"#k": attrKey},
			ExpressionAttributeValues: map[string]types.AttributeValue{":ns": &types.AttributeValueMemberS{Value: d.namespace + "/"}},
			ExclusiveStartKey:         start,
		})
		if err != nil {
			return fmt.Errorf("dynamodb scan: %w", err)
		}
		for _, item := range out.Items {
			if _, err := d.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(d.table),
				Key:       map[string]types.AttributeValue{attrKey: item[attrKey]},
			}); err != nil {
				return fmt.Errorf("dynamodb clear: %w", err)
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			return nil
		}
		start = out.LastEvaluatedKey
	}
}
