package transport

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodb_types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/soulpass/api/functions/gateway/helpers"
	"github.com/soulpass/api/functions/gateway/test_helpers"
	internal_types "github.com/soulpass/api/functions/gateway/types"
)

var (
	db     internal_types.DynamoDBAPI
	once   sync.Once
	testDB internal_types.DynamoDBAPI
)

func CreateDbClient() internal_types.DynamoDBAPI {
	// used for local dev via aws sam in docker container
	dbUrl := "http://localhost:8000"

	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if service == dynamodb.ServiceID && region == "us-east-1" {
			return aws.Endpoint{
				PartitionID:   "aws",
				URL:           dbUrl,
				SigningRegion: "us-east-1",
			}, nil
		}
		// returning EndpointNotFoundError will allow the service to fallback to it's default resolution
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		fmt.Println("Error loading default Dynamo client config", err)
	}

	if !helpers.IsRemoteDB() {
		localCredentials := config.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID: "local", SecretAccessKey: "local",
				Source: "local dev",
			},
		})
		cfg, err = config.LoadDefaultConfig(context.TODO(), config.WithEndpointResolverWithOptions(customResolver), localCredentials)
	}

	if err != nil {
		panic(err)
	}

	return &readRetryClient{inner: dynamodb.NewFromConfig(cfg)}
}

func SetTestDB(db internal_types.DynamoDBAPI) {
	testDB = db
}

func GetDB() internal_types.DynamoDBAPI {
	if os.Getenv("GO_ENV") == "test" {
		if testDB == nil {
			log.Println("Creating mock DB for testing")
			testDB = &test_helpers.MockDynamoDBClient{
				ScanFunc: func(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
					return &dynamodb.ScanOutput{
						Items: []map[string]dynamodb_types.AttributeValue{},
					}, nil
				},
			}
		}
		return testDB
	}
	once.Do(func() {
		db = CreateDbClient()
	})
	return db
}

// maxReadAttempts bounds the retry of read calls against transient store
// failures. Writes are never retried here: a replayed conditional write could
// mask a legitimate conflict or double-count an approval.
const maxReadAttempts = 3

type readRetryClient struct {
	inner internal_types.DynamoDBAPI
}

func retryRead[T any](ctx context.Context, call func() (T, error)) (T, error) {
	var out T
	var err error
	backoff := 100 * time.Millisecond
	for attempt := 1; attempt <= maxReadAttempts; attempt++ {
		out, err = call()
		if err == nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return out, err
		}
		if attempt == maxReadAttempts {
			break
		}
		log.Printf("ERR: transient read failure (attempt %d): %v", attempt, err)
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return out, err
}

func (c *readRetryClient) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return retryRead(ctx, func() (*dynamodb.ScanOutput, error) {
		return c.inner.Scan(ctx, params, optFns...)
	})
}

func (c *readRetryClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return retryRead(ctx, func() (*dynamodb.QueryOutput, error) {
		return c.inner.Query(ctx, params, optFns...)
	})
}

func (c *readRetryClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return retryRead(ctx, func() (*dynamodb.GetItemOutput, error) {
		return c.inner.GetItem(ctx, params, optFns...)
	})
}

func (c *readRetryClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return c.inner.PutItem(ctx, params, optFns...)
}

func (c *readRetryClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return c.inner.UpdateItem(ctx, params, optFns...)
}

func (c *readRetryClient) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	return c.inner.TransactWriteItems(ctx, params, optFns...)
}
