package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/graphpart/blobstore"
)

// metaBlobName is the dataset meta record; writing it marks a partition
// directory complete.
const metaBlobName = "META"

// ErrConcurrentCommit is returned when another writer committed the same
// dataset concurrently.
var ErrConcurrentCommit = errors.New("s3: concurrent commit detected")

// DDBClient is the subset of the DynamoDB API the commit store uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// CommitStore wraps an S3 Store and uses DynamoDB as a commit marker for
// the META record.
//
// A partition directory is only valid once META exists (readers treat
// "META present" as "all shards fully written"). On a filesystem the
// write-temp-then-rename dance gives that guarantee for free; S3 has no
// rename and a crashed partition job can leave a directory that looks
// complete to a HeadObject probe. The commit store closes that gap:
//
//   - META content is written to S3 like any other blob
//   - a conditional DynamoDB PutItem then atomically records the commit;
//     the condition fails if another writer already committed
//   - readers resolve META through the marker, so an uncommitted
//     directory reads as blobstore.ErrNotFound
//
// Table schema: partition key `base_uri` (string). Create with:
//
//	aws dynamodb create-table \
//	  --table-name graphpart-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S \
//	  --key-schema AttributeName=base_uri,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
type CommitStore struct {
	inner     *Store
	ddb       DDBClient
	tableName string
	baseURI   string
}

// NewCommitStore creates a commit-marked S3 store.
// baseURI should be "s3://bucket/prefix", used as the marker partition key.
func NewCommitStore(inner *Store, ddb DDBClient, tableName, baseURI string) *CommitStore {
	return &CommitStore{inner: inner, ddb: ddb, tableName: tableName, baseURI: baseURI}
}

// Open opens a blob for reading. META resolves through the commit marker.
func (s *CommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if name == metaBlobName {
		committed, err := s.committed(ctx)
		if err != nil {
			return nil, err
		}
		if !committed {
			return nil, blobstore.ErrNotFound
		}
	}
	return s.inner.Open(ctx, name)
}

// Create creates a blob for streaming writes. Creating META directly is
// rejected; META must go through Put so the commit marker stays in step.
func (s *CommitStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	if name == metaBlobName {
		return nil, fmt.Errorf("s3: META must be written via Put")
	}
	return s.inner.Create(ctx, name)
}

// Put writes a blob. For META it additionally records the commit marker.
func (s *CommitStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.inner.Put(ctx, name, data); err != nil {
		return err
	}
	if name != metaBlobName {
		return nil
	}
	return s.commit(ctx)
}

// Delete removes a blob.
func (s *CommitStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, name)
}

// List returns all blob names with the given prefix.
func (s *CommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func (s *CommitStore) commit(ctx context.Context) error {
	_, err := s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri":     &types.AttributeValueMemberS{Value: s.baseURI},
			"committed_at": &types.AttributeValueMemberN{Value: strconv.FormatInt(time.Now().UnixNano(), 10)},
		},
		ConditionExpression: aws.String("attribute_not_exists(base_uri)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("%w: %s", ErrConcurrentCommit, s.baseURI)
		}
		return err
	}
	return nil
}

func (s *CommitStore) committed(ctx context.Context) (bool, error) {
	out, err := s.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.baseURI},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, err
	}
	return len(out.Item) > 0, nil
}
