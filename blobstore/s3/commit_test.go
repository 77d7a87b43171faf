package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/graphpart/blobstore"
)

// fakeS3 is an in-memory S3 implementation covering the calls the store
// issues for small objects.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) HeadObject(_ context.Context, params *awss3.HeadObjectInput, _ ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &s3types.NotFound{}
	}
	return &awss3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func (f *fakeS3) GetObject(_ context.Context, params *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	if r := aws.ToString(params.Range); r != "" {
		var start, end int64
		if _, err := fmt.Sscanf(r, "bytes=%d-%d", &start, &end); err != nil {
			return nil, err
		}
		if end >= int64(len(data)) {
			end = int64(len(data)) - 1
		}
		data = data[start : end+1]
	}
	return &awss3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (f *fakeS3) PutObject(_ context.Context, params *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(params.Key)] = data
	return &awss3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, params *awss3.DeleteObjectInput, _ ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(params.Key))
	return &awss3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, params *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := aws.ToString(params.Prefix)
	var contents []s3types.Object
	for key := range f.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			contents = append(contents, s3types.Object{Key: aws.String(key)})
		}
	}
	return &awss3.ListObjectsV2Output{Contents: contents}, nil
}

// Multipart calls: the small test payloads never exceed one part, so the
// uploader takes the PutObject path and these stay unreached.
func (f *fakeS3) UploadPart(context.Context, *awss3.UploadPartInput, ...func(*awss3.Options)) (*awss3.UploadPartOutput, error) {
	return nil, fmt.Errorf("fakeS3: multipart upload not supported")
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *awss3.CreateMultipartUploadInput, ...func(*awss3.Options)) (*awss3.CreateMultipartUploadOutput, error) {
	return nil, fmt.Errorf("fakeS3: multipart upload not supported")
}

func (f *fakeS3) CompleteMultipartUpload(context.Context, *awss3.CompleteMultipartUploadInput, ...func(*awss3.Options)) (*awss3.CompleteMultipartUploadOutput, error) {
	return nil, fmt.Errorf("fakeS3: multipart upload not supported")
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *awss3.AbortMultipartUploadInput, ...func(*awss3.Options)) (*awss3.AbortMultipartUploadOutput, error) {
	return nil, fmt.Errorf("fakeS3: multipart upload not supported")
}

// fakeDDB implements the conditional-put semantics the commit marker
// relies on.
type fakeDDB struct {
	mu    sync.Mutex
	items map[string]struct{}
}

func newFakeDDB() *fakeDDB {
	return &fakeDDB{items: make(map[string]struct{})}
}

func ddbKey(av map[string]ddbtypes.AttributeValue) string {
	if v, ok := av["base_uri"].(*ddbtypes.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (f *fakeDDB) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ddbKey(params.Item)
	if _, exists := f.items[key]; exists {
		return nil, &ddbtypes.ConditionalCheckFailedException{}
	}
	f.items[key] = struct{}{}
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDDB) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ddbKey(params.Key)
	if _, exists := f.items[key]; !exists {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{
		Item: map[string]ddbtypes.AttributeValue{
			"base_uri": &ddbtypes.AttributeValueMemberS{Value: key},
		},
	}, nil
}

func newCommitStore(t *testing.T) (*CommitStore, *fakeS3, *fakeDDB) {
	t.Helper()
	s3c := newFakeS3()
	ddb := newFakeDDB()
	inner := NewStore(s3c, "bucket", "datasets/test")
	return NewCommitStore(inner, ddb, "graphpart-commits", "s3://bucket/datasets/test"), s3c, ddb
}

func TestCommitStoreMetaLifecycle(t *testing.T) {
	ctx := context.Background()
	cs, _, _ := newCommitStore(t)

	// Regular blobs pass straight through.
	require.NoError(t, cs.Put(ctx, "part0/graph/rows.pt", []byte("rows")))

	// META is invisible until committed.
	_, err := cs.Open(ctx, "META")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, cs.Put(ctx, "META", []byte(`{"num_parts":2}`)))

	blob, err := cs.Open(ctx, "META")
	require.NoError(t, err)
	defer blob.Close()
	assert.Equal(t, int64(len(`{"num_parts":2}`)), blob.Size())
}

func TestCommitStoreDetectsConcurrentCommit(t *testing.T) {
	ctx := context.Background()
	s3c := newFakeS3()
	ddb := newFakeDDB()

	cs1 := NewCommitStore(NewStore(s3c, "bucket", "d"), ddb, "commits", "s3://bucket/d")
	cs2 := NewCommitStore(NewStore(s3c, "bucket", "d"), ddb, "commits", "s3://bucket/d")

	require.NoError(t, cs1.Put(ctx, "META", []byte("{}")))

	err := cs2.Put(ctx, "META", []byte("{}"))
	assert.ErrorIs(t, err, ErrConcurrentCommit)
}

func TestCommitStoreRejectsMetaCreate(t *testing.T) {
	ctx := context.Background()
	cs, _, _ := newCommitStore(t)

	_, err := cs.Create(ctx, "META")
	assert.Error(t, err)
}
