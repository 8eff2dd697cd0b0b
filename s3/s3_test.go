package s3_test

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sagarc03/fragments"
	fs3 "github.com/sagarc03/fragments/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is an in-memory bucket. Multipart calls are never made for the
// small payloads used here.
type fakeClient struct {
	mu      sync.Mutex
	objects map[string][]byte
	buckets map[string]bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{objects: map[string][]byte{}, buckets: map[string]bool{}}
}

func (c *fakeClient) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (c *fakeClient) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (c *fakeClient) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (c *fakeClient) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (c *fakeClient) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := aws.ToString(in.Prefix)
	var keys []string
	for k := range c.objects {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func (c *fakeClient) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if !c.buckets[aws.ToString(in.Bucket)] {
		return nil, &types.NotFound{}
	}
	return &s3.HeadBucketOutput{}, nil
}

func (c *fakeClient) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	c.buckets[aws.ToString(in.Bucket)] = true
	return &s3.CreateBucketOutput{}, nil
}

func (c *fakeClient) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	panic("unexpected multipart upload")
}

func (c *fakeClient) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	panic("unexpected multipart upload")
}

func (c *fakeClient) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	panic("unexpected multipart upload")
}

func (c *fakeClient) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	panic("unexpected multipart upload")
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := fs3.New(context.Background(), fs3.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket name is required")
}

func TestStore_PutGet(t *testing.T) {
	client := newFakeClient()
	store := fs3.NewWithClient(client, "bucket", "/fragments/")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "owner", "id1", []byte("hello")))

	assert.Contains(t, client.objects, "fragments/owner/id1")

	data, err := store.Get(ctx, "owner", "id1")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestStore_Get_NotFound(t *testing.T) {
	store := fs3.NewWithClient(newFakeClient(), "bucket", "")

	_, err := store.Get(context.Background(), "owner", "missing")
	assert.ErrorIs(t, err, fragments.ErrNotFound)
}

func TestStore_Put_InvalidKey(t *testing.T) {
	store := fs3.NewWithClient(newFakeClient(), "bucket", "")

	err := store.Put(context.Background(), "owner", "../x", []byte("x"))
	assert.ErrorIs(t, err, fragments.ErrInvalidInput)
}

func TestStore_Delete(t *testing.T) {
	store := fs3.NewWithClient(newFakeClient(), "bucket", "")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "owner", "id1", []byte("hello")))
	require.NoError(t, store.Delete(ctx, "owner", "id1"))

	err := store.Delete(ctx, "owner", "id1")
	assert.ErrorIs(t, err, fragments.ErrNotFound)
}

func TestStore_List(t *testing.T) {
	client := newFakeClient()
	store := fs3.NewWithClient(client, "bucket", "pfx")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "alice", "a", []byte("1")))
	require.NoError(t, store.Put(ctx, "bob", "b", []byte("2")))

	client.objects["pfx/stray"] = []byte("not a fragment")
	client.objects["other/alice/c"] = []byte("outside prefix")

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []fragments.BlobKey{
		{OwnerID: "alice", ID: "a"},
		{OwnerID: "bob", ID: "b"},
	}, keys)
}
