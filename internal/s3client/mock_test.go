package s3client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// mockS3 implements API with overridable function fields.
type mockS3 struct {
	ListObjectsV2Func func(context.Context, *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error)
	HeadObjectFunc    func(context.Context, *s3.HeadObjectInput) (*s3.HeadObjectOutput, error)
	CopyObjectFunc    func(context.Context, *s3.CopyObjectInput) (*s3.CopyObjectOutput, error)
	GetObjectFunc     func(context.Context, *s3.GetObjectInput) (*s3.GetObjectOutput, error)

	mu    sync.Mutex
	calls []string
}

var _ API = (*mockS3)(nil)

func (m *mockS3) record(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op)
}

func (m *mockS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.record("ListObjectsV2")
	if m.ListObjectsV2Func != nil {
		return m.ListObjectsV2Func(ctx, params)
	}
	return &s3.ListObjectsV2Output{}, nil
}

func (m *mockS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.record("HeadObject")
	if m.HeadObjectFunc != nil {
		return m.HeadObjectFunc(ctx, params)
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(0)}, nil
}

func (m *mockS3) CopyObject(ctx context.Context, params *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	m.record("CopyObject")
	if m.CopyObjectFunc != nil {
		return m.CopyObjectFunc(ctx, params)
	}
	return &s3.CopyObjectOutput{}, nil
}

func (m *mockS3) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.record("GetObject")
	if m.GetObjectFunc != nil {
		return m.GetObjectFunc(ctx, params)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(nil))}, nil
}

// objectBody serves content for a single-part ranged GetObject.
func objectBody(content []byte) func(context.Context, *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
	return func(_ context.Context, _ *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		size := int64(len(content))
		return &s3.GetObjectOutput{
			Body:          io.NopCloser(bytes.NewReader(content)),
			ContentLength: aws.Int64(size),
			ContentRange:  aws.String(fmt.Sprintf("bytes 0-%d/%d", size-1, size)),
		}, nil
	}
}

func objectsPage(keys ...string) []types.Object {
	objects := make([]types.Object, 0, len(keys))
	for i, key := range keys {
		objects = append(objects, types.Object{
			Key:  aws.String(key),
			Size: aws.Int64(int64(100 * (i + 1))),
		})
	}
	return objects
}
