package s3bucket

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hengadev/exprjson"
)

type mockS3Client struct {
	mock.Mock
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.PutObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.GetObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockS3Client) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.DeleteObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockS3Client) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.ListObjectsV2Output), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestStore(client *mockS3Client) *DocumentStore {
	return newStore(client, Config{Bucket: "exprs", Prefix: "v1/", Logger: exprjson.NewDiscardLogger()})
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{Bucket: " "})
	require.Error(t, err)
	assert.True(t, exprjson.IsConfigurationError(err))
}

func TestDocumentStore_Put(t *testing.T) {
	client := &mockS3Client{}
	body := []byte(`{"$schema":"x","expression":{}}`)

	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		data, err := io.ReadAll(in.Body)
		return err == nil &&
			aws.ToString(in.Bucket) == "exprs" &&
			aws.ToString(in.Key) == "v1/sum.json" &&
			aws.ToString(in.ContentType) == "application/json" &&
			aws.ToInt64(in.ContentLength) == int64(len(body)) &&
			in.Metadata["blake2b"] == exprjson.DocumentDigest(body) &&
			bytes.Equal(data, body)
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	require.NoError(t, newTestStore(client).Put(context.Background(), "sum.json", body))
	client.AssertExpectations(t)
}

func TestDocumentStore_PutFailure(t *testing.T) {
	client := &mockS3Client{}
	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied")).Once()

	err := newTestStore(client).Put(context.Background(), "sum.json", []byte("{}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://exprs/v1/sum.json")
	assert.Contains(t, err.Error(), "access denied")
}

func TestDocumentStore_Get(t *testing.T) {
	client := &mockS3Client{}
	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return aws.ToString(in.Key) == "v1/sum.json"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte("{}")))}, nil).Once()

	data, err := newTestStore(client).Get(context.Background(), "sum.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), data)
	client.AssertExpectations(t)
}

func TestDocumentStore_GetVerifiesDigest(t *testing.T) {
	client := &mockS3Client{}
	client.On("GetObject", mock.Anything, mock.Anything).Return(&s3.GetObjectOutput{
		Body:     io.NopCloser(bytes.NewReader([]byte(`{"tampered":true}`))),
		Metadata: map[string]string{"blake2b": exprjson.DocumentDigest([]byte("{}"))},
	}, nil).Once()

	_, err := newTestStore(client).Get(context.Background(), "sum.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, exprjson.ErrDocumentCorrupted)
}

func TestDocumentStore_GetMissing(t *testing.T) {
	client := &mockS3Client{}
	client.On("GetObject", mock.Anything, mock.Anything).Return(nil, &types.NoSuchKey{}).Once()

	_, err := newTestStore(client).Get(context.Background(), "gone.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, exprjson.ErrDocumentNotFound)
}

func TestDocumentStore_Delete(t *testing.T) {
	client := &mockS3Client{}
	client.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return aws.ToString(in.Bucket) == "exprs" && aws.ToString(in.Key) == "v1/sum.json"
	})).Return(&s3.DeleteObjectOutput{}, nil).Once()

	require.NoError(t, newTestStore(client).Delete(context.Background(), "sum.json"))
	client.AssertExpectations(t)
}

func TestDocumentStore_ListPages(t *testing.T) {
	client := &mockS3Client{}
	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.Prefix) == "v1/math/" && in.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		Contents:              []types.Object{{Key: aws.String("v1/math/add.json")}},
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("page-2"),
	}, nil).Once()
	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.ContinuationToken) == "page-2"
	})).Return(&s3.ListObjectsV2Output{
		Contents:    []types.Object{{Key: aws.String("v1/math/mul.json")}},
		IsTruncated: aws.Bool(false),
	}, nil).Once()

	keys, err := newTestStore(client).List(context.Background(), "math/")
	require.NoError(t, err)
	assert.Equal(t, []string{"math/add.json", "math/mul.json"}, keys)
	client.AssertExpectations(t)
}
