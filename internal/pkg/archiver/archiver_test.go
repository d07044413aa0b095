package archiver

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBucket struct {
	objects map[string][]byte
	input   *s3.PutObjectInput
}

func (b *fakeBucket) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := b.objects[aws.ToString(params.Key)]; ok {
		return &s3.HeadObjectOutput{LastModified: aws.Time(time.Unix(0, 0))}, nil
	}
	return nil, &smithy.GenericAPIError{Code: "NotFound"}
}

func (b *fakeBucket) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	b.objects[aws.ToString(params.Key)] = body
	b.input = params
	return &s3.PutObjectOutput{}, nil
}

func TestPutCompressesUnderPrefixedKey(t *testing.T) {
	bucket := &fakeBucket{objects: map[string][]byte{}}
	a := &Archiver{S3Client: bucket, S3Bucket: "b", S3Prefix: "uploads/"}

	key, err := a.Put(context.Background(), "2026-10-18/01J", []byte("Type,Flowrate\nA,1\n"), map[string]string{"record-id": "1"})
	require.NoError(t, err)
	assert.Equal(t, "uploads/2026-10-18/01J.csv.gz", key)
	assert.Equal(t, "gzip", aws.ToString(bucket.input.ContentEncoding))
	assert.Equal(t, "1", bucket.input.Metadata["record-id"])

	gz, err := gzip.NewReader(bytes.NewReader(bucket.objects[key]))
	require.NoError(t, err)
	raw, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, "Type,Flowrate\nA,1\n", string(raw))
}

func TestPutRefusesToOverwrite(t *testing.T) {
	bucket := &fakeBucket{objects: map[string][]byte{"x.csv.gz": []byte("old")}}
	a := &Archiver{S3Client: bucket, S3Bucket: "b"}

	_, err := a.Put(context.Background(), "x", []byte("new"), nil)
	assert.True(t, errors.Is(err, ErrFileAlreadyExists))
	assert.Equal(t, []byte("old"), bucket.objects["x.csv.gz"])
}
