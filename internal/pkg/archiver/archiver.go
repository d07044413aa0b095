package archiver

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const FileExt = ".csv.gz"

var ErrFileAlreadyExists = errors.New("file already exists")

// ObjectAPI is the subset of *s3.Client the archiver needs.
type ObjectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ ObjectAPI = (*s3.Client)(nil)

type Archiver struct {
	S3Client ObjectAPI
	S3Bucket string

	// S3Prefix is for the files in the bucket with no leading slash but optionally (typically) with trailing slash
	// e.g. "uploads/" or simply "" (empty string)
	S3Prefix string
}

// Key returns the object key name would be stored at.
func (a *Archiver) Key(name string) string {
	return a.S3Prefix + name + FileExt
}

// Put gzips body and stores it under Key(name). An existing object is never
// overwritten; ErrFileAlreadyExists is returned instead.
func (a *Archiver) Put(ctx context.Context, name string, body []byte, metadata map[string]string) (string, error) {
	key := a.Key(name)

	if err := a.assertS3FileNonExistence(ctx, key); err != nil {
		return key, err
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(body); err != nil {
		return key, errors.Wrap(err, "failed to compress archive body")
	}
	if err := gz.Close(); err != nil {
		return key, errors.Wrap(err, "failed to finalize archive body")
	}

	_, err := a.S3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(a.S3Bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(buf.Bytes()),
		ContentType:     aws.String("text/csv"),
		ContentEncoding: aws.String("gzip"),
		Metadata:        metadata,
	})
	if err != nil {
		return key, errors.Wrap(err, "failed to invoke PutObject")
	}

	log.Debug().
		Str("evt.name", "archiver.put").
		Str("key", key).
		Int("size", buf.Len()).
		Msg("archived object")

	return key, nil
}

func (a *Archiver) assertS3FileNonExistence(ctx context.Context, key string) error {
	object, err := a.S3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) {
			if ae.ErrorCode() == "NotFound" {
				return nil
			}
		}
		return errors.Wrap(err, "failed to invoke HeadObject")
	}
	return errors.Wrap(ErrFileAlreadyExists, fmt.Sprintf("file \"%s\" already exists in s3 with LastModified \"%s\"", key, object.LastModified))
}
