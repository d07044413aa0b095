package service

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/oklog/ulid/v2"

	"equipviz.dev/backend/internal/app/appconfig"
	"equipviz.dev/backend/internal/constant"
	"equipviz.dev/backend/internal/model"
	"equipviz.dev/backend/internal/pkg/archiver"
)

// Archive keeps the raw payload of every accepted upload in object storage.
type Archive struct {
	Archiver *archiver.Archiver
}

func NewArchive(client *s3.Client, conf *appconfig.Config) *Archive {
	return &Archive{
		Archiver: &archiver.Archiver{
			S3Client: client,
			S3Bucket: conf.ArchiveS3Bucket,
			S3Prefix: constant.ArchiveKeyPrefix,
		},
	}
}

// Store uploads raw under uploads/<date>/<ulid>. The ULID carries the upload
// time, so keys sort chronologically within a day.
func (s *Archive) Store(ctx context.Context, record *model.SummaryRecord, payloadHash string, raw []byte) (string, error) {
	id, err := ulid.New(ulid.Timestamp(record.UploadedAt), ulid.DefaultEntropy())
	if err != nil {
		return "", err
	}

	name := record.UploadedAt.UTC().Format("2006-01-02") + "/" + id.String()
	return s.Archiver.Put(ctx, name, raw, map[string]string{
		"record-id":    strconv.FormatInt(record.ID, 10),
		"payload-hash": payloadHash,
	})
}
