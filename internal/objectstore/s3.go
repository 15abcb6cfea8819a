// Package objectstore implements the S3-compatible upload client used by
// the audio-extract-and-upload adapter: push a local file under a
// configured prefix and hand back its public URL.
package objectstore

import (
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/mmsearch-dev/mmsearch/internal/apierr"
	"github.com/mmsearch-dev/mmsearch/internal/config"
)

// Uploader pushes local files to one configured bucket/prefix and returns
// their public URL.
type Uploader struct {
	client *s3.S3
	bucket string
	prefix string
	public string // public base URL (endpoint, or the regional S3 host); UploadFile appends bucket and key
}

// New constructs an Uploader from object store config.
func New(cfg config.ObjectStoreConfig) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, apierr.New(apierr.Service, "object store requires a bucket")
	}

	awsCfg := aws.NewConfig().
		WithRegion(cfg.Region).
		WithCredentials(credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, ""))
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, apierr.Wrap(apierr.Service, "failed to create object store session", err)
	}

	public := cfg.Endpoint
	if public == "" {
		public = fmt.Sprintf("https://s3.%s.amazonaws.com", cfg.Region)
	}

	return &Uploader{
		client: s3.New(sess),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		public: public,
	}, nil
}

// UploadFile uploads the file at localPath under "{prefix}/{key}" and
// returns its public URL.
func (u *Uploader) UploadFile(localPath, key string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", apierr.Wrap(apierr.MediaProcessing, "failed to open file for upload", err)
	}
	defer f.Close()

	objectKey := key
	if u.prefix != "" {
		objectKey = u.prefix + "/" + key
	}

	_, err = u.client.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(objectKey),
		Body:   f,
	})
	if err != nil {
		return "", apierr.Wrap(apierr.MediaProcessing, "failed to upload object", err)
	}

	return fmt.Sprintf("%s/%s/%s", u.public, u.bucket, objectKey), nil
}
