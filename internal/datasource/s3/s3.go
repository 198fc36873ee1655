// Package s3 reads a single object from Amazon S3.
package s3

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-east-1"

// Source streams one S3 object.
type Source struct {
	bucket string
	key    string
	region string

	api s3iface.S3API
}

// NewSource returns a Source for s3://bucket/key. Credentials come from the
// usual AWS chain (environment, shared config, instance role).
func NewSource(bucket, key, region string) (*Source, error) {
	if region == "" {
		region = DefaultRegion
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, errors.Wrap(err, "getting new aws session")
	}
	return &Source{bucket: bucket, key: key, region: region, api: s3.New(sess)}, nil
}

// NewSourceWithAPI builds a Source on an existing client.
func NewSourceWithAPI(api s3iface.S3API, bucket, key string) *Source {
	return &Source{bucket: bucket, key: key, api: api}
}

// Name returns the object address.
func (s *Source) Name() string { return "s3://" + s.bucket + "/" + s.key }

// Open starts the object download.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := s.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "getting object %s", s.Name())
	}
	return out.Body, nil
}
