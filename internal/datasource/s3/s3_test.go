package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

type fakeS3 struct {
	s3iface.S3API

	objects map[string]string
	gotKey  string
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	f.gotKey = aws.StringValue(in.Bucket) + "/" + aws.StringValue(in.Key)
	body, ok := f.objects[f.gotKey]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestSourceOpen(t *testing.T) {
	t.Parallel()

	api := &fakeS3{objects: map[string]string{"taxi/raw/2024-01.parquet": "PAR1"}}

	rc, err := NewSourceWithAPI(api, "taxi", "raw/2024-01.parquet").Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "PAR1" {
		t.Fatalf("body = %q, want PAR1", b)
	}
}

func TestSourceOpen_MissingKeyNamesObject(t *testing.T) {
	t.Parallel()

	src := NewSourceWithAPI(&fakeS3{}, "taxi", "missing.parquet")
	_, err := src.Open(context.Background())
	if err == nil || !strings.Contains(err.Error(), "s3://taxi/missing.parquet") {
		t.Fatalf("err = %v, want error naming the object", err)
	}
}

func TestNewSource_DefaultRegion(t *testing.T) {
	t.Parallel()

	src, err := NewSource("taxi", "k", "")
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if src.region != DefaultRegion {
		t.Fatalf("region = %q, want %q", src.region, DefaultRegion)
	}
}
