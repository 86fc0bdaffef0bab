// Package s3src lists and streams source extracts stored under an S3 prefix.
package s3src

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// API is the subset of the S3 client used here.
type API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Object is one entry directly under the listed prefix.
type Object struct {
	// Key is the full object key.
	Key string
	// Name is the key with the prefix removed.
	Name string
	Size int64
}

// NewClient creates an S3 client using default AWS configuration.
func NewClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// IsURI reports whether s is an s3:// URI.
func IsURI(s string) bool {
	return strings.HasPrefix(s, "s3://")
}

// ParseURI parses an S3 URI (s3://bucket/prefix) into bucket and prefix.
// A non-empty prefix always ends in "/".
func ParseURI(uri string) (bucket, prefix string, err error) {
	if !IsURI(uri) {
		return "", "", errors.New("invalid S3 URI: must start with s3://")
	}

	p := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(p, "/", 2)
	if parts[0] == "" {
		return "", "", errors.New("invalid S3 URI: missing bucket name")
	}

	bucket = parts[0]
	if len(parts) == 2 {
		prefix = parts[1]
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return bucket, prefix, nil
}

// List returns the objects directly under prefix, in key order. Deeper keys
// are not listed.
func List(ctx context.Context, api API, bucket, prefix string) ([]Object, error) {
	p := s3.NewListObjectsV2Paginator(api, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var objects []Object
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			name := strings.TrimPrefix(key, prefix)
			// The prefix placeholder object itself
			if name == "" {
				continue
			}
			objects = append(objects, Object{
				Key:  key,
				Name: path.Base(name),
				Size: aws.ToInt64(obj.Size),
			})
		}
	}
	return objects, nil
}

// Open streams an object's body. The caller must close it.
func Open(ctx context.Context, api API, bucket, key string) (io.ReadCloser, error) {
	resp, err := api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object s3://%s/%s: %w", bucket, key, err)
	}
	return resp.Body, nil
}
