// Package s3sink provides an export.Sink that uploads sentences as a single
// text object to Amazon S3.
package s3sink

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dekarrin/sentgen/internal/export"
	"github.com/dekarrin/sentgen/internal/export/textfile"
)

// PutObjectAPI is the part of the S3 client that the Sink uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Sink collects sentences in memory, one per line, and uploads them when
// flushed or closed.
type Sink struct {
	client PutObjectAPI
	bucket string
	key    string

	buf   *bytes.Buffer
	lines *textfile.Sink
}

// ParseLocation splits a location of the form "BUCKET/KEY".
func ParseLocation(loc string) (bucket, key string, err error) {
	loc = strings.TrimPrefix(loc, "s3://")
	bucket, key, ok := strings.Cut(loc, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 location %q; must be of form BUCKET/KEY", loc)
	}
	return bucket, key, nil
}

// New returns a Sink that uploads to the given bucket and key using client.
func New(client PutObjectAPI, bucket, key string) *Sink {
	buf := &bytes.Buffer{}
	return &Sink{
		client: client,
		bucket: bucket,
		key:    key,
		buf:    buf,
		lines:  textfile.New(buf),
	}
}

// Open returns a Sink for the given "BUCKET/KEY" location that uses the AWS
// configuration from the environment.
func Open(ctx context.Context, loc string) (*Sink, error) {
	bucket, key, err := ParseLocation(loc)
	if err != nil {
		return nil, err
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	return New(s3.NewFromConfig(cfg), bucket, key), nil
}

func (s *Sink) Write(ctx context.Context, r export.Record) (export.Record, error) {
	return s.lines.Write(ctx, r)
}

// Flush uploads everything written so far. The object is replaced on each
// flush.
func (s *Sink) Flush(ctx context.Context) error {
	if err := s.lines.Close(); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(s.buf.Bytes()),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("s3 put: %w", err)
	}
	return nil
}

// Close uploads the collected sentences.
func (s *Sink) Close() error {
	return s.Flush(context.Background())
}
