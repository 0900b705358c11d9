package s3sink

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dekarrin/sentgen/internal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	bucket string
	key    string
	body   string
	calls  int
	err    error
}

func (m *mockClient) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	m.bucket = *params.Bucket
	m.key = *params.Key
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	m.body = string(data)
	return &s3.PutObjectOutput{}, nil
}

func Test_ParseLocation(t *testing.T) {
	testCases := []struct {
		name         string
		input        string
		expectBucket string
		expectKey    string
		expectErr    bool
	}{
		{name: "bucket and key", input: "lists/cs_sentences.txt", expectBucket: "lists", expectKey: "cs_sentences.txt"},
		{name: "nested key", input: "lists/2024/cs.txt", expectBucket: "lists", expectKey: "2024/cs.txt"},
		{name: "s3 url", input: "s3://lists/cs.txt", expectBucket: "lists", expectKey: "cs.txt"},
		{name: "no key", input: "lists", expectErr: true},
		{name: "empty key", input: "lists/", expectErr: true},
		{name: "empty bucket", input: "/cs.txt", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			bucket, key, err := ParseLocation(tc.input)
			if tc.expectErr {
				assert.Error(err)
				return
			}
			assert.NoError(err)
			assert.Equal(tc.expectBucket, bucket)
			assert.Equal(tc.expectKey, key)
		})
	}
}

func Test_Sink_Close_Uploads(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	client := &mockClient{}

	s := New(client, "lists", "cf.txt")
	_, err := s.Write(ctx, export.Record{Text: "Euler sings."})
	require.NoError(t, err)
	_, err = s.Write(ctx, export.Record{Text: "Gauss reads."})
	require.NoError(t, err)

	assert.Equal(0, client.calls)
	require.NoError(t, s.Close())

	assert.Equal(1, client.calls)
	assert.Equal("lists", client.bucket)
	assert.Equal("cf.txt", client.key)
	assert.Equal("Euler sings.\nGauss reads.\n", client.body)
}

func Test_Sink_Close_Error(t *testing.T) {
	client := &mockClient{err: errors.New("access denied")}

	s := New(client, "lists", "cf.txt")
	err := s.Close()

	assert.ErrorContains(t, err, "access denied")
}
