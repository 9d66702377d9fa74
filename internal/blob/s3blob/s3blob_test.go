package s3blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/steviemul/offily/internal/blob"
)

// fakeS3 is an in-memory API implementation.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestWithPrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"prefix", "prefix/"},
		{"prefix/", "prefix/"},
		{"a/b/c", "a/b/c/"},
		{"a/b/c/", "a/b/c/"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var s settings
			WithPrefix(tt.input)(&s)
			if s.prefix != tt.want {
				t.Errorf("prefix = %q, want %q", s.prefix, tt.want)
			}
		})
	}
}

func TestBucket_RoundTrip(t *testing.T) {
	fake := newFakeS3()
	ctx := context.Background()

	b, err := New(ctx, "cache", WithClient(fake), WithPrefix("v1"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer b.Close()

	if err := b.Write(ctx, "store/objects/k", []byte("value")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, ok := fake.objects["cache/v1/store/objects/k"]; !ok {
		t.Errorf("object stored under unexpected key: %v", fake.objects)
	}

	got, err := b.Read(ctx, "store/objects/k")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(got) != "value" {
		t.Errorf("Read() = %q, want %q", got, "value")
	}

	if err := b.Delete(ctx, "store/objects/k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := b.Read(ctx, "store/objects/k"); !errors.Is(err, blob.ErrNotFound) {
		t.Errorf("Read() after Delete error = %v, want ErrNotFound", err)
	}
}
