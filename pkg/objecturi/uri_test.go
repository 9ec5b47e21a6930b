package objecturi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		uri         string
		wantErr     error
		errContains string
		want        *ObjectURI
	}{
		{
			name: "simple bucket",
			uri:  "s3://my-bucket",
			want: &ObjectURI{
				Provider: "s3",
				Bucket:   "my-bucket",
				Key:      "",
			},
		},
		{
			name: "bucket with trailing slash",
			uri:  "s3://my-bucket/",
			want: &ObjectURI{
				Provider: "s3",
				Bucket:   "my-bucket",
				Key:      "",
			},
		},
		{
			name: "bucket with key",
			uri:  "s3://my-bucket/path/to/object.txt",
			want: &ObjectURI{
				Provider: "s3",
				Bucket:   "my-bucket",
				Key:      "path/to/object.txt",
			},
		},
		{
			name: "bucket with prefix",
			uri:  "s3://my-bucket/path/to/prefix/",
			want: &ObjectURI{
				Provider: "s3",
				Bucket:   "my-bucket",
				Key:      "path/to/prefix/",
			},
		},
		{
			name: "uppercase S3 scheme",
			uri:  "S3://my-bucket/path",
			want: &ObjectURI{
				Provider: "s3",
				Bucket:   "my-bucket",
				Key:      "path",
			},
		},
		{
			name:        "empty URI",
			uri:         "",
			wantErr:     ErrInvalidURI,
			errContains: "empty",
		},
		{
			name:        "missing scheme",
			uri:         "my-bucket/path",
			wantErr:     ErrInvalidURI,
			errContains: "missing scheme",
		},
		{
			name:        "unsupported scheme",
			uri:         "gcs://my-bucket/path",
			wantErr:     ErrUnsupportedProvider,
			errContains: "gcs",
		},
		{
			name:        "missing bucket",
			uri:         "s3:///path",
			wantErr:     ErrMissingBucket,
			errContains: "missing bucket",
		},
		{
			name:        "http scheme not supported",
			uri:         "http://example.com/bucket",
			wantErr:     ErrUnsupportedProvider,
			errContains: "http",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.uri)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want.Provider, got.Provider)
			assert.Equal(t, tt.want.Bucket, got.Bucket)
			assert.Equal(t, tt.want.Key, got.Key)
		})
	}
}

func TestObjectURI_String(t *testing.T) {
	tests := []struct {
		name string
		uri  *ObjectURI
		want string
	}{
		{
			name: "bucket only",
			uri:  &ObjectURI{Provider: "s3", Bucket: "bucket"},
			want: "s3://bucket/",
		},
		{
			name: "bucket with key",
			uri:  &ObjectURI{Provider: "s3", Bucket: "bucket", Key: "path/to/file.txt"},
			want: "s3://bucket/path/to/file.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.uri.String()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestObjectURI_IsPrefix(t *testing.T) {
	tests := []struct {
		name string
		uri  *ObjectURI
		want bool
	}{
		{
			name: "empty key is prefix",
			uri:  &ObjectURI{Provider: "s3", Bucket: "bucket", Key: ""},
			want: true,
		},
		{
			name: "trailing slash is prefix",
			uri:  &ObjectURI{Provider: "s3", Bucket: "bucket", Key: "path/"},
			want: true,
		},
		{
			name: "no trailing slash is not prefix",
			uri:  &ObjectURI{Provider: "s3", Bucket: "bucket", Key: "path/file.txt"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.uri.IsPrefix()
			assert.Equal(t, tt.want, got)
		})
	}
}
