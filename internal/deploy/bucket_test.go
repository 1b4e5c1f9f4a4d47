package deploy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeS3 struct {
	buckets []string
	err     error
}

func (f *fakeS3) ListBuckets(context.Context, *s3.ListBucketsInput, ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := &s3.ListBucketsOutput{}
	for _, name := range f.buckets {
		out.Buckets = append(out.Buckets, s3types.Bucket{Name: aws.String(name)})
	}
	return out, nil
}

func TestFindAthenaResultsBucket(t *testing.T) {
	tests := []struct {
		name    string
		buckets []string
		want    string
		wantErr bool
	}{
		{
			name:    "matching bucket found",
			buckets: []string{"logs-bucket", "athena-athenaresultsbucket-1abc", "data"},
			want:    "athena-athenaresultsbucket-1abc",
		},
		{
			name:    "no matching bucket",
			buckets: []string{"logs-bucket", "data"},
			wantErr: true,
		},
		{
			name:    "empty account",
			buckets: nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindAthenaResultsBucket(context.Background(), &fakeS3{buckets: tt.buckets})
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("bucket = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFindAthenaResultsBucketListError(t *testing.T) {
	_, err := FindAthenaResultsBucket(context.Background(), &fakeS3{err: errors.New("AccessDenied")})
	de := IsDeployError(err)
	if de == nil {
		t.Fatalf("error = %v, want DeployError", err)
	}
	if de.Category != ErrCategoryPermission {
		t.Errorf("category = %q", de.Category)
	}
}

func TestRenderPermissionsPolicy(t *testing.T) {
	doc := `{"Resource": "arn:aws:s3:::PLACEHOLDER_ATHENA_RESULTS_BUCKET/*"}`
	got, err := RenderPermissionsPolicy(doc, "my-athenaresultsbucket-xyz")
	if err != nil {
		t.Fatalf("RenderPermissionsPolicy() error = %v", err)
	}
	if strings.Contains(got, athenaBucketPlaceholder) {
		t.Errorf("placeholder still present: %s", got)
	}
	if !strings.Contains(got, "my-athenaresultsbucket-xyz") {
		t.Errorf("bucket not substituted: %s", got)
	}
}

func TestRenderPermissionsPolicyMissingPlaceholder(t *testing.T) {
	if _, err := RenderPermissionsPolicy(`{"Resource": "*"}`, "b"); err == nil {
		t.Fatal("RenderPermissionsPolicy() without placeholder succeeded")
	}
}
