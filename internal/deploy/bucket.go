package deploy

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// athenaBucketPlaceholder is the token in the permissions policy document
// that gets replaced with the discovered results bucket name.
const athenaBucketPlaceholder = "PLACEHOLDER_ATHENA_RESULTS_BUCKET"

// FindAthenaResultsBucket locates the Athena query results bucket by listing
// the account's buckets and matching on name. Athena's console-created
// results buckets embed "athenaresultsbucket" in their names.
func FindAthenaResultsBucket(ctx context.Context, client s3API) (string, error) {
	out, err := client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return "", newDeployError("list", "s3_bucket", bucketNamePattern, err)
	}

	for _, b := range out.Buckets {
		name := aws.ToString(b.Name)
		if strings.Contains(name, bucketNamePattern) {
			log.Printf("deploy: found Athena results bucket %s", name)
			return name, nil
		}
	}
	return "", &DeployError{
		Category:     ErrCategoryResource,
		ResourceType: "s3_bucket",
		ResourceName: bucketNamePattern,
		Operation:    "discover",
		Message:      fmt.Sprintf("no bucket name contains %q", bucketNamePattern),
		Remediation:  "run an Athena query once from the console so AWS creates the results bucket, or create one matching the pattern",
	}
}

// RenderPermissionsPolicy substitutes the results bucket into the policy
// document. The document must actually contain the placeholder; a policy
// without it would silently grant access to the wrong bucket.
func RenderPermissionsPolicy(policyText, bucket string) (string, error) {
	if !strings.Contains(policyText, athenaBucketPlaceholder) {
		return "", fmt.Errorf("policy document does not contain %s", athenaBucketPlaceholder)
	}
	return strings.ReplaceAll(policyText, athenaBucketPlaceholder, bucket), nil
}
