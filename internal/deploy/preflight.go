package deploy

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// CallerIdentity is the resolved AWS identity the deployment runs as.
type CallerIdentity struct {
	AccountID string
	ARN       string
}

// Preflight verifies AWS credentials are usable before any resource is
// touched. Missing or expired credentials fail here with a clear message
// instead of midway through provisioning.
func Preflight(ctx context.Context, client stsAPI) (*CallerIdentity, error) {
	out, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, newDeployError("verify", "aws_credentials", "caller identity",
			fmt.Errorf("AWS credentials not configured or expired: %w", err))
	}

	id := &CallerIdentity{
		AccountID: aws.ToString(out.Account),
		ARN:       aws.ToString(out.Arn),
	}
	log.Printf("deploy: AWS credentials verified (account %s)", id.AccountID)
	return id, nil
}
