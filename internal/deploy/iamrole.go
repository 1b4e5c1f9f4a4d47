package deploy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
)

// rolePropagationDelay gives IAM time to propagate a freshly created role
// before AgentCore tries to assume it.
var rolePropagationDelay = 10 * time.Second

// isRoleNotFound returns true if the error is an IAM NoSuchEntityException.
func isRoleNotFound(err error) bool {
	var nse *iamtypes.NoSuchEntityException
	return errors.As(err, &nse)
}

// EnsureRole returns the ARN of the execution role, creating it with the
// given trust policy when it does not exist. An existing role is adopted
// as-is; only the inline permissions policy is refreshed on every deploy.
func EnsureRole(ctx context.Context, client iamAPI, roleName, trustPolicy string) (string, error) {
	got, err := client.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(roleName)})
	if err == nil {
		arn := aws.ToString(got.Role.Arn)
		log.Printf("deploy: role %s exists (%s)", roleName, arn)
		return arn, nil
	}
	if !isRoleNotFound(err) {
		return "", newDeployError("get", "iam_role", roleName, err)
	}

	created, err := client.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 aws.String(roleName),
		AssumeRolePolicyDocument: aws.String(trustPolicy),
		Description:              aws.String("Execution role for the blockchain data processing agent on Bedrock AgentCore"),
	})
	if err != nil {
		return "", newDeployError("create", "iam_role", roleName, err)
	}

	arn := aws.ToString(created.Role.Arn)
	log.Printf("deploy: created role %s (%s), waiting for propagation", roleName, arn)
	time.Sleep(rolePropagationDelay)
	return arn, nil
}

// AttachRolePolicy writes the inline permissions policy onto the role,
// replacing any previous version.
func AttachRolePolicy(ctx context.Context, client iamAPI, roleName, policyName, policyDoc string) error {
	_, err := client.PutRolePolicy(ctx, &iam.PutRolePolicyInput{
		RoleName:       aws.String(roleName),
		PolicyName:     aws.String(policyName),
		PolicyDocument: aws.String(policyDoc),
	})
	if err != nil {
		return newDeployError("attach", "iam_policy",
			fmt.Sprintf("%s/%s", roleName, policyName), err)
	}
	log.Printf("deploy: attached policy %s to role %s", policyName, roleName)
	return nil
}
