package deploy

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
)

type fakeIAM struct {
	existingARN string
	getErr      error
	createCalls int
	putCalls    int
	lastPolicy  string
}

func (f *fakeIAM) GetRole(_ context.Context, in *iam.GetRoleInput, _ ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.existingARN == "" {
		return nil, &iamtypes.NoSuchEntityException{}
	}
	return &iam.GetRoleOutput{Role: &iamtypes.Role{Arn: aws.String(f.existingARN)}}, nil
}

func (f *fakeIAM) CreateRole(_ context.Context, in *iam.CreateRoleInput, _ ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
	f.createCalls++
	arn := "arn:aws:iam::123456789012:role/" + aws.ToString(in.RoleName)
	return &iam.CreateRoleOutput{Role: &iamtypes.Role{Arn: aws.String(arn)}}, nil
}

func (f *fakeIAM) PutRolePolicy(_ context.Context, in *iam.PutRolePolicyInput, _ ...func(*iam.Options)) (*iam.PutRolePolicyOutput, error) {
	f.putCalls++
	f.lastPolicy = aws.ToString(in.PolicyDocument)
	return &iam.PutRolePolicyOutput{}, nil
}

func TestEnsureRoleAdoptsExisting(t *testing.T) {
	f := &fakeIAM{existingARN: "arn:aws:iam::123456789012:role/AgentCoreDataProcessingRole"}
	arn, err := EnsureRole(context.Background(), f, "AgentCoreDataProcessingRole", "{}")
	if err != nil {
		t.Fatalf("EnsureRole() error = %v", err)
	}
	if arn != f.existingARN {
		t.Errorf("arn = %q", arn)
	}
	if f.createCalls != 0 {
		t.Errorf("create calls = %d, existing role must not be recreated", f.createCalls)
	}
}

func TestEnsureRoleCreatesMissing(t *testing.T) {
	old := rolePropagationDelay
	rolePropagationDelay = 0
	defer func() { rolePropagationDelay = old }()

	f := &fakeIAM{}
	arn, err := EnsureRole(context.Background(), f, "AgentCoreDataProcessingRole", `{"Version":"2012-10-17"}`)
	if err != nil {
		t.Fatalf("EnsureRole() error = %v", err)
	}
	if f.createCalls != 1 {
		t.Errorf("create calls = %d", f.createCalls)
	}
	if arn != "arn:aws:iam::123456789012:role/AgentCoreDataProcessingRole" {
		t.Errorf("arn = %q", arn)
	}
}

func TestEnsureRoleUnexpectedGetError(t *testing.T) {
	f := &fakeIAM{getErr: errors.New("throttled")}
	if _, err := EnsureRole(context.Background(), f, "r", "{}"); err == nil {
		t.Fatal("EnsureRole() succeeded despite GetRole failure")
	}
	if f.createCalls != 0 {
		t.Error("CreateRole attempted after non-404 GetRole failure")
	}
}

func TestAttachRolePolicy(t *testing.T) {
	f := &fakeIAM{}
	doc := `{"Statement":[]}`
	if err := AttachRolePolicy(context.Background(), f, "r", "DataProcessingPolicy", doc); err != nil {
		t.Fatalf("AttachRolePolicy() error = %v", err)
	}
	if f.putCalls != 1 || f.lastPolicy != doc {
		t.Errorf("put calls = %d, policy = %q", f.putCalls, f.lastPolicy)
	}
}
