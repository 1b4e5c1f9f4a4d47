// Package deploy provisions the blockchain data agent on Bedrock AgentCore:
// IAM role and inline policy, ECR repository and container image, CloudWatch
// log group, and the agent runtime itself, followed by smoke tests against
// the deployed endpoint. Steps run in order and the pipeline halts on the
// first failure.
package deploy

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default resource names. The role and policy names match what the agent's
// IAM policy documents were written for.
const (
	DefaultAgentName      = "blockchain_data_agent"
	DefaultRepositoryName = "blockchain-data-agent"
	DefaultRoleName       = "AgentCoreDataProcessingRole"
	DefaultPolicyName     = "DataProcessingPolicy"
	DefaultRegion         = "us-east-1"
	DefaultImageTag       = "latest"
)

// bucketNamePattern is the substring that identifies the Athena query
// results bucket among the account's S3 buckets.
const bucketNamePattern = "athenaresultsbucket"

// Validation patterns for config fields.
var (
	// regionRE matches AWS region identifiers like us-east-1.
	regionRE = regexp.MustCompile(`^[a-z]{2}(-[a-z]+)+-\d+$`)
	// agentNameRE matches valid AgentCore runtime names.
	agentNameRE = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{0,47}$`)
	// repoNameRE matches valid ECR repository names.
	repoNameRE = regexp.MustCompile(`^[a-z0-9]+(?:[._-][a-z0-9]+)*$`)
)

// Config holds everything the deployment pipeline needs. Fields map to CLI
// flags; a YAML config file can pre-populate them.
type Config struct {
	// AgentName is the AgentCore runtime name.
	AgentName string `yaml:"agent_name"`
	// Region is the AWS region to deploy into.
	Region string `yaml:"region"`
	// RepositoryName is the ECR repository for the runtime image.
	RepositoryName string `yaml:"repository_name"`
	// RoleName is the IAM execution role the runtime assumes.
	RoleName string `yaml:"role_name"`
	// PolicyName is the inline permissions policy attached to the role.
	PolicyName string `yaml:"policy_name"`
	// ImageTag tags the container image pushed to ECR.
	ImageTag string `yaml:"image_tag"`
	// ModelID overrides the runtime's foundation model when set.
	ModelID string `yaml:"model_id"`
	// LogGroup is the CloudWatch log group for runtime logs. Derived from
	// the agent name when empty.
	LogGroup string `yaml:"log_group"`
	// TrustPolicyFile and PermissionsPolicyFile point at the IAM policy
	// JSON documents.
	TrustPolicyFile       string `yaml:"trust_policy_file"`
	PermissionsPolicyFile string `yaml:"permissions_policy_file"`
	// DockerContext is the directory passed to docker build.
	DockerContext string `yaml:"docker_context"`

	// SkipBuild skips the container build and push steps.
	SkipBuild bool `yaml:"skip_build"`
	// SkipTest skips post-deployment smoke tests.
	SkipTest bool `yaml:"skip_test"`
}

// LoadConfig reads a YAML config file when path is non-empty, then fills
// defaults for anything unset.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills zero-value fields with the package defaults.
func (c *Config) ApplyDefaults() {
	if c.AgentName == "" {
		c.AgentName = DefaultAgentName
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.RepositoryName == "" {
		c.RepositoryName = DefaultRepositoryName
	}
	if c.RoleName == "" {
		c.RoleName = DefaultRoleName
	}
	if c.PolicyName == "" {
		c.PolicyName = DefaultPolicyName
	}
	if c.ImageTag == "" {
		c.ImageTag = DefaultImageTag
	}
	if c.LogGroup == "" {
		c.LogGroup = "/aws/bedrock-agentcore/runtimes/" + c.AgentName
	}
	if c.TrustPolicyFile == "" {
		c.TrustPolicyFile = "policies/agentcore_iam_role.json"
	}
	if c.PermissionsPolicyFile == "" {
		c.PermissionsPolicyFile = "policies/agentcore_iam_policy.json"
	}
	if c.DockerContext == "" {
		c.DockerContext = "."
	}
}

// Validate returns a list of problems with the config. An empty slice means
// the config is deployable.
func (c *Config) Validate() []string {
	var problems []string

	if !agentNameRE.MatchString(c.AgentName) {
		problems = append(problems, fmt.Sprintf(
			"agent_name %q must start with a letter and contain only letters, digits, and underscores (max 48 chars)",
			c.AgentName))
	}
	if !regionRE.MatchString(c.Region) {
		problems = append(problems, fmt.Sprintf("region %q is not a valid AWS region", c.Region))
	}
	if !repoNameRE.MatchString(c.RepositoryName) {
		problems = append(problems, fmt.Sprintf(
			"repository_name %q is not a valid ECR repository name", c.RepositoryName))
	}
	if strings.TrimSpace(c.RoleName) == "" {
		problems = append(problems, "role_name must not be empty")
	}
	if strings.TrimSpace(c.PolicyName) == "" {
		problems = append(problems, "policy_name must not be empty")
	}
	return problems
}
