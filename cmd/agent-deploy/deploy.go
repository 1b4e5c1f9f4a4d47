package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"

	"github.com/chainquery-labs/blockchain-data-agent/internal/deploy"
	"github.com/chainquery-labs/blockchain-data-agent/internal/invoke"
)

func newDeployCmd(flags *rootFlags) *cobra.Command {
	var skipBuild, skipTest bool
	var repositoryName, imageTag, modelID string

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Provision the runtime and run smoke tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadDeployConfig(flags)
			if err != nil {
				return err
			}
			if repositoryName != "" {
				cfg.RepositoryName = repositoryName
			}
			if imageTag != "" {
				cfg.ImageTag = imageTag
			}
			if modelID != "" {
				cfg.ModelID = modelID
			}
			cfg.SkipBuild = cfg.SkipBuild || skipBuild
			cfg.SkipTest = cfg.SkipTest || skipTest

			if problems := cfg.Validate(); len(problems) > 0 {
				return fmt.Errorf("invalid config:\n  %s", strings.Join(problems, "\n  "))
			}
			return runDeploy(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&repositoryName, "repository-name", "", "ECR repository name")
	cmd.Flags().StringVar(&imageTag, "image-tag", "", "container image tag")
	cmd.Flags().StringVar(&modelID, "model-id", "", "foundation model override for the runtime")
	cmd.Flags().BoolVar(&skipBuild, "skip-build", false, "reuse the already-pushed image")
	cmd.Flags().BoolVar(&skipTest, "skip-test", false, "skip post-deployment smoke tests")
	return cmd
}

// loadDeployConfig merges the config file with the shared flags.
func loadDeployConfig(flags *rootFlags) (*deploy.Config, error) {
	cfg, err := deploy.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.agentName != "" {
		cfg.AgentName = flags.agentName
	}
	if flags.region != "" {
		cfg.Region = flags.region
	}
	return cfg, nil
}

func newAWSClients(ctx context.Context, region string) (*deploy.Clients, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return deploy.NewClients(awsCfg), nil
}

// runDeploy assembles and executes the provisioning pipeline. State produced
// by earlier steps (role ARN, image URI, runtime info) feeds later ones.
func runDeploy(ctx context.Context, cfg *deploy.Config) error {
	clients, err := newAWSClients(ctx, cfg.Region)
	if err != nil {
		return err
	}
	manager := &deploy.RuntimeManager{Client: clients.ControlPlane}

	var (
		roleARN  string
		imageURI string
		runtime  *deploy.RuntimeInfo
	)

	steps := []deploy.Step{
		{
			Name: "verify AWS credentials",
			Run: func(ctx context.Context) error {
				_, err := deploy.Preflight(ctx, clients.STS)
				return err
			},
		},
		{
			Name: "ensure IAM role",
			Run: func(ctx context.Context) error {
				trust, err := os.ReadFile(cfg.TrustPolicyFile)
				if err != nil {
					return fmt.Errorf("read trust policy: %w", err)
				}
				roleARN, err = deploy.EnsureRole(ctx, clients.IAM, cfg.RoleName, string(trust))
				return err
			},
		},
		{
			Name: "attach permissions policy",
			Run: func(ctx context.Context) error {
				bucket, err := deploy.FindAthenaResultsBucket(ctx, clients.S3)
				if err != nil {
					return err
				}
				raw, err := os.ReadFile(cfg.PermissionsPolicyFile)
				if err != nil {
					return fmt.Errorf("read permissions policy: %w", err)
				}
				policy, err := deploy.RenderPermissionsPolicy(string(raw), bucket)
				if err != nil {
					return err
				}
				return deploy.AttachRolePolicy(ctx, clients.IAM, cfg.RoleName, cfg.PolicyName, policy)
			},
		},
		{
			Name: "build and push image",
			Run: func(ctx context.Context) error {
				repoURI, err := deploy.EnsureRepository(ctx, clients.ECR, cfg.RepositoryName)
				if err != nil {
					return err
				}
				if cfg.SkipBuild {
					imageURI = fmt.Sprintf("%s:%s", repoURI, cfg.ImageTag)
					slog.Info("skipping image build", "image", imageURI)
					return nil
				}
				builder := &deploy.ImageBuilder{ECR: clients.ECR, Context: cfg.DockerContext}
				imageURI, err = builder.BuildAndPush(ctx, repoURI, cfg.ImageTag)
				return err
			},
		},
		{
			Name: "ensure log group",
			Run: func(ctx context.Context) error {
				return deploy.EnsureLogGroup(ctx, clients.Logs, cfg.LogGroup)
			},
		},
		{
			Name: "deploy agent runtime",
			Run: func(ctx context.Context) error {
				runtime, err = manager.Deploy(ctx, deploy.RuntimeSpec{
					Name:     cfg.AgentName,
					RoleARN:  roleARN,
					ImageURI: imageURI,
					EnvVars:  runtimeEnvVars(cfg),
				})
				return err
			},
		},
		{
			Name: "run smoke tests",
			Run: func(ctx context.Context) error {
				if cfg.SkipTest {
					slog.Info("skipping smoke tests")
					return nil
				}
				client := invoke.NewClient(clients.DataPlane, runtime.ARN, "")
				return deploy.RunSmokeTests(ctx, client, deploy.SmokeTests())
			},
		},
	}

	if err := deploy.NewPipeline(steps...).Run(ctx); err != nil {
		reportFailure(ctx, clients, cfg, err)
		return err
	}

	slog.Info("deployment complete",
		"agent", cfg.AgentName,
		"arn", runtime.ARN,
		"status", runtime.Status)
	return nil
}

// runtimeEnvVars builds the environment injected into the runtime container.
func runtimeEnvVars(cfg *deploy.Config) map[string]string {
	env := map[string]string{
		"AWS_REGION": cfg.Region,
	}
	if cfg.ModelID != "" {
		env["BLOCKCHAIN_AGENT_MODEL_ID"] = cfg.ModelID
	}
	return env
}

// reportFailure prints the structured error and, when the runtime got far
// enough to emit logs, a tail of recent error lines.
func reportFailure(ctx context.Context, clients *deploy.Clients, cfg *deploy.Config, err error) {
	if de := deploy.IsDeployError(err); de != nil {
		slog.Error("deployment failed",
			"category", de.Category,
			"resource", de.ResourceType,
			"name", de.ResourceName,
			"operation", de.Operation,
			"message", de.Message)
		if de.Remediation != "" {
			fmt.Fprintf(os.Stderr, "\nremediation: %s\n", de.Remediation)
		}
	} else {
		slog.Error("deployment failed", "error", err)
	}

	if lines := deploy.TailRecentErrors(ctx, clients.Logs, cfg.LogGroup); len(lines) > 0 {
		fmt.Fprintln(os.Stderr, "\nrecent runtime errors:")
		for _, line := range lines {
			fmt.Fprintf(os.Stderr, "  %s\n", line)
		}
	}
}
