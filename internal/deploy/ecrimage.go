package deploy

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
)

// imagePlatform is the container platform AgentCore runtimes execute on.
const imagePlatform = "linux/arm64"

// isRepoNotFound returns true if the error is an ECR RepositoryNotFoundException.
func isRepoNotFound(err error) bool {
	var rnf *ecrtypes.RepositoryNotFoundException
	return errors.As(err, &rnf)
}

// EnsureRepository returns the URI of the ECR repository, creating it when
// missing.
func EnsureRepository(ctx context.Context, client ecrAPI, name string) (string, error) {
	out, err := client.DescribeRepositories(ctx, &ecr.DescribeRepositoriesInput{
		RepositoryNames: []string{name},
	})
	if err == nil && len(out.Repositories) > 0 {
		uri := aws.ToString(out.Repositories[0].RepositoryUri)
		log.Printf("deploy: repository %s exists (%s)", name, uri)
		return uri, nil
	}
	if err != nil && !isRepoNotFound(err) {
		return "", newDeployError("describe", "ecr_repository", name, err)
	}

	created, err := client.CreateRepository(ctx, &ecr.CreateRepositoryInput{
		RepositoryName: aws.String(name),
	})
	if err != nil {
		return "", newDeployError("create", "ecr_repository", name, err)
	}
	uri := aws.ToString(created.Repository.RepositoryUri)
	log.Printf("deploy: created repository %s (%s)", name, uri)
	return uri, nil
}

// registryCredentials decodes an ECR authorization token into docker login
// credentials and the registry endpoint.
func registryCredentials(ctx context.Context, client ecrAPI) (user, password, endpoint string, err error) {
	out, err := client.GetAuthorizationToken(ctx, &ecr.GetAuthorizationTokenInput{})
	if err != nil {
		return "", "", "", fmt.Errorf("get ECR authorization token: %w", err)
	}
	if len(out.AuthorizationData) == 0 {
		return "", "", "", fmt.Errorf("ECR returned no authorization data")
	}
	auth := out.AuthorizationData[0]

	decoded, err := base64.StdEncoding.DecodeString(aws.ToString(auth.AuthorizationToken))
	if err != nil {
		return "", "", "", fmt.Errorf("decode ECR token: %w", err)
	}
	user, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", "", fmt.Errorf("unexpected ECR token format")
	}
	return user, password, aws.ToString(auth.ProxyEndpoint), nil
}

// ImageBuilder builds and pushes the runtime container image with the local
// docker CLI.
type ImageBuilder struct {
	ECR ecrAPI
	// Context is the docker build context directory.
	Context string
}

// runDocker executes a docker command with output wired to the terminal.
func runDocker(ctx context.Context, stdin string, args ...string) error {
	cmd := exec.CommandContext(ctx, "docker", args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker %s: %w", args[0], err)
	}
	return nil
}

// BuildAndPush builds the runtime image for the AgentCore platform, logs in
// to ECR, and pushes. Returns the fully qualified image URI.
func (b *ImageBuilder) BuildAndPush(ctx context.Context, repoURI, tag string) (string, error) {
	image := fmt.Sprintf("%s:%s", repoURI, tag)

	log.Printf("deploy: building image %s (%s)", image, imagePlatform)
	if err := runDocker(ctx, "", "build", "--platform", imagePlatform, "-t", image, b.Context); err != nil {
		return "", newDeployError("build", "container_image", image, err)
	}

	user, password, endpoint, err := registryCredentials(ctx, b.ECR)
	if err != nil {
		return "", newDeployError("login", "container_registry", repoURI, err)
	}
	registry := strings.TrimPrefix(endpoint, "https://")
	if err := runDocker(ctx, password, "login", "--username", user, "--password-stdin", registry); err != nil {
		return "", newDeployError("login", "container_registry", registry, err)
	}

	log.Printf("deploy: pushing image %s", image)
	if err := runDocker(ctx, "", "push", image); err != nil {
		return "", newDeployError("push", "container_image", image, err)
	}
	return image, nil
}
