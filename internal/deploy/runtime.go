package deploy

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"
)

// pollInterval is the delay between status checks when waiting for the
// runtime to become ready.
const pollInterval = 5 * time.Second

// maxPollAttempts limits how long we wait for the runtime to become ready.
const maxPollAttempts = 60

// listPageSize is the MaxResults value used when listing runtimes.
const listPageSize = 100

// isConflictError returns true if the error indicates a 409 Conflict
// (resource already exists).
func isConflictError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "ConflictException")
}

// extractResourceID extracts the resource ID from an ARN. For example, given
// "arn:aws:bedrock-agentcore:us-east-1:123:runtime/abc123" and prefix
// "runtime", it returns "abc123".
func extractResourceID(arn, prefix string) string {
	search := prefix + "/"
	if i := strings.Index(arn, search); i >= 0 {
		return arn[i+len(search):]
	}
	return ""
}

// RuntimeSpec describes the desired state of the agent runtime.
type RuntimeSpec struct {
	Name     string
	RoleARN  string
	ImageURI string
	// EnvVars are injected into the runtime container.
	EnvVars map[string]string
}

// RuntimeInfo is a summary of a deployed runtime.
type RuntimeInfo struct {
	Name   string
	ARN    string
	ID     string
	Status string
}

// RuntimeManager provisions and inspects AgentCore runtimes.
type RuntimeManager struct {
	Client controlPlaneAPI
}

// containerArtifact builds the container artifact for the runtime image.
func containerArtifact(imageURI string) types.AgentRuntimeArtifact {
	return &types.AgentRuntimeArtifactMemberContainerConfiguration{
		Value: types.ContainerConfiguration{
			ContainerUri: aws.String(imageURI),
		},
	}
}

// FindByName lists runtimes, following pagination, and returns the one
// matching name.
func (m *RuntimeManager) FindByName(ctx context.Context, name string) (*RuntimeInfo, error) {
	var next *string
	for {
		out, err := m.Client.ListAgentRuntimes(ctx, &bedrockagentcorecontrol.ListAgentRuntimesInput{
			MaxResults: aws.Int32(listPageSize),
			NextToken:  next,
		})
		if err != nil {
			return nil, fmt.Errorf("ListAgentRuntimes: %w", err)
		}
		for _, rt := range out.AgentRuntimes {
			if aws.ToString(rt.AgentRuntimeName) == name {
				return &RuntimeInfo{
					Name:   name,
					ARN:    aws.ToString(rt.AgentRuntimeArn),
					ID:     aws.ToString(rt.AgentRuntimeId),
					Status: string(rt.Status),
				}, nil
			}
		}
		if out.NextToken == nil {
			break
		}
		next = out.NextToken
	}
	return nil, fmt.Errorf("runtime %q not found", name)
}

// List returns summaries of all runtimes in the region.
func (m *RuntimeManager) List(ctx context.Context) ([]RuntimeInfo, error) {
	var infos []RuntimeInfo
	var next *string
	for {
		out, err := m.Client.ListAgentRuntimes(ctx, &bedrockagentcorecontrol.ListAgentRuntimesInput{
			MaxResults: aws.Int32(listPageSize),
			NextToken:  next,
		})
		if err != nil {
			return nil, fmt.Errorf("ListAgentRuntimes: %w", err)
		}
		for _, rt := range out.AgentRuntimes {
			infos = append(infos, RuntimeInfo{
				Name:   aws.ToString(rt.AgentRuntimeName),
				ARN:    aws.ToString(rt.AgentRuntimeArn),
				ID:     aws.ToString(rt.AgentRuntimeId),
				Status: string(rt.Status),
			})
		}
		if out.NextToken == nil {
			return infos, nil
		}
		next = out.NextToken
	}
}

// Deploy creates the runtime or updates it when it already exists, then
// polls until it is READY. On create conflict the existing runtime is
// adopted and updated in place.
func (m *RuntimeManager) Deploy(ctx context.Context, spec RuntimeSpec) (*RuntimeInfo, error) {
	existing, err := m.FindByName(ctx, spec.Name)
	if err == nil {
		return m.update(ctx, existing, spec)
	}
	return m.create(ctx, spec)
}

func (m *RuntimeManager) create(ctx context.Context, spec RuntimeSpec) (*RuntimeInfo, error) {
	input := &bedrockagentcorecontrol.CreateAgentRuntimeInput{
		AgentRuntimeName:     aws.String(spec.Name),
		RoleArn:              aws.String(spec.RoleARN),
		AgentRuntimeArtifact: containerArtifact(spec.ImageURI),
		NetworkConfiguration: &types.NetworkConfiguration{
			NetworkMode: types.NetworkModePublic,
		},
	}
	if len(spec.EnvVars) > 0 {
		input.EnvironmentVariables = spec.EnvVars
	}

	out, err := m.Client.CreateAgentRuntime(ctx, input)
	if err != nil {
		if isConflictError(err) {
			log.Printf("deploy: runtime %q already exists, adopting", spec.Name)
			existing, findErr := m.FindByName(ctx, spec.Name)
			if findErr != nil {
				return nil, fmt.Errorf("adopt runtime %q: %w", spec.Name, findErr)
			}
			return m.update(ctx, existing, spec)
		}
		return nil, newDeployError("create", "agent_runtime", spec.Name, err)
	}

	info := &RuntimeInfo{
		Name: spec.Name,
		ARN:  aws.ToString(out.AgentRuntimeArn),
		ID:   aws.ToString(out.AgentRuntimeId),
	}
	if err := m.waitForReady(ctx, info.ID); err != nil {
		return info, newDeployError("create", "agent_runtime", spec.Name, err)
	}
	info.Status = string(types.AgentRuntimeStatusReady)
	log.Printf("deploy: runtime %s ready (%s)", spec.Name, info.ARN)
	return info, nil
}

func (m *RuntimeManager) update(ctx context.Context, existing *RuntimeInfo, spec RuntimeSpec) (*RuntimeInfo, error) {
	id := existing.ID
	if id == "" {
		id = extractResourceID(existing.ARN, "runtime")
	}
	if id == "" {
		return nil, fmt.Errorf("update runtime %q: could not determine ID from ARN %q",
			spec.Name, existing.ARN)
	}

	input := &bedrockagentcorecontrol.UpdateAgentRuntimeInput{
		AgentRuntimeId:       aws.String(id),
		RoleArn:              aws.String(spec.RoleARN),
		AgentRuntimeArtifact: containerArtifact(spec.ImageURI),
		NetworkConfiguration: &types.NetworkConfiguration{
			NetworkMode: types.NetworkModePublic,
		},
	}
	if len(spec.EnvVars) > 0 {
		input.EnvironmentVariables = spec.EnvVars
	}

	if _, err := m.Client.UpdateAgentRuntime(ctx, input); err != nil {
		return nil, newDeployError("update", "agent_runtime", spec.Name, err)
	}
	if err := m.waitForReady(ctx, id); err != nil {
		return existing, newDeployError("update", "agent_runtime", spec.Name, err)
	}

	log.Printf("deploy: runtime %s updated (%s)", spec.Name, existing.ARN)
	return &RuntimeInfo{
		Name:   spec.Name,
		ARN:    existing.ARN,
		ID:     id,
		Status: string(types.AgentRuntimeStatusReady),
	}, nil
}

// Status returns the current status of the named runtime.
func (m *RuntimeManager) Status(ctx context.Context, name string) (*RuntimeInfo, error) {
	info, err := m.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	out, err := m.Client.GetAgentRuntime(ctx, &bedrockagentcorecontrol.GetAgentRuntimeInput{
		AgentRuntimeId: aws.String(info.ID),
	})
	if err != nil {
		return nil, fmt.Errorf("GetAgentRuntime %q: %w", name, err)
	}
	info.Status = string(out.Status)
	return info, nil
}

// Delete removes the named runtime.
func (m *RuntimeManager) Delete(ctx context.Context, name string) error {
	info, err := m.FindByName(ctx, name)
	if err != nil {
		return err
	}
	_, err = m.Client.DeleteAgentRuntime(ctx, &bedrockagentcorecontrol.DeleteAgentRuntimeInput{
		AgentRuntimeId: aws.String(info.ID),
	})
	if err != nil {
		return newDeployError("delete", "agent_runtime", name, err)
	}
	log.Printf("deploy: runtime %s deleted", name)
	return nil
}

// waitForReady polls GetAgentRuntime until the status is READY or a terminal
// failure state.
func (m *RuntimeManager) waitForReady(ctx context.Context, id string) error {
	for range maxPollAttempts {
		out, err := m.Client.GetAgentRuntime(ctx, &bedrockagentcorecontrol.GetAgentRuntimeInput{
			AgentRuntimeId: aws.String(id),
		})
		if err != nil {
			return fmt.Errorf("polling runtime %q: %w", id, err)
		}
		switch out.Status {
		case types.AgentRuntimeStatusReady:
			return nil
		case types.AgentRuntimeStatusCreateFailed, types.AgentRuntimeStatusUpdateFailed:
			reason := ""
			if out.FailureReason != nil {
				reason = ": " + *out.FailureReason
			}
			return fmt.Errorf("runtime %q entered status %s%s", id, out.Status, reason)
		case types.AgentRuntimeStatusCreating,
			types.AgentRuntimeStatusUpdating,
			types.AgentRuntimeStatusDeleting:
			// Transitional states — keep polling.
		}
		time.Sleep(pollInterval)
	}
	return fmt.Errorf("runtime %q did not become ready after %d attempts", id, maxPollAttempts)
}
