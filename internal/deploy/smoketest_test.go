package deploy

import (
	"context"
	"errors"
	"testing"
)

type fakeInvoker struct {
	responses map[string]string
	err       error
	prompts   []string
}

func (f *fakeInvoker) Invoke(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if resp, ok := f.responses[prompt]; ok {
		return resp, nil
	}
	return "Query returned 3 rows.", nil
}

func TestRunSmokeTestsAllPass(t *testing.T) {
	inv := &fakeInvoker{}
	if err := RunSmokeTests(context.Background(), inv, SmokeTests()); err != nil {
		t.Fatalf("RunSmokeTests() error = %v", err)
	}
	if len(inv.prompts) != 3 {
		t.Errorf("prompts sent = %d, want 3", len(inv.prompts))
	}
}

func TestRunSmokeTestsPermissionFailureHalts(t *testing.T) {
	tests := SmokeTests()
	inv := &fakeInvoker{responses: map[string]string{
		tests[0].Prompt: "Databases: btc, eth, ton",
		tests[1].Prompt: "Athena said: Access Denied when calling StartQueryExecution",
	}}

	err := RunSmokeTests(context.Background(), inv, tests)
	de := IsDeployError(err)
	if de == nil {
		t.Fatalf("error = %v, want DeployError", err)
	}
	if de.Category != ErrCategoryPermission || de.ResourceName != "query execution" {
		t.Errorf("DeployError = %+v", de)
	}
	if len(inv.prompts) != 2 {
		t.Errorf("prompts sent = %d, third test must not run after a failure", len(inv.prompts))
	}
}

func TestRunSmokeTestsCaseInsensitiveMatch(t *testing.T) {
	tests := SmokeTests()[:1]
	inv := &fakeInvoker{responses: map[string]string{
		tests[0].Prompt: "ERROR: could not reach the data catalog",
	}}
	if err := RunSmokeTests(context.Background(), inv, tests); err == nil {
		t.Fatal("RunSmokeTests() passed with an error response")
	}
}

func TestRunSmokeTestsInvokeError(t *testing.T) {
	inv := &fakeInvoker{err: errors.New("runtime not ready")}
	err := RunSmokeTests(context.Background(), inv, SmokeTests())
	if err == nil {
		t.Fatal("RunSmokeTests() succeeded despite invoke failure")
	}
	if len(inv.prompts) != 1 {
		t.Errorf("prompts sent = %d, want halt after first failure", len(inv.prompts))
	}
}
