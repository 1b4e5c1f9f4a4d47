package deploy

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Invoker sends one prompt to the deployed runtime and returns the full
// response text. Implemented by the data-plane invocation client.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// SmokeTest is one post-deployment check against the live runtime.
type SmokeTest struct {
	Name   string
	Prompt string
	// FailSubstrings fail the test when any appears (case-insensitive) in
	// the response. Empty means the test only checks that invocation works.
	FailSubstrings []string
}

// SmokeTests returns the standard post-deployment checks, escalating from
// read-only schema discovery to query execution so permission gaps surface
// with a precise diagnosis.
func SmokeTests() []SmokeTest {
	return []SmokeTest{
		{
			Name:           "schema discovery",
			Prompt:         "List all available databases in the data catalog",
			FailSubstrings: []string{"error", "access denied"},
		},
		{
			Name:           "query execution",
			Prompt:         "SELECT COUNT(*) as block_count FROM btc.blocks WHERE cast(date as date) = current_date LIMIT 1",
			FailSubstrings: []string{"access denied", "permission"},
		},
		{
			Name:   "blockchain data query",
			Prompt: "How many Bitcoin blocks were created today?",
		},
	}
}

// RunSmokeTests executes the checks in order, stopping at the first failure.
func RunSmokeTests(ctx context.Context, invoker Invoker, tests []SmokeTest) error {
	for i, tc := range tests {
		log.Printf("deploy: smoke test %d/%d: %s", i+1, len(tests), tc.Name)

		response, err := invoker.Invoke(ctx, tc.Prompt)
		if err != nil {
			return &DeployError{
				Category:     ErrCategoryResource,
				ResourceType: "smoke_test",
				ResourceName: tc.Name,
				Operation:    "invoke",
				Message:      err.Error(),
				Cause:        err,
			}
		}

		if bad := matchFailSubstring(response, tc.FailSubstrings); bad != "" {
			return &DeployError{
				Category:     ErrCategoryPermission,
				ResourceType: "smoke_test",
				ResourceName: tc.Name,
				Operation:    "verify",
				Message:      fmt.Sprintf("response contains %q", bad),
				Remediation:  hintCheckIAM,
			}
		}

		log.Printf("deploy: smoke test %q passed (%d bytes)", tc.Name, len(response))
	}
	return nil
}

// matchFailSubstring returns the first failure marker found in the response,
// or "" when the response is clean.
func matchFailSubstring(response string, markers []string) string {
	lower := strings.ToLower(response)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return m
		}
	}
	return ""
}
