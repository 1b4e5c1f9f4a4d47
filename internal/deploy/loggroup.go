package deploy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	cwltypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

// errorTailWindow is how far back TailRecentErrors looks for diagnostics
// after a failed deployment.
const errorTailWindow = 15 * time.Minute

// maxTailEvents caps how many log events a diagnostic tail returns.
const maxTailEvents = 20

// EnsureLogGroup creates the runtime log group, tolerating one that already
// exists.
func EnsureLogGroup(ctx context.Context, client logsAPI, name string) error {
	_, err := client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(name),
	})
	if err != nil {
		var exists *cwltypes.ResourceAlreadyExistsException
		if errors.As(err, &exists) {
			log.Printf("deploy: log group %s exists", name)
			return nil
		}
		return newDeployError("create", "log_group", name, err)
	}
	log.Printf("deploy: created log group %s", name)
	return nil
}

// TailRecentErrors fetches recent error-looking log lines from the runtime
// log group. Used to enrich diagnostics when a deployment or smoke test
// fails; a missing log group is not itself an error here.
func TailRecentErrors(ctx context.Context, client logsAPI, group string) []string {
	out, err := client.FilterLogEvents(ctx, &cloudwatchlogs.FilterLogEventsInput{
		LogGroupName:  aws.String(group),
		StartTime:     aws.Int64(time.Now().Add(-errorTailWindow).UnixMilli()),
		FilterPattern: aws.String("?ERROR ?error ?Exception"),
		Limit:         aws.Int32(maxTailEvents),
	})
	if err != nil {
		log.Printf("deploy: could not tail log group %s: %v", group, err)
		return nil
	}

	lines := make([]string, 0, len(out.Events))
	for _, ev := range out.Events {
		msg := strings.TrimRight(aws.ToString(ev.Message), "\n")
		ts := time.UnixMilli(aws.ToInt64(ev.Timestamp)).UTC().Format(time.RFC3339)
		lines = append(lines, fmt.Sprintf("%s %s", ts, msg))
	}
	return lines
}
