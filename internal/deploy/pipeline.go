package deploy

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Step is one unit of deployment work. Run returns an error to abort the
// pipeline.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pipeline executes steps strictly in order and stops at the first failure.
// Later steps never run once a step has failed.
type Pipeline struct {
	steps []Step
	// completed records the names of steps that finished successfully.
	completed []string
}

// NewPipeline creates a pipeline over the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Completed returns the names of steps that ran to completion, in order.
func (p *Pipeline) Completed() []string {
	return p.completed
}

// Run executes the pipeline. The returned error identifies the failing step;
// steps after it are not attempted.
func (p *Pipeline) Run(ctx context.Context) error {
	for i, step := range p.steps {
		log.Printf("deploy: [%d/%d] %s", i+1, len(p.steps), step.Name)
		start := time.Now()

		if err := step.Run(ctx); err != nil {
			log.Printf("deploy: step %q failed after %s: %v", step.Name, time.Since(start).Round(time.Millisecond), err)
			return fmt.Errorf("step %q: %w", step.Name, err)
		}

		p.completed = append(p.completed, step.Name)
		log.Printf("deploy: step %q done (%s)", step.Name, time.Since(start).Round(time.Millisecond))
	}
	return nil
}
