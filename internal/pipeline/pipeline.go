package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrStepPanicked = errors.New("step panicked")
	// ErrAborted makes any step failure fatal, whatever its severity.
	ErrAborted = errors.New("run aborted")
)

type Severity int

const (
	// Advisory failures are reported and the run moves on.
	Advisory Severity = iota
	// Fatal failures abort the remaining steps.
	Fatal
)

type Status int

const (
	Succeeded Status = iota
	Failed
	Skipped
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "skipped"
	}
}

type State int

const (
	Idle State = iota
	Running
	Completed
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return "aborted"
	}
}

type Step struct {
	Name     string
	Severity Severity
	// Interactive steps need an operator and are skipped otherwise.
	Interactive bool
	Run         func(ctx context.Context) error
}

type Result struct {
	Step     string
	Status   Status
	Severity Severity
	Err      error
	Duration time.Duration
}

// String renders the one-line status shown to the operator.
func (r Result) String() string {
	switch r.Status {
	case Succeeded:
		return fmt.Sprintf("%s: succeeded in %s", r.Step, r.Duration.Round(time.Millisecond))
	case Skipped:
		return fmt.Sprintf("%s: skipped (non-interactive run)", r.Step)
	}
	kind := "advisory"
	if r.Severity == Fatal {
		kind = "fatal"
	}
	return fmt.Sprintf("%s: failed (%s): %v", r.Step, kind, r.Err)
}

type Report struct {
	State   State
	Results []Result
}

func (r Report) Failures() []Result {
	var failures []Result
	for _, result := range r.Results {
		if result.Status == Failed {
			failures = append(failures, result)
		}
	}
	return failures
}

// Err is set when the run was aborted.
func (r Report) Err() error {
	if r.State != Aborted {
		return nil
	}
	for i := len(r.Results) - 1; i >= 0; i-- {
		if r.Results[i].Status == Failed {
			return fmt.Errorf("step %s: %w", r.Results[i].Step, r.Results[i].Err)
		}
	}
	return ErrAborted
}

type Orchestrator struct {
	steps       []Step
	interactive bool
	reporter    func(Result)
	state       State
}

func New(steps []Step, interactive bool, reporter func(Result)) *Orchestrator {
	return &Orchestrator{
		steps:       steps,
		interactive: interactive,
		reporter:    reporter,
	}
}

func (o *Orchestrator) State() State {
	return o.state
}

// Run executes the steps in order. It always returns a report; failures of
// individual steps never escape as errors or panics.
func (o *Orchestrator) Run(ctx context.Context) Report {
	report := Report{}
	o.state = Running

	for _, step := range o.steps {
		if err := ctx.Err(); err != nil {
			report.Results = append(report.Results, o.report(Result{Step: step.Name, Status: Failed, Severity: Fatal, Err: err}))
			o.state = Aborted
			break
		}

		result := o.execute(ctx, step)
		report.Results = append(report.Results, o.report(result))

		if result.Status == Failed && result.Severity == Fatal {
			o.state = Aborted
			break
		}
	}

	if o.state == Running {
		o.state = Completed
	}
	report.State = o.state
	return report
}

func (o *Orchestrator) execute(ctx context.Context, step Step) Result {
	result := Result{Step: step.Name, Severity: step.Severity}
	if step.Interactive && !o.interactive {
		result.Status = Skipped
		return result
	}

	start := time.Now()
	err := runStep(ctx, step)
	result.Duration = time.Since(start)
	if err != nil {
		result.Status = Failed
		result.Err = err
		if errors.Is(err, ErrAborted) {
			result.Severity = Fatal
		}
		return result
	}
	result.Status = Succeeded
	return result
}

func (o *Orchestrator) report(result Result) Result {
	if o.reporter != nil {
		o.reporter(result)
	}
	return result
}

func runStep(ctx context.Context, step Step) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStepPanicked, r)
		}
	}()
	if step.Run == nil {
		return nil
	}
	return step.Run(ctx)
}
