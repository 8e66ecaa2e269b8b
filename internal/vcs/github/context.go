package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

const (
	EventPush             = "push"
	EventPullRequest      = "pull_request"
	EventWorkflowDispatch = "workflow_dispatch"
	EventSchedule         = "schedule"
)

var (
	// ErrMalformedContext is returned when the Actions context cannot be
	// decoded or lacks fields its event kind requires.
	ErrMalformedContext = errors.New("malformed github context")
	// ErrInvalidPRNumber is returned when a merge-train try ref does not end
	// in a pull request number.
	ErrInvalidPRNumber = errors.New("invalid pull request number")
)

// EventContext is the subset of the Actions "github" context the planner
// reads. It is decoded once per invocation and never mutated.
type EventContext struct {
	EventName        string
	Ref              string
	PRNumber         *int
	HeadRepoFullName string
}

type actionsContext struct {
	EventName string `json:"event_name"`
	Ref       string `json:"ref"`
	Event     struct {
		Number      *int `json:"number"`
		PullRequest *struct {
			Head struct {
				Repo *struct {
					FullName string `json:"full_name"`
				} `json:"repo"`
			} `json:"head"`
		} `json:"pull_request"`
	} `json:"event"`
}

// ParseContext decodes the JSON produced by toJSON(github) in a workflow.
func ParseContext(r io.Reader) (EventContext, error) {
	var raw actionsContext
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return EventContext{}, fmt.Errorf("%w: decode: %v", ErrMalformedContext, err)
	}
	if strings.TrimSpace(raw.EventName) == "" {
		return EventContext{}, fmt.Errorf("%w: event_name missing", ErrMalformedContext)
	}

	evt := EventContext{
		EventName: raw.EventName,
		Ref:       raw.Ref,
	}
	if raw.EventName != EventPullRequest {
		return evt, nil
	}

	if raw.Event.Number == nil {
		return EventContext{}, fmt.Errorf("%w: pull_request event missing number", ErrMalformedContext)
	}
	pr := raw.Event.PullRequest
	if pr == nil || pr.Head.Repo == nil || strings.TrimSpace(pr.Head.Repo.FullName) == "" {
		return EventContext{}, fmt.Errorf("%w: pull_request event missing head repository", ErrMalformedContext)
	}
	number := *raw.Event.Number
	evt.PRNumber = &number
	evt.HeadRepoFullName = pr.Head.Repo.FullName
	return evt, nil
}

// MergeStage names a sub-stage of the merge-train automation.
type MergeStage string

const (
	// StageAny matches every merge-train push regardless of stage.
	StageAny   MergeStage = ""
	StageTry   MergeStage = "try"
	StageMerge MergeStage = "merge"
)

// Policy holds the repository-specific values classification depends on.
type Policy struct {
	// Repository is the canonical upstream full name, e.g. "owner/repo".
	Repository string
	// MergeTrainPrefix is the ref prefix of merge-train pushes, including the
	// trailing slash.
	MergeTrainPrefix string
}

// Classification is the set of facts every family decision reads.
type Classification struct {
	PullRequest       bool
	ForkPullRequest   bool
	MergeTrain        bool
	Stage             MergeStage
	ManualOrScheduled bool
	PRNumber          *int
}

// InMergeTrain reports whether the event is a merge-train push in the given
// stage. StageAny matches any merge-train push.
func (c Classification) InMergeTrain(stage MergeStage) bool {
	if !c.MergeTrain {
		return false
	}
	return stage == StageAny || c.Stage == stage
}

// Classify derives the classification of evt. Unknown event names classify
// as none of the known kinds. The only error is a try-stage ref whose suffix
// is not a pull request number.
func Classify(evt EventContext, policy Policy) (Classification, error) {
	var c Classification

	switch evt.EventName {
	case EventPullRequest:
		c.PullRequest = true
		c.ForkPullRequest = !sameRepository(evt.HeadRepoFullName, policy.Repository)
		if evt.PRNumber != nil {
			number := *evt.PRNumber
			c.PRNumber = &number
		}
	case EventPush:
		if policy.MergeTrainPrefix != "" && strings.HasPrefix(evt.Ref, policy.MergeTrainPrefix) {
			c.MergeTrain = true
			c.Stage = mergeStage(strings.TrimPrefix(evt.Ref, policy.MergeTrainPrefix))
		}
	case EventWorkflowDispatch, EventSchedule:
		c.ManualOrScheduled = true
	}

	if c.InMergeTrain(StageTry) {
		suffix := strings.TrimPrefix(evt.Ref, policy.MergeTrainPrefix+string(StageTry)+"/")
		number, err := parsePRNumber(suffix)
		if err != nil {
			return Classification{}, fmt.Errorf("ref %q: %w", evt.Ref, err)
		}
		c.PRNumber = &number
	}

	return c, nil
}

func mergeStage(rest string) MergeStage {
	for _, stage := range []MergeStage{StageTry, StageMerge} {
		if strings.HasPrefix(rest, string(stage)+"/") {
			return stage
		}
	}
	return StageAny
}

func parsePRNumber(value string) (int, error) {
	number, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPRNumber, value)
	}
	if number <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPRNumber, number)
	}
	return number, nil
}

func sameRepository(a, b string) bool {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(a)) == fold.String(strings.TrimSpace(b))
}
