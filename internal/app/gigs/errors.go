package gigs

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"agentlyou/shared/go/models"
)

var (
	// ErrNotClient is returned when the actor lacks the client capability.
	ErrNotClient = errors.New("actor is not a client")
	// ErrNotAgent is returned when the assignee lacks the agent capability.
	ErrNotAgent = errors.New("assignee is not an agent")
	// ErrNotOwner is returned when the actor did not post the gig.
	ErrNotOwner = errors.New("actor does not own the gig")
)

// FieldValidationError collects human readable problems per payload field.
type FieldValidationError struct {
	Fields map[string][]string
}

// Add records msg against field.
func (e *FieldValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Merge copies every problem of other into e. other may be nil.
func (e *FieldValidationError) Merge(other error) {
	var fe *FieldValidationError
	if !errors.As(other, &fe) || fe == nil {
		return
	}
	for field, msgs := range fe.Fields {
		for _, msg := range msgs {
			e.Add(field, msg)
		}
	}
}

// Err returns e when it holds at least one problem and nil otherwise.
func (e *FieldValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *FieldValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return "invalid gig: " + strings.Join(parts, "; ")
}

// TransitionError reports a status change attempted from the wrong state.
type TransitionError struct {
	Target   models.GigStatus
	Required []models.GigStatus
	Actual   models.GigStatus
}

func (e *TransitionError) Error() string {
	quoted := make([]string, len(e.Required))
	for i, st := range e.Required {
		quoted[i] = "'" + string(st) + "'"
	}
	return fmt.Sprintf("Only gigs with status %s can be %s", strings.Join(quoted, " or "), transitionVerb(e.Target))
}

func transitionVerb(target models.GigStatus) string {
	switch target {
	case models.GigStatusPublished:
		return "published"
	case models.GigStatusAgentConfirmed:
		return "assigned to an agent"
	case models.GigStatusCompleted:
		return "completed"
	case models.GigStatusCancelled:
		return "cancelled"
	}
	return "moved to " + string(target)
}

// NotEditableError reports an update on a gig whose status forbids edits.
type NotEditableError struct {
	Status models.GigStatus
}

func (e *NotEditableError) Error() string {
	return "This gig cannot be modified because it has already been assigned to an agent, completed, or cancelled."
}
