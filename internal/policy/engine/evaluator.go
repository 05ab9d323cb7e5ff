// Package engine evaluates resource ownership rules with OPA Rego.
package engine

import "context"

// Action names a guarded operation on a resource.
type Action string

const (
	ActionTaskUpdate    Action = "task.update"
	ActionCommentUpdate Action = "comment.update"
	ActionCommentDelete Action = "comment.delete"
)

// Subject is the authenticated caller.
type Subject struct {
	UserID string
	OrgID  string
	Role   string
}

// Resource describes the row being acted on. Fields that do not apply are left empty.
type Resource struct {
	OrgID      string
	CreatedBy  string
	AssignedTo string
	AuthorID   string
}

// Input is one authorization question.
type Input struct {
	Action   Action
	Subject  Subject
	Resource Resource
}

// Evaluator decides whether a subject may perform an action on a resource.
type Evaluator interface {
	// Allow returns false with a non-nil error when the policy cannot be evaluated.
	Allow(ctx context.Context, in Input) (bool, error)
}
