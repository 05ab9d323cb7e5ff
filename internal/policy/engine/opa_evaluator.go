package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/open-policy-agent/opa/v1/rego"
)

const policyQuery = "data.projecthub.authz.allow"

// DefaultPolicy is the built-in ownership policy. Managers may update any task of their
// organization; the creator and the assignee may update their own task; only the author
// may edit or delete a comment.
const DefaultPolicy = `package projecthub.authz

default allow := false

managers := {"ORG_ADMIN", "PROJECT_MANAGER"}

same_org if {
	input.subject.user_id != ""
	input.subject.organization_id != ""
	input.subject.organization_id == input.resource.organization_id
}

allow if {
	input.action == "task.update"
	same_org
	managers[input.subject.role]
}

allow if {
	input.action == "task.update"
	same_org
	input.resource.created_by == input.subject.user_id
}

allow if {
	input.action == "task.update"
	same_org
	input.resource.assigned_to == input.subject.user_id
}

allow if {
	input.action in {"comment.update", "comment.delete"}
	same_org
	input.resource.author_id == input.subject.user_id
}
`

// ErrNoResult is returned when the policy does not define allow for the input.
var ErrNoResult = errors.New("policy query returned no result")

// OPAEvaluator evaluates a compiled Rego policy. It is safe for concurrent use.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles source, which must define data.projecthub.authz.allow.
// An empty source selects DefaultPolicy.
func NewOPAEvaluator(ctx context.Context, source string) (*OPAEvaluator, error) {
	if source == "" {
		source = DefaultPolicy
	}
	q, err := rego.New(
		rego.Query(policyQuery),
		rego.Module("authz.rego", source),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile policy: %w", err)
	}
	return &OPAEvaluator{query: q}, nil
}

// LoadPolicy returns the contents of path, or DefaultPolicy when path is empty.
func LoadPolicy(path string) (string, error) {
	if path == "" {
		return DefaultPolicy, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read policy file: %w", err)
	}
	return string(b), nil
}

// Allow implements Evaluator. Evaluation failures deny.
func (e *OPAEvaluator) Allow(ctx context.Context, in Input) (bool, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(buildInput(in)))
	if err != nil {
		slog.WarnContext(ctx, "policy evaluation failed", "action", in.Action, "error", err)
		return false, fmt.Errorf("eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, ErrNoResult
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("policy returned %T, want bool", rs[0].Expressions[0].Value)
	}
	return allowed, nil
}

// HealthCheck evaluates the compiled policy against a minimal input.
// It does not touch the database. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	_, err := e.Allow(ctx, Input{Action: ActionTaskUpdate})
	return err
}

func buildInput(in Input) map[string]any {
	return map[string]any{
		"action": string(in.Action),
		"subject": map[string]any{
			"user_id":         in.Subject.UserID,
			"organization_id": in.Subject.OrgID,
			"role":            in.Subject.Role,
		},
		"resource": map[string]any{
			"organization_id": in.Resource.OrgID,
			"created_by":      in.Resource.CreatedBy,
			"assigned_to":     in.Resource.AssignedTo,
			"author_id":       in.Resource.AuthorID,
		},
	}
}
