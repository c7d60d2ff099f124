// Package policy provides an optional CEL-based security policy layered on
// top of the provider's static forbidden set and allowWrite flag (spec §3
// "security policy", SPEC_FULL.md DOMAIN STACK). A provider that has no
// policy configured falls back to the static rules alone.
package policy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/remobj/remobj-go/internal/wire"
)

// Safety limits on policy expressions, mirroring the teacher's CEL evaluator
// (internal/adapter/outbound/cel/evaluator.go): bound expression length,
// nesting depth, evaluation cost, and wall-clock time so a misconfigured or
// hostile policy expression cannot hang or blow up the dispatcher.
const (
	maxExpressionLength = 1024
	maxNestingDepth      = 50
	maxCostBudget        = 100_000
	evalTimeout          = 50 * time.Millisecond
)

// EvaluationContext is the set of variables a policy expression may
// reference: the property path being accessed, the operation being
// performed, and whether the provider was configured to allow writes.
type EvaluationContext struct {
	Path        string
	Operation   wire.OperationType
	AllowWrite  bool
}

// Evaluator compiles and evaluates a single CEL boolean expression against
// an EvaluationContext. A nil *Evaluator means "no policy configured";
// Allow on a nil *Evaluator permits every request.
type Evaluator struct {
	env *cel.Env
	prg cel.Program
}

// New compiles expression into an Evaluator. expression must evaluate to a
// bool; it sees path (string), operation (string), allow_write (bool).
func New(expression string) (*Evaluator, error) {
	if len(expression) > maxExpressionLength {
		return nil, fmt.Errorf("policy: expression too long: %d characters (max %d)", len(expression), maxExpressionLength)
	}
	if expression == "" {
		return nil, errors.New("policy: expression is empty")
	}
	if err := validateNesting(expression); err != nil {
		return nil, err
	}

	env, err := cel.NewEnv(
		cel.Variable("path", cel.StringType),
		cel.Variable("operation", cel.StringType),
		cel.Variable("allow_write", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("policy: building CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("policy: compilation failed: %w", issues.Err())
	}

	prg, err := env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
	)
	if err != nil {
		return nil, fmt.Errorf("policy: program creation failed: %w", err)
	}

	return &Evaluator{env: env, prg: prg}, nil
}

func validateNesting(expr string) error {
	var depth, maxDepth int
	for _, ch := range expr {
		switch ch {
		case '(', '[', '{':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case ')', ']', '}':
			depth--
		}
	}
	if maxDepth > maxNestingDepth {
		return fmt.Errorf("policy: expression nesting too deep: %d levels (max %d)", maxDepth, maxNestingDepth)
	}
	return nil
}

// Allow evaluates the policy against evalCtx and reports whether the
// operation is permitted. A timeout or evaluation failure denies the
// request rather than allowing it through.
func (e *Evaluator) Allow(evalCtx EvaluationContext) (bool, error) {
	if e == nil {
		return true, nil
	}

	vars := map[string]interface{}{
		"path":        evalCtx.Path,
		"operation":   string(evalCtx.Operation),
		"allow_write": evalCtx.AllowWrite,
	}

	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	result, _, err := e.prg.ContextEval(ctx, vars)
	if err != nil {
		return false, fmt.Errorf("policy: evaluation failed: %w", err)
	}

	allowed, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("policy: expression did not return a boolean, got %T", result.Value())
	}
	return allowed, nil
}
