package rules

import (
	"fmt"

	"github.com/aretw0/stepform/pkg/domain"
)

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine string
	Expr   string
	Err    error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("%s evaluator expr=%q: %v", e.Engine, e.Expr, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

func compileError(engine, expr string, err error) error {
	return &domain.DefinitionError{
		Code:    domain.InvalidRule,
		Subject: fmt.Sprintf("%s expr=%q", engine, expr),
		Detail:  err.Error(),
	}
}

func evalError(engine, expr string, err error) error {
	if err == nil {
		return nil
	}
	return &EvaluationError{Engine: engine, Expr: expr, Err: err}
}
