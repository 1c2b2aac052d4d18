package rules

import (
	"fmt"
	"reflect"

	"github.com/dop251/goja"
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/traits"
)

// --- expr ---

type exprEvaluator struct{}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr.
func NewExprEvaluator() Evaluator { return exprEvaluator{} }

func (exprEvaluator) Name() string { return EngineExpr }

func (exprEvaluator) Compile(expression string, _ []string) (Program, error) {
	program, err := exprlang.Compile(expression,
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, compileError(EngineExpr, expression, err)
	}
	return &exprProgram{src: expression, program: program}, nil
}

type exprProgram struct {
	src     string
	program *exprvm.Program
}

func (p *exprProgram) Engine() string { return EngineExpr }
func (p *exprProgram) Source() string { return p.src }

func (p *exprProgram) Eval(env map[string]any) (any, error) {
	out, err := exprlang.Run(p.program, env)
	return out, evalError(EngineExpr, p.src, err)
}

// --- cel ---

type celEvaluator struct{}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Every variable is
// declared dynamically typed.
func NewCELEvaluator() Evaluator { return celEvaluator{} }

func (celEvaluator) Name() string { return EngineCEL }

func (celEvaluator) Compile(expression string, vars []string) (Program, error) {
	opts := make([]celgo.EnvOption, 0, len(vars))
	for _, v := range vars {
		opts = append(opts, celgo.Variable(v, celgo.DynType))
	}
	env, err := celgo.NewEnv(opts...)
	if err != nil {
		return nil, compileError(EngineCEL, expression, err)
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, compileError(EngineCEL, expression, issues.Err())
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, compileError(EngineCEL, expression, issues.Err())
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, compileError(EngineCEL, expression, err)
	}
	return &celProgram{src: expression, vars: vars, program: prg}, nil
}

type celProgram struct {
	src     string
	vars    []string
	program celgo.Program
}

func (p *celProgram) Engine() string { return EngineCEL }
func (p *celProgram) Source() string { return p.src }

func (p *celProgram) Eval(env map[string]any) (any, error) {
	activation := make(map[string]any, len(p.vars))
	for _, v := range p.vars {
		activation[v] = plainValue(env[v])
	}
	out, _, err := p.program.Eval(activation)
	if err != nil {
		return nil, evalError(EngineCEL, p.src, err)
	}
	if _, ok := out.(traits.Lister); ok {
		if native, err := out.ConvertToNative(reflect.TypeOf([]string{})); err == nil {
			return native, nil
		}
	}
	return out.Value(), nil
}

// plainValue converts form values into the generic shapes script engines
// handle best.
func plainValue(v any) any {
	switch t := v.(type) {
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plainValue(e)
		}
		return out
	}
	return v
}

// --- js ---

type jsEvaluator struct{}

// NewJSEvaluator constructs an Evaluator backed by goja. Each evaluation
// runs in a fresh runtime; compiled programs are shared.
func NewJSEvaluator() Evaluator { return jsEvaluator{} }

func (jsEvaluator) Name() string { return EngineJS }

func (jsEvaluator) Compile(expression string, _ []string) (Program, error) {
	program, err := goja.Compile("", wrapJS(expression), false)
	if err != nil {
		return nil, compileError(EngineJS, expression, err)
	}
	return &jsProgram{src: expression, program: program}, nil
}

func wrapJS(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

type jsProgram struct {
	src     string
	program *goja.Program
}

func (p *jsProgram) Engine() string { return EngineJS }
func (p *jsProgram) Source() string { return p.src }

func (p *jsProgram) Eval(env map[string]any) (any, error) {
	vm := goja.New()
	for k, v := range env {
		if err := vm.Set(k, plainValue(v)); err != nil {
			return nil, evalError(EngineJS, p.src, err)
		}
	}
	value, err := vm.RunProgram(p.program)
	if err != nil {
		return nil, evalError(EngineJS, p.src, err)
	}
	return value.Export(), nil
}
