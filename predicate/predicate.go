// Package predicate holds the pluggable tests used while extracting
// endpoints: which status is the main response, which statuses are errors and
// which media types are accepted. A predicate is either a Go function or a
// boolean expression compiled once with expr.
package predicate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ErrNotBoolean is returned when an expression compiles but does not yield a
// boolean.
var ErrNotBoolean = errors.New("expression does not evaluate to a boolean")

// Expression variables
const (
	StatusVariable    = "status"
	MediaTypeVariable = "mediaType"
)

// Predicate tests a value of type T.
type Predicate[T any] struct {
	fn       func(T) bool
	source   string
	variable string
	program  *vm.Program
}

// Func wraps fn.
func Func[T any](fn func(T) bool) Predicate[T] {
	return Predicate[T]{fn: fn}
}

// Status compiles an expression over `status`, e.g. `status >= 400`.
func Status(source string) (Predicate[int], error) {
	return compile[int](source, StatusVariable)
}

// MediaType compiles an expression over `mediaType`, e.g.
// `mediaType == "application/json"`.
func MediaType(source string) (Predicate[string], error) {
	return compile[string](source, MediaTypeVariable)
}

// MustStatus is like Status but panics on error.
func MustStatus(source string) Predicate[int] {
	p, err := Status(source)
	if err != nil {
		panic(err)
	}
	return p
}

// MustMediaType is like MediaType but panics on error.
func MustMediaType(source string) Predicate[string] {
	p, err := MediaType(source)
	if err != nil {
		panic(err)
	}
	return p
}

func compile[T any](source, variable string) (Predicate[T], error) {
	var zero T
	env := map[string]any{variable: zero}
	code := normalize(source)

	program, err := expr.Compile(code, expr.Env(env), expr.AsBool())
	if err != nil {
		if _, plainErr := expr.Compile(code, expr.Env(env)); plainErr == nil {
			return Predicate[T]{}, fmt.Errorf("%w: %q", ErrNotBoolean, source)
		}
		return Predicate[T]{}, fmt.Errorf("failed to compile expression %q: %w", source, err)
	}
	return Predicate[T]{source: source, variable: variable, program: program}, nil
}

// normalize accepts the strict equality operators of JavaScript.
func normalize(source string) string {
	source = strings.ReplaceAll(source, "!==", "!=")
	return strings.ReplaceAll(source, "===", "==")
}

// Eval tests v. A zero Predicate reports false.
func (p Predicate[T]) Eval(v T) (bool, error) {
	switch {
	case p.fn != nil:
		return p.fn(v), nil
	case p.program == nil:
		return false, nil
	}

	out, err := expr.Run(p.program, map[string]any{p.variable: v})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate %q: %w", p.source, err)
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("%w: %q returned %T", ErrNotBoolean, p.source, out)
	}
	return ok, nil
}

// Match is Eval with evaluation errors reported as false.
func (p Predicate[T]) Match(v T) bool {
	ok, err := p.Eval(v)
	return err == nil && ok
}

// IsZero reports whether the predicate was never set.
func (p Predicate[T]) IsZero() bool {
	return p.fn == nil && p.program == nil
}

// String returns the expression source, or "<func>" for function predicates.
func (p Predicate[T]) String() string {
	if p.fn != nil {
		return "<func>"
	}
	return p.source
}

// Defaults
var (
	DefaultMainResponseStatus = MustStatus("status === 200")
	DefaultErrorStatus        = MustStatus("!(status >= 200 && status < 300)")
	DefaultMediaType          = MustMediaType(`mediaType === "application/json"`)
)
