// Package chain evaluates member/method access-chain expressions against
// live values without ever failing on an absent link: the walk short-circuits
// to an empty result the moment an intermediate value is nil. Expressions
// that are not a plain chain fall back to a compiled expr program whose
// runtime errors are likewise absorbed into emptiness.
package chain

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Program is a compiled access-chain expression.
type Program struct {
	// Source is the original expression text.
	Source string

	// steps is non-nil when the expression is a simple member/method chain,
	// normalized to execution order (leftmost first).
	steps []step
	// prog is the expr fallback for everything that is not a simple chain.
	prog *vm.Program
}

// step is one link of a simple chain: a member access or a nullary call.
type step struct {
	name string
	call bool
}

// Compile parses an access-chain expression. Simple chains such as
// "Customer.Address.City" or "Lines.Total()" decompose into steps; anything
// else (operators, arguments, literals) compiles as a full expr program.
func Compile(source string) (*Program, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("empty chain expression")
	}

	if steps, ok := parseSteps(source); ok {
		return &Program{Source: source, steps: steps}, nil
	}

	prog, err := expr.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile chain expression %q: %w", source, err)
	}

	return &Program{Source: source, prog: prog}, nil
}

// MustCompile is Compile panicking on error, for static expressions.
func MustCompile(source string) *Program {
	p, err := Compile(source)
	if err != nil {
		panic(err)
	}

	return p
}

// IsChain reports whether the program decomposed into plain steps.
func (p *Program) IsChain() bool {
	return p.steps != nil
}

// parseSteps attempts to decompose source into chain steps.
func parseSteps(source string) ([]step, bool) {
	parts := strings.Split(source, ".")
	steps := make([]step, 0, len(parts))

	for _, part := range parts {
		s := step{name: part}
		if strings.HasSuffix(part, "()") {
			s.name = strings.TrimSuffix(part, "()")
			s.call = true
		}

		if !isIdent(s.name) {
			return nil, false
		}

		steps = append(steps, s)
	}

	return steps, true
}

// isIdent reports whether s is a plain Go identifier.
func isIdent(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		switch {
		case r == '_',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}

	return true
}
