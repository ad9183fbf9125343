package chain

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	City string
}

type person struct {
	Name    string
	Address *address
	Scores  []int
}

// Initials is a pointer-receiver getter reached through the chain walker.
func (p *person) Initials() string {
	if p.Name == "" {
		return ""
	}

	return p.Name[:1]
}

// Best returns an error for an empty score list; the walker absorbs it.
func (p *person) Best() (int, error) {
	if len(p.Scores) == 0 {
		return 0, errors.New("no scores")
	}

	best := p.Scores[0]
	for _, s := range p.Scores[1:] {
		if s > best {
			best = s
		}
	}

	return best, nil
}

func TestEvalFieldChain(t *testing.T) {
	e := NewEvaluator(nil)
	src := person{Name: "Ada", Address: &address{City: "Paris"}}

	out := e.Eval(MustCompile("Address.City"), src)
	require.True(t, out.IsValid())
	assert.Equal(t, "Paris", out.Interface())
}

func TestEvalNilLinkShortCircuits(t *testing.T) {
	e := NewEvaluator(nil)
	src := person{Name: "Ada"}

	out := e.Eval(MustCompile("Address.City"), src)
	assert.False(t, out.IsValid())

	out = e.Eval(MustCompile("Address.City"), nil)
	assert.False(t, out.IsValid())
}

func TestEvalMethodCall(t *testing.T) {
	e := NewEvaluator(nil)

	out := e.Eval(MustCompile("Initials()"), person{Name: "Ada"})
	require.True(t, out.IsValid())
	assert.Equal(t, "A", out.Interface())

	// Case-insensitive method lookup, matching member resolution.
	out = e.Eval(MustCompile("initials()"), person{Name: "Ada"})
	require.True(t, out.IsValid())
	assert.Equal(t, "A", out.Interface())
}

func TestEvalMethodErrorAbsorbed(t *testing.T) {
	e := NewEvaluator(nil)

	out := e.Eval(MustCompile("Best()"), person{})
	assert.False(t, out.IsValid())

	out = e.Eval(MustCompile("Best()"), person{Scores: []int{3, 9, 4}})
	require.True(t, out.IsValid())
	assert.Equal(t, 9, out.Interface())
}

func TestEvalMissingMember(t *testing.T) {
	e := NewEvaluator(nil)

	out := e.Eval(MustCompile("NoSuchField"), person{Name: "Ada"})
	assert.False(t, out.IsValid())
}

func TestEvalExprFallback(t *testing.T) {
	e := NewEvaluator(nil)
	src := person{Name: "Ada", Scores: []int{1, 2, 3}}

	out := e.Eval(MustCompile(`Name + "!"`), src)
	require.True(t, out.IsValid())
	assert.Equal(t, "Ada!", out.Interface())

	// A runtime fault inside the program is absorbed into emptiness.
	out = e.Eval(MustCompile("Scores[9]"), src)
	assert.False(t, out.IsValid())
}

func TestEvalAs(t *testing.T) {
	e := NewEvaluator(nil)
	src := person{Scores: []int{5}}

	out := e.EvalAs(MustCompile("Best()"), src, reflect.TypeOf((*int64)(nil)).Elem())
	require.True(t, out.IsValid())
	assert.Equal(t, int64(5), out.Interface())

	out = e.EvalAs(MustCompile("Address.City"), src, reflect.TypeOf((*string)(nil)).Elem())
	assert.False(t, out.IsValid())
}

func TestEvalThroughPointerSource(t *testing.T) {
	e := NewEvaluator(nil)
	src := &person{Address: &address{City: "Oslo"}}

	out := e.Eval(MustCompile("Address.City"), src)
	require.True(t, out.IsValid())
	assert.Equal(t, "Oslo", out.Interface())
}
