// Package mapper executes mapping plans against live object graphs. A Map
// call is a single linear pass: construct, before-hooks, field loop,
// after-hooks. Individual field faults are absorbed into the diagnostic sink
// and never fail the call.
package mapper

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"morph/chain"
	"morph/internal/diagnostic"
	"morph/plan"
)

// MaxFlattenDepth caps runtime traversal of flattened source paths. Longer
// paths are rejected and logged, never walked, to bound cyclic schema
// mistakes.
const MaxFlattenDepth = 10

// Mapper interprets mapping plans. It is safe for concurrent use; plans are
// immutable after construction and implicit plan creation is atomic.
type Mapper struct {
	registry *plan.Registry
	eval     *chain.Evaluator
	sink     diagnostic.Sink
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithSink routes per-field fault traces to a custom sink.
func WithSink(sink diagnostic.Sink) Option {
	return func(m *Mapper) {
		m.sink = sink
	}
}

// WithLogger routes per-field fault traces to a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mapper) {
		m.sink = diagnostic.NewSlogSink(logger)
	}
}

// New creates a Mapper over a configuration's plan registry.
func New(cfg *plan.Config, opts ...Option) *Mapper {
	m := &Mapper{
		registry: cfg.Registry(),
		eval:     chain.NewEvaluator(cfg.Registry().Types()),
		sink:     diagnostic.NewSlogSink(nil),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// CallOption adjusts a single Map call.
type CallOption func(*callState)

// callState carries per-call overrides; it never outlives the call.
type callState struct {
	// ignore holds lowercased destination field names suppressed for this
	// call only. Suppression applies to the top-level pair, not to nested
	// element or object plans.
	ignore map[string]bool
}

func (c *callState) ignored(name string) bool {
	return c != nil && c.ignore[strings.ToLower(name)]
}

// WithIgnore suppresses destination fields by name, case-insensitively, for
// this call only. The plan itself is not mutated.
func WithIgnore(names ...string) CallOption {
	return func(c *callState) {
		if c.ignore == nil {
			c.ignore = make(map[string]bool, len(names))
		}

		for _, n := range names {
			c.ignore[strings.ToLower(n)] = true
		}
	}
}

// Map maps src to a new destination of type D.
func Map[D any](m *Mapper, src any, opts ...CallOption) D {
	out := m.MapTo(src, reflect.TypeOf((*D)(nil)).Elem(), opts...)
	if out == nil {
		var zero D
		return zero
	}

	return out.(D)
}

// MapTo maps src to a freshly constructed value of dstType. A nil source
// yields the destination type's zero value without a plan lookup.
func (m *Mapper) MapTo(src any, dstType reflect.Type, opts ...CallOption) any {
	call := applyCallOptions(opts)

	out := m.mapValue(reflect.ValueOf(src), dstType, call)
	if !out.IsValid() {
		out = reflect.Zero(dstType)
	}

	return out.Interface()
}

// MapInto maps src onto an existing destination instance. dst must be a
// non-nil pointer to the destination value; construction is skipped and
// field rules run against the instance as-is, so preserved and ignored
// fields keep their current values.
func (m *Mapper) MapInto(src, dst any, opts ...CallOption) error {
	dstVal := reflect.ValueOf(dst)
	if dstVal.Kind() != reflect.Ptr || dstVal.IsNil() {
		return errors.New("mapper: destination must be a non-nil pointer")
	}

	srcVal := reflect.ValueOf(src)
	if isNil(srcVal) {
		return nil
	}

	call := applyCallOptions(opts)

	target := dstVal
	for target.Elem().Kind() == reflect.Ptr && !target.Elem().IsNil() {
		target = target.Elem()
	}

	if target.Elem().Kind() != reflect.Struct {
		out := m.mapValue(srcVal, target.Elem().Type(), call)
		if out.IsValid() {
			target.Elem().Set(out)
		}

		return nil
	}

	p := m.registry.GetOrCreate(srcVal.Type(), target.Elem().Type())
	if p.Guard != nil && !p.Guard(src) {
		return nil
	}

	m.applyRules(p, srcVal, src, target, call)

	return nil
}

func applyCallOptions(opts []CallOption) *callState {
	if len(opts) == 0 {
		return nil
	}

	call := &callState{}
	for _, opt := range opts {
		opt(call)
	}

	return call
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}

	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}
