package plan

import (
	"fmt"
	"reflect"

	"morph/descriptor"
	"morph/internal/diagnostic"
)

// Config is the configuration surface handed to the outer collaborators:
// they collect type pairs and configuration actions and apply them here.
// Configuration is expected to finish before concurrent mapping begins.
type Config struct {
	types    *descriptor.Resolver
	registry *Registry
	diags    diagnostic.Diagnostics
}

// NewConfig creates an empty mapping configuration.
func NewConfig() *Config {
	types := descriptor.NewResolver()

	return &Config{
		types:    types,
		registry: NewRegistry(types),
	}
}

// Registry returns the plan registry backing this configuration.
func (c *Config) Registry() *Registry {
	return c.registry
}

// Diagnostics returns the findings collected during configuration.
func (c *Config) Diagnostics() *diagnostic.Diagnostics {
	return &c.diags
}

// CreateMap registers the convention-built plan for a type pair, overwriting
// any previous registration, and returns a builder for customizing it.
// Overwriting is legal but usually a configuration mistake, so it leaves a
// warning behind.
func (c *Config) CreateMap(src, dst reflect.Type) *Builder {
	if prior := c.registry.Lookup(src, dst); prior != nil {
		c.diags.AddWarning("plan_replaced",
			"previous mapping plan for this pair was overwritten",
			prior.Pair.String(), "")
	}

	p := BuildPlan(c.types, src, dst)
	c.registry.Register(p)

	return &Builder{config: c, plan: p}
}

// MapTypes is the generic convenience form of CreateMap.
func MapTypes[S, D any](c *Config) *Builder {
	return c.CreateMap(reflect.TypeOf((*S)(nil)).Elem(), reflect.TypeOf((*D)(nil)).Elem())
}

// ConfigError reports a destination field that no rule can populate, or a
// configuration action that could not be applied.
type ConfigError struct {
	// TypePair names the plan the error belongs to.
	TypePair string
	// Field is the affected destination field, when field-scoped.
	Field string
	// Reason is the human-readable explanation.
	Reason string
}

// Error implements the error interface.
func (e ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: field %s: %s", e.TypePair, e.Field, e.Reason)
	}

	return fmt.Sprintf("%s: %s", e.TypePair, e.Reason)
}

// Validate checks every registered plan for destination fields that are
// neither ignored nor resolvable, and surfaces configuration actions that
// failed earlier. The collection is non-fatal; the caller decides whether
// to treat it as such.
func (c *Config) Validate() []ConfigError {
	var errs []ConfigError

	for _, p := range c.registry.All() {
		for i := range p.Rules {
			rule := &p.Rules[i]
			if rule.Mode == ModeIgnored || rule.Resolvable() {
				continue
			}

			errs = append(errs, ConfigError{
				TypePair: p.Pair.String(),
				Field:    rule.Dest.Name,
				Reason:   "no source member, flattening path, or custom rule resolves this field",
			})
		}
	}

	for _, d := range c.diags.Errors {
		errs = append(errs, ConfigError{
			TypePair: d.TypePair,
			Field:    d.Field,
			Reason:   d.Message,
		})
	}

	return errs
}
