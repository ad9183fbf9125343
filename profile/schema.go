// Package profile loads declarative YAML mapping profiles and hands them to
// the core through the plan builder API. It deliberately stays mechanical:
// parse, resolve type names, one builder call per declaration.
package profile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the root of a YAML mapping profile.
type File struct {
	// Version is the profile schema version.
	Version string `yaml:"version"`
	// Mappings lists the declared type pairs.
	Mappings []TypeMapping `yaml:"mappings"`
}

// TypeMapping declares one source-to-target pair and its overrides.
type TypeMapping struct {
	// Source and Target are registered type names, e.g. "store.Order".
	Source string `yaml:"source"`
	Target string `yaml:"target"`
	// Reverse also derives the inverse pair's plan.
	Reverse bool `yaml:"reverse"`
	// Ignore lists destination fields to skip.
	Ignore []string `yaml:"ignore"`
	// Fields lists per-field overrides.
	Fields []FieldMapping `yaml:"fields"`
}

// FieldMapping overrides how one destination field resolves.
type FieldMapping struct {
	// Target is the destination field name.
	Target string `yaml:"target"`
	// Source is a dotted path into the source type. Mutually exclusive
	// with Expr.
	Source string `yaml:"source"`
	// Expr is an access-chain expression over the source.
	Expr string `yaml:"expr"`
	// NullSubstitute replaces an empty resolved value.
	NullSubstitute any `yaml:"nullSubstitute"`
	// Preserve keeps the destination's current value on empty.
	Preserve bool `yaml:"preserve"`
}

// LoadFile loads and parses a YAML mapping profile from the given path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a File.
func Parse(data []byte) (*File, error) {
	var f File

	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse profile YAML: %w", err)
	}

	return &f, nil
}

// Lint performs structural checks that need no type information. It backs
// the lint CLI and runs again during Apply.
func (f *File) Lint() []error {
	var errs []error

	for i, tm := range f.Mappings {
		where := fmt.Sprintf("mappings[%d]", i)

		if tm.Source == "" {
			errs = append(errs, fmt.Errorf("%s: missing source type", where))
		}

		if tm.Target == "" {
			errs = append(errs, fmt.Errorf("%s: missing target type", where))
		}

		for j, fm := range tm.Fields {
			fwhere := fmt.Sprintf("%s.fields[%d]", where, j)

			if fm.Target == "" {
				errs = append(errs, fmt.Errorf("%s: missing target field", fwhere))
			}

			if fm.Source != "" && fm.Expr != "" {
				errs = append(errs, fmt.Errorf("%s: source and expr are mutually exclusive", fwhere))
			}
		}
	}

	return errs
}
