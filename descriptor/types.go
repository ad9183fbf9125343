package descriptor

import (
	"reflect"
	"strings"
)

// Member describes one named structural member of a type: an exported struct
// field, or a zero-argument single-result getter method (readable only).
type Member struct {
	// Name is the member's declared name.
	Name string
	// Type is the member's declared type (the result type for getters).
	Type reflect.Type
	// FieldIndex is the struct field index chain, nil for getter methods.
	FieldIndex []int
	// MethodIndex is the method index on the described type, -1 for fields.
	MethodIndex int
	// Readable is true when the member can produce a value.
	Readable bool
	// Writable is true when the member can be assigned (fields only).
	Writable bool
}

// IsGetter reports whether the member is backed by a method.
func (m *Member) IsGetter() bool {
	return m.MethodIndex >= 0
}

// Read returns the member's value on an instance of the described type.
// v must be the struct value itself (not a pointer).
func (m *Member) Read(v reflect.Value) reflect.Value {
	if !m.IsGetter() {
		return v.FieldByIndex(m.FieldIndex)
	}

	recv := v
	if !recv.CanAddr() {
		// Methods are resolved on the pointer type, so a stable address
		// is needed for pointer receivers.
		ptr := reflect.New(v.Type())
		ptr.Elem().Set(v)
		recv = ptr.Elem()
	}

	out := recv.Addr().Method(m.MethodIndex).Call(nil)

	return out[0]
}

// Write assigns x to the member on an instance of the described type.
// v must be an addressable struct value.
func (m *Member) Write(v reflect.Value, x reflect.Value) {
	v.FieldByIndex(m.FieldIndex).Set(x)
}

// Info holds the structural members of a type in declaration order.
type Info struct {
	// Type is the described type with pointers stripped.
	Type reflect.Type
	// Kind is the mapping classification of Type.
	Kind Kind
	// Members lists readable and writable members in declaration order,
	// fields first, then getter methods.
	Members []Member
}

// Readable returns the members usable on the source side of a mapping.
func (i *Info) Readable() []Member {
	out := make([]Member, 0, len(i.Members))

	for _, m := range i.Members {
		if m.Readable {
			out = append(out, m)
		}
	}

	return out
}

// Writable returns the members usable on the destination side of a mapping.
func (i *Info) Writable() []Member {
	out := make([]Member, 0, len(i.Members))

	for _, m := range i.Members {
		if m.Writable {
			out = append(out, m)
		}
	}

	return out
}

// Member returns the member with the given name, matched case-insensitively,
// or nil when no such member exists.
func (i *Info) Member(name string) *Member {
	for idx := range i.Members {
		if strings.EqualFold(i.Members[idx].Name, name) {
			return &i.Members[idx]
		}
	}

	return nil
}
