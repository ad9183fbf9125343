package diagnostic

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticsCollect(t *testing.T) {
	var d Diagnostics

	assert.False(t, d.HasErrors())
	assert.NoError(t, d.Error())

	d.AddInfo("matched", "resolved by convention", "Order->OrderRecord", "ID")
	d.AddWarning("coerced", "lossy numeric conversion", "Order->OrderRecord", "TotalCents")
	d.AddError("unknown_field", "destination field does not exist", "Order->OrderRecord", "Ghost")

	assert.Len(t, d.Infos, 1)
	assert.Len(t, d.Warnings, 1)
	assert.Len(t, d.Errors, 1)
	assert.True(t, d.HasErrors())

	err := d.Error()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown_field")
	assert.Contains(t, err.Error(), "Ghost")
}

func TestDiagnosticsMerge(t *testing.T) {
	var a, b Diagnostics

	a.AddWarning("w1", "first", "", "")
	b.AddWarning("w2", "second", "", "")
	b.AddError("e1", "broken", "", "")

	a.Merge(b)

	assert.Len(t, a.Warnings, 2)
	assert.Len(t, a.Errors, 1)
}

func TestDiagnosticString(t *testing.T) {
	tests := []struct {
		name     string
		diag     Diagnostic
		expected string
	}{
		{
			name:     "full",
			diag:     Diagnostic{Code: "c", Message: "m", TypePair: "A->B", Field: "F"},
			expected: "[A->B] F: [c] m",
		},
		{
			name:     "message only",
			diag:     Diagnostic{Message: "m"},
			expected: "m",
		},
		{
			name:     "no field",
			diag:     Diagnostic{Code: "c", Message: "m", TypePair: "A->B"},
			expected: "[A->B]: [c] m",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.diag.String())
		})
	}
}

func TestSlogSink(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := NewSlogSink(logger)

	sink.FieldFault("Order->OrderRecord", "TotalCents", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "TotalCents")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "Order->OrderRecord")
}

func TestDiscardSink(t *testing.T) {
	// Must not panic on any input.
	Discard.FieldFault("", "", nil)
}
