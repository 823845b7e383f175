package macro

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orizon-lang/declview/internal/stub"
)

func TestFullName(t *testing.T) {
	imports := []stub.Import{
		{Path: "lib.macros.Data"},
		{Path: "lib.other.*", AllUnder: true},
		{Path: "lib.ser.Json", Alias: "J"},
		{Path: "a.Twice"},
		{Path: "b.Twice"},
		{Path: "lib.pkg"},
	}
	tests := []struct {
		written string
		want    string
		ok      bool
	}{
		{"Data", "lib.macros.Data", true},
		{"J", "lib.ser.Json", true},
		{"Json", "Json", true},
		{"Unknown", "Unknown", true},
		{"pkg.Macro", "lib.pkg.Macro", true},
		{"other.Macro", "other.Macro", true},
		{"Twice", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.written, func(t *testing.T) {
			got, ok := FullName(tt.written, imports)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	got, ok := FullName("Data", nil)
	assert.True(t, ok)
	assert.Equal(t, "Data", got)
}
