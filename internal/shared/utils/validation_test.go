package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		required bool
		wantErr  bool
	}{
		{"uuid", "3f2b8c1e-9a4d-4e7b-8c21-7d5a0e6f1b2c", true, false},
		{"prefixed", "ws_01HZX3K9Q7", true, false},
		{"empty required", "", true, true},
		{"empty optional", "", false, false},
		{"slash", "vm/1", true, true},
		{"space", "vm 1", true, true},
		{"too long", strings.Repeat("a", MaxIDLength+1), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id, "vm_id", tt.required)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateQuery(t *testing.T) {
	assert.NoError(t, ValidateQuery(""))
	assert.NoError(t, ValidateQuery("web-01"))
	assert.Error(t, ValidateQuery(strings.Repeat("q", MaxQueryLength+1)))
	assert.Error(t, ValidateQuery("bad\x00query"))
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"web-01", "web-01"},
		{"  padded  ", "padded"},
		{"<b>bold</b>", "bold"},
		{"db & cache", "db & cache"},
		{`<script>alert(1)</script>db`, "db"},
		{`<img src=x onerror=alert(1)>`, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeName(tt.in), "input %q", tt.in)
	}

	long := SanitizeName(strings.Repeat("x", MaxNameLength+10))
	assert.Len(t, long, MaxNameLength)
}
