package batterycode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidStructuredCode(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		valid bool
	}{
		{"full cell", fullCode, true},
		{"full pack lower-case", "ABCpB01234567JA118901234", true},
		{"full module", "ABCMB01234567JA118901234", true},
		{"recycled", "ABCCB01234567JA1189", true},
		{"unknown discriminator", "ABCXB01234567JA118901234", false},
		{"length 25 not in default set", fullCode + "Z", false},
		{"length 23", fullCode[:23], false},
		{"length 20", fullCode[:20], false},
		{"empty", "", false},
		{"three chars", "ABC", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidStructuredCode(tt.code), "code: %q", tt.code)
		})
	}
}

func TestValidator_EveryDiscriminatorAtFullLength(t *testing.T) {
	v := NewValidator()
	for _, c := range "CPMcpm" {
		code := "ABC" + string(c) + strings.Repeat("0", 20)
		assert.True(t, v.Validate(code), "discriminator %c", c)
	}
	for _, c := range "ABXZ0 _" {
		code := "ABC" + string(c) + strings.Repeat("0", 20)
		assert.False(t, v.Validate(code), "discriminator %c", c)
	}
}

func TestValidator_RejectsEveryOtherLength(t *testing.T) {
	v := NewValidator()
	for n := 0; n <= 40; n++ {
		code := strings.Repeat("C", n)
		want := n == LengthRecycled || n == LengthFull
		assert.Equal(t, want, v.Validate(code), "length %d", n)
	}
}

func TestValidator_ExtendedLengths(t *testing.T) {
	v := NewValidator(ExtendedValidLengths...)
	assert.True(t, v.Validate(fullCode+"Z"))
	assert.True(t, v.Validate(fullCode))
	assert.False(t, v.Validate(fullCode+"ZZ"))
	assert.Equal(t, []int{19, 24, 25}, v.Lengths())
}

func TestNewValidator_IgnoresNonPositive(t *testing.T) {
	v := NewValidator(24, 0, -3)
	assert.Equal(t, []int{24}, v.Lengths())
	assert.Equal(t, []int{19, 24}, NewValidator().Lengths())
}
