package load

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeString(t *testing.T) {
	for _, in := range []string{"", "   ", "nan", "NaN", "None", "null", "NULL", "<NA>", " <NA> "} {
		assert.Nil(t, NormalizeString(in), "%q", in)
	}

	got := NormalizeString("  서울  ")
	require.NotNil(t, got)
	assert.Equal(t, "서울", *got)

	// Only the exact markers are absent.
	got = NormalizeString("Nan")
	require.NotNil(t, got)
	assert.Equal(t, "Nan", *got)
}

func TestCanonicalPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"01012345678", "010-1234-5678"},
		{"010 1234 5678", "010-1234-5678"},
		{"010-1234-5678", "010-1234-5678"},
		{"021234567", "02-123-4567"},
		{"0212345678", "02-1234-5678"},
		{"(02) 1234-5678", "02-1234-5678"},
		{"0311234567", "031-123-4567"},
		{"03112345678", "031-1234-5678"},
		{"15881234", "15881234"},
		{"1588-1234", "15881234"},
		{"123", "123"},
		{"12-3", "123"},
		{"02123456789", "021-2345-6789"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := CanonicalPhone(tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestCanonicalPhone_Absent(t *testing.T) {
	for _, in := range []string{"", "  ", "nan", "--", "없음"} {
		assert.Nil(t, CanonicalPhone(in), "%q", in)
	}
}

func TestSafeFloat(t *testing.T) {
	got := SafeFloat(" 37.5 ")
	require.NotNil(t, got)
	assert.Equal(t, 37.5, *got)

	for _, in := range []string{"", "nan", "NaN", "abc", "Inf", "<NA>"} {
		assert.Nil(t, SafeFloat(in), "%q", in)
	}
}

func TestSafeInt(t *testing.T) {
	tests := map[string]int{
		"1":    1,
		"0":    0,
		"1.0":  1,
		" 1 ":  1,
		"":     0,
		"nan":  0,
		"Y":    0,
		"None": 0,
	}
	for in, want := range tests {
		assert.Equal(t, want, SafeInt(in), "%q", in)
	}
}

func TestSafeFlag(t *testing.T) {
	tests := map[string]int{
		"1":     1,
		"1.0":   1,
		"0":     0,
		"0.0":   0,
		"2":     1,
		"-1":    1,
		"70000": 1,
		"0.5":   1,
		"":      0,
		"nan":   0,
		"inf":   0,
		"Y":     0,
	}
	for in, want := range tests {
		assert.Equal(t, want, SafeFlag(in), "%q", in)
	}
}
