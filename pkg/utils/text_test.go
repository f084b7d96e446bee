package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", 61)
	exact := strings.Repeat("b", 60)

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"empty", "", 60, ""},
		{"short", "river", 60, "river"},
		{"exactly at limit", exact, 60, exact},
		{"one over limit", long, 60, strings.Repeat("a", 60) + "..."},
		{"no limit", long, 0, long},
		{"counts runes not bytes", strings.Repeat("ŋ", 61), 60, strings.Repeat("ŋ", 60) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.max))
		})
	}
}

func TestOrDash(t *testing.T) {
	assert.Equal(t, "-", OrDash(""))
	assert.Equal(t, "   ", OrDash("   "))
	assert.Equal(t, "umfula", OrDash("umfula"))
}
