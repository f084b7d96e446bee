package keyword

import (
	"math"
	"testing"
)

func TestMatchRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"umfula", "umfula", 1},
		{"umfula", "umfulo", 10.0 / 12},
		{"umfula", "umf", 6.0 / 9},
		{"abc", "xyz", 0},
		{"inja", "", 0},
		{"umfundi", "umfulo", 8.0 / 13},
		{"abxcd", "abcd", 8.0 / 9},
		{"isiZulu", "isizulu", 12.0 / 14},
	}
	for _, tt := range tests {
		got := MatchRatio(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("MatchRatio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestMatchRatio_ShortQueryPassesCutoff(t *testing.T) {
	if got := MatchRatio("umfula", "umf"); got < 0.6 {
		t.Errorf("MatchRatio(umfula, umf) = %v, want at least 0.6", got)
	}
}

func BenchmarkMatchRatio_Short(b *testing.B) {
	for i := 0; i < b.N; i++ {
		MatchRatio("kitten", "sitting")
	}
}
