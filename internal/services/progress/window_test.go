// window_test.go — Unit tests for progress-to-chunk-window mapping.
package progress

import (
	"testing"
)

func TestWindowSize(t *testing.T) {
	tests := []struct {
		name  string
		total int
		pct   float64
		want  int
	}{
		{"zero progress covers nothing", 100, 0, 0},
		{"full progress covers everything", 100, 100, 100},
		{"half progress covers half", 100, 50, 50},
		{"fractional progress rounds up", 100, 0.5, 1},
		{"ceil on uneven totals", 3, 50, 2},
		{"no chunks yields empty window", 0, 50, 0},
		{"negative progress clamps to zero", 100, -5, 0},
		{"overshoot clamps to total", 100, 150, 100},
		{"tiny progress still covers a chunk", 1000, 0.01, 1},
		{"single chunk document", 1, 30, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WindowSize(tt.total, tt.pct)
			if got != tt.want {
				t.Errorf("WindowSize(%d, %v) = %d, want %d", tt.total, tt.pct, got, tt.want)
			}
		})
	}
}

// TestWindowSizeMonotonic verifies the prefix property: more progress
// never shrinks the window.
func TestWindowSizeMonotonic(t *testing.T) {
	const total = 37
	prev := 0
	for pct := 0.0; pct <= 100; pct += 0.7 {
		n := WindowSize(total, pct)
		if n < prev {
			t.Fatalf("WindowSize(%d, %v) = %d, shrank from %d", total, pct, n, prev)
		}
		if n > total {
			t.Fatalf("WindowSize(%d, %v) = %d, exceeds total", total, pct, n)
		}
		prev = n
	}
}
