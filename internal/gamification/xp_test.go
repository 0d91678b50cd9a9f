package gamification

import "testing"

func TestCalculateXP(t *testing.T) {
	tests := []struct {
		name     string
		score    int
		maxScore int
		want     int
	}{
		{"zero score", 0, 200, 0},
		{"negative score", -40, 200, 0},
		{"full score", 200, 200, 100},
		{"above max is clamped", 400, 200, 100},
		{"half score", 100, 200, 50},
		{"three quarters", 150, 200, 75},
		{"quarter", 50, 200, 25},
		{"fraction rounds up", 1, 200, 1},
		{"odd score rounds up", 3, 200, 2},
		{"exact quotient does not overshoot", 7, 100, 7},
		{"default max when zero", 100, 0, 50},
		{"default max when negative", 100, -5, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateXP(tt.score, tt.maxScore); got != tt.want {
				t.Errorf("CalculateXP(%d, %d) = %d, want %d", tt.score, tt.maxScore, got, tt.want)
			}
		})
	}
}

func TestCalculateXP_AlwaysInRange(t *testing.T) {
	for score := -50; score <= 500; score++ {
		xp := CalculateXP(score, DefaultMaxScore)
		if xp < 0 || xp > MaxXPPerGame {
			t.Fatalf("CalculateXP(%d) = %d, outside [0, %d]", score, xp, MaxXPPerGame)
		}
	}
}

func TestTotalXP(t *testing.T) {
	if got := TotalXP([]int{100, 150, 50}); got != 150 {
		t.Errorf("TotalXP([100 150 50]) = %d, want 150", got)
	}
	if got := TotalXP(nil); got != 0 {
		t.Errorf("TotalXP(nil) = %d, want 0", got)
	}
}
