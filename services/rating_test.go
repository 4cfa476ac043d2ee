package services

import (
	"math"
	"testing"
)

func TestKFactor(t *testing.T) {
	tests := []struct {
		name        string
		gamesPlayed int
		expected    int
	}{
		{name: "brand new player", gamesPlayed: 0, expected: 40},
		{name: "last game of new tier", gamesPlayed: 14, expected: 40},
		{name: "first game of established tier", gamesPlayed: 15, expected: 24},
		{name: "last game of established tier", gamesPlayed: 29, expected: 24},
		{name: "first game of veteran tier", gamesPlayed: 30, expected: 16},
		{name: "long-time veteran", gamesPlayed: 100, expected: 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KFactor(tt.gamesPlayed); got != tt.expected {
				t.Errorf("KFactor(%d) = %d, want %d", tt.gamesPlayed, got, tt.expected)
			}
		})
	}
}

func TestExpectedScoreEqualRatings(t *testing.T) {
	for _, elo := range []float64{1000, 1500, 1800, 2400} {
		if got := ExpectedScore(elo, elo); math.Abs(got-0.5) > 1e-9 {
			t.Errorf("ExpectedScore(%v, %v) = %v, want 0.5", elo, elo, got)
		}
	}
}

func TestExpectedScoreSymmetry(t *testing.T) {
	pairs := [][2]float64{
		{1500, 1500},
		{1600, 1500},
		{1200, 1900},
		{2100, 1450},
	}
	for _, p := range pairs {
		sum := ExpectedScore(p[0], p[1]) + ExpectedScore(p[1], p[0])
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("ExpectedScore(%v,%v) + reverse = %v, want 1.0", p[0], p[1], sum)
		}
	}
}

func TestExpectedScoreFavorsHigherRating(t *testing.T) {
	if ExpectedScore(1600, 1500) <= 0.5 {
		t.Error("higher-rated side should expect more than 0.5")
	}
	if ExpectedScore(1500, 1600) >= 0.5 {
		t.Error("lower-rated side should expect less than 0.5")
	}
	// 400 points of difference is one order of magnitude in the odds
	if got := ExpectedScore(1900, 1500); math.Abs(got-10.0/11.0) > 1e-9 {
		t.Errorf("ExpectedScore(1900, 1500) = %v, want %v", got, 10.0/11.0)
	}
}
