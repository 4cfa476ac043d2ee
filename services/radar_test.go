package services

import (
	"testing"

	"tcg-tournament-system/models"

	"github.com/stretchr/testify/assert"
)

func TestSkillPercentile(t *testing.T) {
	tests := []struct {
		name       string
		elo        float64
		population []float64
		expected   float64
	}{
		{name: "empty population is neutral", elo: 1500, population: nil, expected: 50.0},
		{name: "lowest rated", elo: 1400, population: []float64{1400, 1500, 1600, 1700}, expected: 25.0},
		{name: "midfield", elo: 1550, population: []float64{1400, 1500, 1600, 1700}, expected: 50.0},
		{name: "top rated counts itself", elo: 1700, population: []float64{1400, 1500, 1600, 1700}, expected: 100.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, skillPercentile(tt.elo, tt.population), 1e-9)
		})
	}
}

func TestExperienceScore(t *testing.T) {
	assert.Equal(t, 0.0, experienceScore(0))
	assert.InDelta(t, 100.0, experienceScore(30), 1e-9, "30 games is full experience")
	assert.Equal(t, 100.0, experienceScore(500), "score clamps at 100")
	assert.Less(t, experienceScore(5), experienceScore(15), "log scale still grows")
}

func TestClutchScore(t *testing.T) {
	assert.Equal(t, 50.0, clutchScore(0, 0), "no upset chances yet stays neutral")
	assert.InDelta(t, 0.0, clutchScore(0, 4), 1e-9)
	assert.InDelta(t, 75.0, clutchScore(3, 4), 1e-9)
}

func TestTopCutScore(t *testing.T) {
	assert.Equal(t, 0.0, topCutScore(0, 0))
	assert.InDelta(t, 50.0, topCutScore(2, 4), 1e-9)
	assert.InDelta(t, 100.0, topCutScore(3, 3), 1e-9)
}

func TestAdjustedWinRateShrinksTowardHalf(t *testing.T) {
	fresh := models.Player{Wins: 0, GamesPlayed: 0}
	assert.InDelta(t, 0.5, fresh.AdjustedWinRate(), 1e-9,
		"a player with no games starts at the prior")

	hotStreak := models.Player{Wins: 2, GamesPlayed: 2}
	assert.InDelta(t, 5.0/8.0, hotStreak.AdjustedWinRate(), 1e-9,
		"two straight wins stay well short of a perfect rate")

	veteran := models.Player{Wins: 60, GamesPlayed: 100}
	assert.InDelta(t, 63.0/106.0, veteran.AdjustedWinRate(), 1e-9)
}
