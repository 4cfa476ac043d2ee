package services

import "math"

// ELO parameters
const (
	StartingElo = 1500.0

	KFactorNew         = 40 // < 15 games
	KFactorEstablished = 24 // 15-29 games
	KFactorVeteran     = 16 // 30+ games

	// Flat penalty applied to both sides of a double loss. Not zero-sum:
	// both players lose rating.
	DoubleLossPenalty = 8.0

	// Decks use a single fixed K-factor regardless of experience.
	DeckKFactor = 24
)

// ExpectedScore returns the logistic win expectation for a rating of a against
// a rating of b. ExpectedScore(a, b) + ExpectedScore(b, a) == 1.
func ExpectedScore(a, b float64) float64 {
	return 1 / (1 + math.Pow(10, (b-a)/400))
}

// KFactor selects the rating sensitivity from a player's experience level.
// Boundaries are inclusive-low: exactly 15 games is already established.
func KFactor(gamesPlayed int) int {
	if gamesPlayed < 15 {
		return KFactorNew
	}
	if gamesPlayed < 30 {
		return KFactorEstablished
	}
	return KFactorVeteran
}
