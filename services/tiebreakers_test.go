package services

import (
	"testing"

	"tcg-tournament-system/models"

	"github.com/stretchr/testify/assert"
)

func tp(id string, wins, losses int) models.TournamentPlayer {
	return models.TournamentPlayer{ID: id, Wins: wins, Losses: losses}
}

func playedMatch(round int, p1, p2, result string) models.Match {
	return models.Match{
		TournamentID: "t1",
		RoundNumber:  round,
		Player1ID:    p1,
		Player2ID:    &p2,
		Result:       result,
	}
}

func TestOpponentMatchWinPctNoMatches(t *testing.T) {
	participants := []models.TournamentPlayer{tp("a", 0, 0), tp("b", 0, 0)}
	byID := participantIndex(participants)

	assert.Equal(t, 0.0, OpponentMatchWinPct("a", nil, byID))
}

func TestOpponentMatchWinPctFloor(t *testing.T) {
	tests := []struct {
		name     string
		oppWins  int
		oppLoss  int
		expected float64
	}{
		{name: "opponent with no recorded matches", oppWins: 0, oppLoss: 0, expected: 0.25},
		{name: "opponent below the floor", oppWins: 1, oppLoss: 4, expected: 0.25},
		{name: "opponent at the floor", oppWins: 1, oppLoss: 3, expected: 0.25},
		{name: "opponent above the floor", oppWins: 3, oppLoss: 1, expected: 0.75},
		{name: "undefeated opponent", oppWins: 4, oppLoss: 0, expected: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			participants := []models.TournamentPlayer{
				tp("a", 0, 0),
				tp("b", tt.oppWins, tt.oppLoss),
			}
			byID := participantIndex(participants)
			matches := []models.Match{playedMatch(1, "a", "b", models.ResultPlayer2)}

			assert.InDelta(t, tt.expected, OpponentMatchWinPct("a", matches, byID), 1e-9)
		})
	}
}

func TestOpponentMatchWinPctAveragesRepeats(t *testing.T) {
	participants := []models.TournamentPlayer{
		tp("a", 1, 2),
		tp("b", 3, 1), // 0.75
		tp("c", 0, 3), // floored to 0.25
	}
	byID := participantIndex(participants)
	matches := []models.Match{
		playedMatch(1, "a", "b", models.ResultPlayer2),
		playedMatch(2, "c", "a", models.ResultPlayer1),
		// second meeting with b counts again
		playedMatch(3, "b", "a", models.ResultPlayer1),
	}

	want := (0.75 + 0.25 + 0.75) / 3
	assert.InDelta(t, want, OpponentMatchWinPct("a", matches, byID), 1e-9)
}

func TestOpponentMatchWinPctIgnoresPendingAndByes(t *testing.T) {
	participants := []models.TournamentPlayer{tp("a", 1, 0), tp("b", 2, 0)}
	byID := participantIndex(participants)

	pending := playedMatch(2, "a", "b", "")
	bye := models.Match{RoundNumber: 1, Player1ID: "a", Result: models.ResultBye}
	matches := []models.Match{bye, pending}

	assert.Equal(t, 0.0, OpponentMatchWinPct("a", completedMatches(matches), byID))
}

func TestOpponentOpponentWinPct(t *testing.T) {
	// a played b; b played a and c. b's OMW averages a (1-1 → 0.5) and
	// c (3-0 → 1.0): 0.75. a's OOWP is its single opponent's OMW.
	participants := []models.TournamentPlayer{
		tp("a", 1, 1),
		tp("b", 1, 1),
		tp("c", 3, 0),
	}
	byID := participantIndex(participants)
	matches := []models.Match{
		playedMatch(1, "a", "b", models.ResultPlayer1),
		playedMatch(2, "b", "c", models.ResultPlayer2),
	}

	assert.InDelta(t, 0.75, OpponentOpponentWinPct("a", matches, byID), 1e-9)
	assert.Equal(t, 0.0, OpponentOpponentWinPct("c", nil, byID))
}

func TestGameWinPct(t *testing.T) {
	tests := []struct {
		name     string
		gameWins int
		gameLoss int
		expected float64
	}{
		{name: "no games yet", gameWins: 0, gameLoss: 0, expected: 0.33},
		{name: "below the bo3 floor", gameWins: 1, gameLoss: 5, expected: 0.33},
		{name: "above the floor", gameWins: 4, gameLoss: 2, expected: 4.0 / 6.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.TournamentPlayer{GameWins: tt.gameWins, GameLosses: tt.gameLoss}
			assert.InDelta(t, tt.expected, GameWinPct(&p), 1e-9)
		})
	}
}

func TestOpponentGameWinPct(t *testing.T) {
	participants := []models.TournamentPlayer{
		{ID: "a", GameWins: 2, GameLosses: 2},
		{ID: "b", GameWins: 4, GameLosses: 2}, // 2/3
		{ID: "c", GameWins: 0, GameLosses: 4}, // floored to 0.33
	}
	byID := participantIndex(participants)
	matches := []models.Match{
		playedMatch(1, "a", "b", models.ResultPlayer2),
		playedMatch(2, "a", "c", models.ResultPlayer1),
	}

	want := (4.0/6.0 + 0.33) / 2
	assert.InDelta(t, want, OpponentGameWinPct("a", matches, byID), 1e-9)
	assert.Equal(t, 0.0, OpponentGameWinPct("a", nil, byID))
}
