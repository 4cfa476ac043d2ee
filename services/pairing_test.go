package services

import (
	"fmt"
	"testing"

	"tcg-tournament-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entrant(id string, points, byes int) models.TournamentPlayer {
	return models.TournamentPlayer{ID: id, Points: points, Byes: byes}
}

// pairedIDs flattens pairings into the set of players seated.
func pairedIDs(pairings []Pairing) map[string]int {
	seen := make(map[string]int)
	for _, p := range pairings {
		seen[p.Player1.ID]++
		seen[p.Player2.ID]++
	}
	return seen
}

func hasPair(pairings []Pairing, a, b string) bool {
	for _, p := range pairings {
		if (p.Player1.ID == a && p.Player2.ID == b) || (p.Player1.ID == b && p.Player2.ID == a) {
			return true
		}
	}
	return false
}

func TestBuildPairingsRoundOneEvenField(t *testing.T) {
	participants := []models.TournamentPlayer{
		entrant("a", 0, 0), entrant("b", 0, 0), entrant("c", 0, 0), entrant("d", 0, 0),
	}

	pairings, bye, err := buildPairings(participants, nil, 1)
	require.NoError(t, err)

	assert.Nil(t, bye)
	assert.Len(t, pairings, 2)
	seen := pairedIDs(pairings)
	assert.Len(t, seen, 4)
	for id, n := range seen {
		assert.Equalf(t, 1, n, "player %s seated %d times", id, n)
	}
}

func TestBuildPairingsInsufficientPlayers(t *testing.T) {
	_, _, err := buildPairings([]models.TournamentPlayer{entrant("a", 0, 0)}, nil, 1)
	assert.ErrorIs(t, err, ErrInsufficientPlayers)

	dropped := entrant("b", 0, 0)
	dropped.Dropped = true
	_, _, err = buildPairings([]models.TournamentPlayer{entrant("a", 0, 0), dropped}, nil, 2)
	assert.ErrorIs(t, err, ErrInsufficientPlayers)
}

func TestBuildPairingsExcludesDropped(t *testing.T) {
	participants := []models.TournamentPlayer{
		entrant("a", 3, 0), entrant("b", 3, 0), entrant("c", 0, 0), entrant("d", 0, 0),
	}
	participants[2].Dropped = true

	pairings, bye, err := buildPairings(participants, nil, 2)
	require.NoError(t, err)

	require.NotNil(t, bye)
	seen := pairedIDs(pairings)
	seen[bye.ID]++
	assert.NotContains(t, seen, "c")
	assert.Len(t, seen, 3)
}

func TestBuildPairingsAvoidsRematches(t *testing.T) {
	// a-b, c-d and a-c already played; the only clean completion is
	// a-d with b-c.
	participants := []models.TournamentPlayer{
		entrant("a", 3, 0), entrant("b", 3, 0), entrant("c", 3, 0), entrant("d", 3, 0),
	}
	matches := []models.Match{
		playedMatch(1, "a", "b", models.ResultPlayer1),
		playedMatch(1, "c", "d", models.ResultPlayer1),
		playedMatch(2, "a", "c", models.ResultPlayer1),
	}

	pairings, bye, err := buildPairings(participants, matches, 3)
	require.NoError(t, err)

	assert.Nil(t, bye)
	require.Len(t, pairings, 2)
	assert.True(t, hasPair(pairings, "a", "d"))
	assert.True(t, hasPair(pairings, "b", "c"))
}

func TestBuildPairingsFiveWithPriorPair(t *testing.T) {
	// Five players on identical points, c and d already paired once. The
	// round must issue exactly one bye to a zero-bye player and avoid the
	// c-d rematch.
	participants := []models.TournamentPlayer{
		entrant("a", 3, 1), entrant("b", 3, 0), entrant("c", 3, 0),
		entrant("d", 3, 0), entrant("e", 3, 0),
	}
	matches := []models.Match{
		playedMatch(1, "c", "d", models.ResultPlayer1),
	}

	pairings, bye, err := buildPairings(participants, matches, 2)
	require.NoError(t, err)

	require.NotNil(t, bye)
	assert.Equal(t, 0, bye.Byes, "bye must go to a player without one")
	assert.False(t, hasPair(pairings, "c", "d"), "must not repeat the c-d pairing")

	seen := pairedIDs(pairings)
	seen[bye.ID]++
	assert.Len(t, seen, 5)
	for id, n := range seen {
		assert.Equalf(t, 1, n, "player %s seated %d times", id, n)
	}
}

func TestFindCleanPairingsExhausted(t *testing.T) {
	participants := []models.TournamentPlayer{
		entrant("a", 6, 0), entrant("b", 3, 0), entrant("c", 3, 0), entrant("d", 0, 0),
	}
	// Every pair has met: no rematch-free pairing exists.
	var matches []models.Match
	ids := []string{"a", "b", "c", "d"}
	round := 1
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			matches = append(matches, playedMatch(round, ids[i], ids[j], models.ResultPlayer1))
			round++
		}
	}

	pool := []*models.TournamentPlayer{&participants[0], &participants[1], &participants[2], &participants[3]}
	assert.Nil(t, findCleanPairings(pool, playedSet(matches)))

	// The fallback still seats everyone.
	pairings, bye, err := buildPairings(participants, matches, 4)
	require.NoError(t, err)
	assert.Nil(t, bye)
	require.Len(t, pairings, 2)
	assert.Len(t, pairedIDs(pairings), 4)
}

func TestMinimalRematchPrefersClosestPoints(t *testing.T) {
	a := entrant("a", 6, 0)
	b := entrant("b", 0, 0)
	c := entrant("c", 6, 0)
	d := entrant("d", 0, 0)

	// a has played everyone; the forced rematch should take the opponent
	// with the closest points (c), not the first in list order (b).
	played := map[string]bool{
		pairKey("a", "b"): true,
		pairKey("a", "c"): true,
		pairKey("a", "d"): true,
	}

	pairings := findMinimalRematchPairings([]*models.TournamentPlayer{&a, &b, &c, &d}, played)
	require.Len(t, pairings, 2)
	assert.True(t, hasPair(pairings, "a", "c"))
	assert.True(t, hasPair(pairings, "b", "d"))
}

func TestSelectByePlayerRotation(t *testing.T) {
	tests := []struct {
		name     string
		pool     []models.TournamentPlayer
		expected string
	}{
		{
			name: "zero-bye player preferred over lower points",
			pool: []models.TournamentPlayer{
				entrant("a", 0, 1), entrant("b", 6, 0), entrant("c", 3, 0),
			},
			expected: "c",
		},
		{
			name: "lowest points among zero-bye players",
			pool: []models.TournamentPlayer{
				entrant("a", 6, 0), entrant("b", 0, 0), entrant("c", 3, 0),
			},
			expected: "b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			byID := participantIndex(tt.pool)
			pool := make([]*models.TournamentPlayer, len(tt.pool))
			for i := range tt.pool {
				pool[i] = &tt.pool[i]
			}
			got := selectByePlayer(pool, nil, byID)
			assert.Equal(t, tt.expected, got.ID)
		})
	}
}

// TestByeNeverRepeatsWhileZeroByeRemains simulates successive odd rounds and
// checks the rotation invariant across them.
func TestByeNeverRepeatsWhileZeroByeRemains(t *testing.T) {
	participants := make([]models.TournamentPlayer, 5)
	for i := range participants {
		participants[i] = entrant(fmt.Sprintf("p%d", i), 0, 0)
	}

	var matches []models.Match
	byeSeen := make(map[string]int)
	for round := 1; round <= 5; round++ {
		pairings, bye, err := buildPairings(participants, matches, round)
		require.NoError(t, err)
		require.NotNil(t, bye)

		assert.Equalf(t, 0, byeSeen[bye.ID], "round %d bye repeated for %s", round, bye.ID)
		byeSeen[bye.ID]++

		for i := range participants {
			if participants[i].ID == bye.ID {
				participants[i].Byes++
				participants[i].Points += WinPoints
				participants[i].Wins++
			}
		}
		for _, p := range pairings {
			matches = append(matches, playedMatch(round, p.Player1.ID, p.Player2.ID, models.ResultPlayer1))
			for i := range participants {
				switch participants[i].ID {
				case p.Player1.ID:
					participants[i].Points += WinPoints
					participants[i].Wins++
				case p.Player2.ID:
					participants[i].Losses++
				}
			}
		}
	}

	assert.Len(t, byeSeen, 5, "five rounds must spread the bye across all five players")
}
