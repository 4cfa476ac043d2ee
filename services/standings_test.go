package services

import (
	"testing"

	"tcg-tournament-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standing(id string, points, wins, losses int) models.TournamentPlayer {
	return models.TournamentPlayer{ID: id, Points: points, Wins: wins, Losses: losses}
}

func rowOrder(rows []StandingRow) []string {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.Participant.ID)
	}
	return ids
}

func TestComputeStandingsNormalMode(t *testing.T) {
	tournament := &models.Tournament{Mode: models.ModeNormal}

	// b and c both sit on 3 points; b faced the undefeated a so OMW
	// must break the tie in b's favor.
	participants := []models.TournamentPlayer{
		standing("a", 6, 2, 0),
		standing("b", 3, 1, 1),
		standing("c", 3, 1, 1),
		standing("d", 0, 0, 2),
	}
	matches := []models.Match{
		playedMatch(1, "a", "b", models.ResultPlayer1),
		playedMatch(1, "c", "d", models.ResultPlayer1),
		playedMatch(2, "a", "d", models.ResultPlayer1),
		playedMatch(2, "b", "c", models.ResultPlayer1),
	}

	rows := ComputeStandings(tournament, participants, matches)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"a", "b", "c", "d"}, rowOrder(rows))
	assert.Greater(t, rows[1].OMW, rows[2].OMW)
	assert.Zero(t, rows[0].GWP, "normal mode leaves game stats unset")
}

func TestComputeStandingsExcludesDropped(t *testing.T) {
	tournament := &models.Tournament{Mode: models.ModeNormal}
	participants := []models.TournamentPlayer{
		standing("a", 3, 1, 0),
		standing("b", 0, 0, 1),
	}
	participants[1].Dropped = true

	rows := ComputeStandings(tournament, participants, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0].Participant.ID)
}

func TestComputeStandingsBo3TardySortsBehind(t *testing.T) {
	tournament := &models.Tournament{Mode: models.ModeBo3}
	participants := []models.TournamentPlayer{
		standing("a", 3, 1, 0),
		standing("b", 3, 1, 0),
	}
	participants[0].IsTardy = true

	rows := ComputeStandings(tournament, participants, nil)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"b", "a"}, rowOrder(rows),
		"at equal points the tardy player ranks below the punctual one")
	assert.True(t, rows[1].Tardy)
}

func TestComputeStandingsBo3GameWinPct(t *testing.T) {
	tournament := &models.Tournament{Mode: models.ModeBo3}
	a := standing("a", 3, 1, 0)
	a.GameWins, a.GameLosses = 2, 1
	b := standing("b", 0, 0, 1)
	b.GameWins, b.GameLosses = 0, 2

	rows := ComputeStandings(tournament, []models.TournamentPlayer{a, b}, []models.Match{
		playedMatch(1, "a", "b", models.ResultPlayer1),
	})
	require.Len(t, rows, 2)
	assert.InDelta(t, 2.0/3.0, rows[0].GWP, 1e-9)
	assert.InDelta(t, 0.33, rows[1].GWP, 1e-9, "game win rate never reports below the floor")
}

func TestComputeStandingsStableOnFullTie(t *testing.T) {
	tournament := &models.Tournament{Mode: models.ModeNormal}
	participants := []models.TournamentPlayer{
		standing("a", 3, 1, 0),
		standing("b", 3, 1, 0),
	}

	rows := ComputeStandings(tournament, participants, nil)
	assert.Equal(t, []string{"a", "b"}, rowOrder(rows),
		"identical tiebreaker tuples keep registration order")
}
