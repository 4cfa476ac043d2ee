package services

import (
	"sort"

	"tcg-tournament-system/models"
)

// StandingRow is one line of the live standings table.
type StandingRow struct {
	Participant *models.TournamentPlayer `json:"participant"`
	Points      int                      `json:"points"`
	Wins        int                      `json:"wins"`
	Losses      int                      `json:"losses"`
	Ties        int                      `json:"ties"`
	OMW         float64                  `json:"omw"`
	OOWP        float64                  `json:"oowp"`

	// Bo3 mode only
	GWP   float64 `json:"gwp,omitempty"`
	OGWP  float64 `json:"ogwp,omitempty"`
	Tardy bool    `json:"tardy,omitempty"`
}

// ComputeStandings ranks the non-dropped participants by the mode-specific
// tiebreaker tuple: normal mode (points, OMW, OOWP) descending; bo3 mode
// (points, not-tardy, OMW, OOWP, GWP, OGWP) — tardy players sort behind
// non-tardy players at equal points. OMW values are memoized for the duration
// of one computation only.
func ComputeStandings(tournament *models.Tournament, participants []models.TournamentPlayer, matches []models.Match) []StandingRow {
	byID := participantIndex(participants)
	completed := completedMatches(matches)
	bo3 := tournament.Mode == models.ModeBo3

	omwMemo := make(map[string]float64, len(participants))
	omw := func(tpID string) float64 {
		if v, ok := omwMemo[tpID]; ok {
			return v
		}
		v := OpponentMatchWinPct(tpID, completed, byID)
		omwMemo[tpID] = v
		return v
	}

	var rows []StandingRow
	for i := range participants {
		tp := &participants[i]
		if tp.Dropped {
			continue
		}

		row := StandingRow{
			Participant: tp,
			Points:      tp.Points,
			Wins:        tp.Wins,
			Losses:      tp.Losses,
			Ties:        tp.Ties,
			OMW:         omw(tp.ID),
			OOWP:        OpponentOpponentWinPct(tp.ID, completed, byID),
		}
		if bo3 {
			row.GWP = GameWinPct(tp)
			row.OGWP = OpponentGameWinPct(tp.ID, completed, byID)
			row.Tardy = tp.IsTardy
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if bo3 && a.Tardy != b.Tardy {
			return !a.Tardy
		}
		if a.OMW != b.OMW {
			return a.OMW > b.OMW
		}
		if a.OOWP != b.OOWP {
			return a.OOWP > b.OOWP
		}
		if bo3 {
			if a.GWP != b.GWP {
				return a.GWP > b.GWP
			}
			if a.OGWP != b.OGWP {
				return a.OGWP > b.OGWP
			}
		}
		return false
	})

	return rows
}
