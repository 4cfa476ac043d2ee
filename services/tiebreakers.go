package services

import "tcg-tournament-system/models"

// Standings tiebreakers, computed from completed match history only. These are
// pure functions over a loaded snapshot: the match slice and a participant
// index, never the database. Callers pass completed matches; before round one
// the slice is empty and every percentage is 0.
//
// An opponent faced twice counts twice in the averages, matching how the match
// history reads.

const (
	omwFloor = 0.25
	gwpFloor = 0.33
)

// opponentIDs collects the opponents a participant has faced across completed
// matches, in match order, byes excluded.
func opponentIDs(tpID string, matches []models.Match) []string {
	var opps []string
	for _, m := range matches {
		if !m.Completed() || m.IsBye() {
			continue
		}
		if m.Player1ID == tpID {
			opps = append(opps, *m.Player2ID)
		} else if *m.Player2ID == tpID {
			opps = append(opps, m.Player1ID)
		}
	}
	return opps
}

// OpponentMatchWinPct is the primary tiebreaker: the average of each
// opponent's match-win percentage, floored at 25% per opponent. An opponent
// with no recorded matches counts as exactly 25%. A participant with no
// opponents yet scores 0.
func OpponentMatchWinPct(tpID string, matches []models.Match, byID map[string]*models.TournamentPlayer) float64 {
	opps := opponentIDs(tpID, matches)
	if len(opps) == 0 {
		return 0.0
	}

	total := 0.0
	for _, oppID := range opps {
		opp, ok := byID[oppID]
		if !ok {
			continue
		}
		played := opp.Wins + opp.Losses
		if played == 0 {
			total += omwFloor
			continue
		}
		pct := float64(opp.Wins) / float64(played)
		if pct < omwFloor {
			pct = omwFloor
		}
		total += pct
	}
	return total / float64(len(opps))
}

// OpponentOpponentWinPct averages the OMW of each opponent. One level of
// recursion only; it does not iterate to a fixed point.
func OpponentOpponentWinPct(tpID string, matches []models.Match, byID map[string]*models.TournamentPlayer) float64 {
	opps := opponentIDs(tpID, matches)
	if len(opps) == 0 {
		return 0.0
	}

	total := 0.0
	for _, oppID := range opps {
		total += OpponentMatchWinPct(oppID, matches, byID)
	}
	return total / float64(len(opps))
}

// GameWinPct is the bo3 analogue of a participant's own win percentage,
// over individual games with a 33% floor.
func GameWinPct(tp *models.TournamentPlayer) float64 {
	total := tp.GameWins + tp.GameLosses
	if total == 0 {
		return gwpFloor
	}
	pct := float64(tp.GameWins) / float64(total)
	if pct < gwpFloor {
		pct = gwpFloor
	}
	return pct
}

// OpponentGameWinPct averages opponents' GameWinPct, same shape as OMW with
// the bo3 floor.
func OpponentGameWinPct(tpID string, matches []models.Match, byID map[string]*models.TournamentPlayer) float64 {
	opps := opponentIDs(tpID, matches)
	if len(opps) == 0 {
		return 0.0
	}

	total := 0.0
	for _, oppID := range opps {
		opp, ok := byID[oppID]
		if !ok {
			continue
		}
		total += GameWinPct(opp)
	}
	return total / float64(len(opps))
}

// completedMatches filters a match slice down to those with a terminal result.
func completedMatches(matches []models.Match) []models.Match {
	out := make([]models.Match, 0, len(matches))
	for _, m := range matches {
		if m.Completed() {
			out = append(out, m)
		}
	}
	return out
}

// participantIndex builds the TournamentPlayer lookup the tiebreakers and the
// pairing engine work against.
func participantIndex(participants []models.TournamentPlayer) map[string]*models.TournamentPlayer {
	byID := make(map[string]*models.TournamentPlayer, len(participants))
	for i := range participants {
		byID[participants[i].ID] = &participants[i]
	}
	return byID
}
