package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"
	"time"

	"tcg-tournament-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInsufficientPlayers is returned when fewer than two active participants
// remain to pair.
var ErrInsufficientPlayers = errors.New("need at least 2 active players to pair")

// PairingService produces Swiss pairings with rematch prevention and bye
// rotation, per official TCG Swiss rules.
type PairingService struct {
	DB *gorm.DB
}

func NewPairingService(db *gorm.DB) *PairingService {
	return &PairingService{DB: db}
}

// Pairing is a single table assignment for the next round.
type Pairing struct {
	Player1 *models.TournamentPlayer `json:"player1"`
	Player2 *models.TournamentPlayer `json:"player2"`
}

// PairRound computes the pairings for roundNumber from the current state of a
// tournament. It reads participants and match history and persists nothing;
// CreateRoundMatches turns the result into pending Match rows.
func (ps *PairingService) PairRound(tournamentID string, roundNumber int) ([]Pairing, *models.TournamentPlayer, error) {
	var participants []models.TournamentPlayer
	if err := ps.DB.Where("tournament_id = ?", tournamentID).Find(&participants).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load participants: %w", err)
	}

	var matches []models.Match
	if err := ps.DB.Where("tournament_id = ?", tournamentID).
		Order("round_number, created_at").
		Find(&matches).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load matches: %w", err)
	}

	return buildPairings(participants, matches, roundNumber)
}

// buildPairings is the pure pairing core: current participants and match
// history in, ordered pairs plus at most one bye out. The inputs are treated
// as read-only snapshots so the search stays referentially transparent.
func buildPairings(participants []models.TournamentPlayer, matches []models.Match, roundNumber int) ([]Pairing, *models.TournamentPlayer, error) {
	byID := participantIndex(participants)
	completed := completedMatches(matches)

	var active []*models.TournamentPlayer
	for i := range participants {
		if !participants[i].Dropped {
			active = append(active, &participants[i])
		}
	}
	if len(active) < 2 {
		return nil, nil, ErrInsufficientPlayers
	}

	pool := make([]*models.TournamentPlayer, len(active))
	copy(pool, active)

	if roundNumber == 1 {
		// No standings yet: uniform random seating.
		rand.Shuffle(len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})
	} else {
		omw := make(map[string]float64, len(pool))
		for _, tp := range pool {
			omw[tp.ID] = OpponentMatchWinPct(tp.ID, completed, byID)
		}
		sort.SliceStable(pool, func(i, j int) bool {
			if pool[i].Points != pool[j].Points {
				return pool[i].Points > pool[j].Points
			}
			return omw[pool[i].ID] > omw[pool[j].ID]
		})
	}

	var byePlayer *models.TournamentPlayer
	if len(pool)%2 == 1 {
		byePlayer = selectByePlayer(pool, completed, byID)
		trimmed := make([]*models.TournamentPlayer, 0, len(pool)-1)
		for _, tp := range pool {
			if tp.ID != byePlayer.ID {
				trimmed = append(trimmed, tp)
			}
		}
		pool = trimmed
	}

	played := playedSet(completed)

	pairings := findCleanPairings(pool, played)
	if pairings == nil {
		log.Printf("[Pairing] round %d: no rematch-free pairing exists, falling back to minimal-rematch", roundNumber)
		pairings = findMinimalRematchPairings(pool, played)
	}

	return pairings, byePlayer, nil
}

// selectByePlayer picks the bye for an odd pool: fewest byes first, then
// lowest points, then lowest OMW. The leader never sits out while a weaker
// zero-bye player is available.
func selectByePlayer(pool []*models.TournamentPlayer, completed []models.Match, byID map[string]*models.TournamentPlayer) *models.TournamentPlayer {
	candidates := make([]*models.TournamentPlayer, len(pool))
	copy(candidates, pool)

	omw := make(map[string]float64, len(candidates))
	for _, tp := range candidates {
		omw[tp.ID] = OpponentMatchWinPct(tp.ID, completed, byID)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Byes != candidates[j].Byes {
			return candidates[i].Byes < candidates[j].Byes
		}
		if candidates[i].Points != candidates[j].Points {
			return candidates[i].Points < candidates[j].Points
		}
		return omw[candidates[i].ID] < omw[candidates[j].ID]
	})
	return candidates[0]
}

// playedSet indexes completed head-to-head matches by unordered player pair.
func playedSet(completed []models.Match) map[string]bool {
	played := make(map[string]bool, len(completed))
	for _, m := range completed {
		if m.IsBye() {
			continue
		}
		played[pairKey(m.Player1ID, *m.Player2ID)] = true
	}
	return played
}

func pairKey(a, b string) string {
	if a < b {
		return a + "|" + b
	}
	return b + "|" + a
}

// findCleanPairings searches for a complete pairing with zero rematches by
// exhaustive backtracking: pair the first remaining player against each
// candidate in order, recurse on the rest, backtrack on dead ends. Exponential
// in the worst case but bounded by realistic tournament sizes. Remaining is
// never mutated; each recursion works on a fresh slice.
func findCleanPairings(remaining []*models.TournamentPlayer, played map[string]bool) []Pairing {
	if len(remaining) == 0 {
		return []Pairing{}
	}
	if len(remaining) == 1 {
		return nil // odd leftover, caller should have assigned a bye
	}

	p1 := remaining[0]
	for i := 1; i < len(remaining); i++ {
		p2 := remaining[i]
		if played[pairKey(p1.ID, p2.ID)] {
			continue
		}

		rest := make([]*models.TournamentPlayer, 0, len(remaining)-2)
		rest = append(rest, remaining[1:i]...)
		rest = append(rest, remaining[i+1:]...)

		if tail := findCleanPairings(rest, played); tail != nil {
			return append([]Pairing{{Player1: p1, Player2: p2}}, tail...)
		}
	}
	return nil
}

// findMinimalRematchPairings is the fallback when no rematch-free pairing
// exists: greedily pair the first remaining player with their first unplayed
// opponent, or failing that the opponent with the closest points (list order
// breaks ties). Locally greedy, not globally optimal in rematch count.
func findMinimalRematchPairings(pool []*models.TournamentPlayer, played map[string]bool) []Pairing {
	var pairings []Pairing
	remaining := make([]*models.TournamentPlayer, len(pool))
	copy(remaining, pool)

	for len(remaining) >= 2 {
		p1 := remaining[0]
		var opponent *models.TournamentPlayer

		for _, p2 := range remaining[1:] {
			if !played[pairKey(p1.ID, p2.ID)] {
				opponent = p2
				break
			}
		}

		if opponent == nil {
			best := math.MaxInt
			for _, p2 := range remaining[1:] {
				diff := p2.Points - p1.Points
				if diff < 0 {
					diff = -diff
				}
				if diff < best {
					best = diff
					opponent = p2
				}
			}
			log.Printf("[Pairing] forced rematch: %s vs %s", p1.ID, opponent.ID)
		}

		pairings = append(pairings, Pairing{Player1: p1, Player2: opponent})

		next := make([]*models.TournamentPlayer, 0, len(remaining)-2)
		for _, tp := range remaining {
			if tp.ID != p1.ID && tp.ID != opponent.ID {
				next = append(next, tp)
			}
		}
		remaining = next
	}

	return pairings
}

// CreateRoundMatches persists the pending Match rows for a computed round.
// The bye match is written with an immediate bye result and the bye player is
// credited on the spot (3 points, a win and a bye).
func (ps *PairingService) CreateRoundMatches(tournamentID string, roundNumber int, pairings []Pairing, byePlayer *models.TournamentPlayer) error {
	return ps.DB.Transaction(func(tx *gorm.DB) error {
		for _, p := range pairings {
			p2ID := p.Player2.ID
			match := models.Match{
				ID:           uuid.NewString(),
				TournamentID: tournamentID,
				RoundNumber:  roundNumber,
				Player1ID:    p.Player1.ID,
				Player2ID:    &p2ID,
			}
			if err := tx.Create(&match).Error; err != nil {
				return fmt.Errorf("failed to create match: %w", err)
			}
		}

		if byePlayer != nil {
			now := time.Now()
			match := models.Match{
				ID:           uuid.NewString(),
				TournamentID: tournamentID,
				RoundNumber:  roundNumber,
				Player1ID:    byePlayer.ID,
				Result:       models.ResultBye,
				CompletedAt:  &now,
			}
			if err := tx.Create(&match).Error; err != nil {
				return fmt.Errorf("failed to create bye match: %w", err)
			}

			updates := map[string]interface{}{
				"points": gorm.Expr("points + ?", WinPoints),
				"wins":   gorm.Expr("wins + 1"),
				"byes":   gorm.Expr("byes + 1"),
			}
			if err := tx.Model(&models.TournamentPlayer{}).
				Where("id = ?", byePlayer.ID).
				Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to credit bye: %w", err)
			}
		}

		return nil
	})
}

// PreviewPairings returns the next round's pairings without persisting them.
func (ps *PairingService) PreviewPairings(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	var tournament models.Tournament
	if err := ps.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	pairings, byePlayer, err := ps.PairRound(tournamentID, tournament.CurrentRound+1)
	if err != nil {
		if errors.Is(err, ErrInsufficientPlayers) {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		log.Printf("[Pairing] preview failed for tournament %s: %v", tournamentID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to generate pairings"})
	}

	return c.JSON(fiber.Map{
		"tournament_id": tournamentID,
		"round_number":  tournament.CurrentRound + 1,
		"pairings":      pairings,
		"bye_player":    byePlayer,
		"total_pairs":   len(pairings),
	})
}
