package services

import (
	"errors"
	"fmt"
	"log"
	"math"

	"tcg-tournament-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RadarService derives the five 0-100 display facets from the rated
// population and the persisted rating history.
type RadarService struct {
	DB *gorm.DB
}

func NewRadarService(db *gorm.DB) *RadarService {
	return &RadarService{DB: db}
}

// RadarAttributes are the five facets of a player's radar chart.
type RadarAttributes struct {
	Skill       float64 `json:"skill"`
	Consistency float64 `json:"consistency"`
	Experience  float64 `json:"experience"`
	Clutch      float64 `json:"clutch"`
	TopCut      float64 `json:"top_cut"`
}

// skillPercentile ranks elo within the rated population: the fraction of
// players at or below it, scaled to 100. 50 when there is no population.
func skillPercentile(elo float64, population []float64) float64 {
	if len(population) == 0 {
		return 50.0
	}
	atOrBelow := 0
	for _, v := range population {
		if v <= elo {
			atOrBelow++
		}
	}
	return float64(atOrBelow) / float64(len(population)) * 100
}

// experienceScore log-scales games played so 30 games maps to 100.
func experienceScore(games int) float64 {
	if games <= 0 {
		return 0.0
	}
	score := math.Log(float64(games)+1) / math.Log(31) * 100
	return math.Min(100, score)
}

// clutchScore is the win rate against higher-rated opponents at time of
// match. Neutral 50 until such a match exists.
func clutchScore(wins, games int) float64 {
	if games == 0 {
		return 50.0
	}
	return float64(wins) / float64(games) * 100
}

// topCutScore is the share of completed tournaments finished in the top 4.
func topCutScore(top4, completed int) float64 {
	if completed == 0 {
		return 0.0
	}
	return float64(top4) / float64(completed) * 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// clutchStats walks the player's ELO history to find matches where the
// opponent's elo-at-time-of-match was the higher one, and how many of those
// the player won. Draws and double losses count as games, not wins.
func (s *RadarService) clutchStats(playerID string) (wins, games int, err error) {
	var history []models.ELOHistory
	if err := s.DB.Where("player_id = ?", playerID).Find(&history).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to load elo history: %w", err)
	}
	if len(history) == 0 {
		return 0, 0, nil
	}

	myBefore := make(map[string]float64, len(history))
	matchIDs := make([]string, 0, len(history))
	for _, h := range history {
		myBefore[h.MatchID] = h.EloBefore
		matchIDs = append(matchIDs, h.MatchID)
	}

	var oppHistory []models.ELOHistory
	if err := s.DB.Where("match_id IN ? AND player_id <> ?", matchIDs, playerID).
		Find(&oppHistory).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to load opponent history: %w", err)
	}
	oppBefore := make(map[string]float64, len(oppHistory))
	for _, h := range oppHistory {
		oppBefore[h.MatchID] = h.EloBefore
	}

	var matches []models.Match
	if err := s.DB.Where("id IN ?", matchIDs).
		Preload("Player1").
		Preload("Player2").
		Find(&matches).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to load matches: %w", err)
	}

	for _, m := range matches {
		opp, ok := oppBefore[m.ID]
		if !ok || opp <= myBefore[m.ID] {
			continue
		}
		games++
		switch m.Result {
		case models.ResultPlayer1:
			if m.Player1 != nil && m.Player1.PlayerID == playerID {
				wins++
			}
		case models.ResultPlayer2:
			if m.Player2 != nil && m.Player2.PlayerID == playerID {
				wins++
			}
		}
	}
	return wins, games, nil
}

// topCutStats counts completed-tournament entries and top-4 finishes from the
// placements stamped at tournament completion.
func (s *RadarService) topCutStats(playerID string) (top4, completed int, err error) {
	var entries []models.TournamentPlayer
	if err := s.DB.Where("player_id = ? AND final_placement > 0", playerID).
		Find(&entries).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to load placements: %w", err)
	}
	for _, e := range entries {
		completed++
		if e.FinalPlacement <= 4 {
			top4++
		}
	}
	return top4, completed, nil
}

func (s *RadarService) computeFor(player *models.Player, population []float64) (*RadarAttributes, error) {
	clutchWins, clutchGames, err := s.clutchStats(player.ID)
	if err != nil {
		return nil, err
	}
	top4, completed, err := s.topCutStats(player.ID)
	if err != nil {
		return nil, err
	}

	return &RadarAttributes{
		Skill:       round1(skillPercentile(player.Elo, population)),
		Consistency: round1(player.AdjustedWinRate() * 100),
		Experience:  round1(experienceScore(player.GamesPlayed)),
		Clutch:      round1(clutchScore(clutchWins, clutchGames)),
		TopCut:      round1(topCutScore(top4, completed)),
	}, nil
}

// ratedPopulation is every elo among players with at least one game.
func (s *RadarService) ratedPopulation() ([]float64, error) {
	var population []float64
	if err := s.DB.Model(&models.Player{}).
		Where("games_played > 0").
		Pluck("elo", &population).Error; err != nil {
		return nil, fmt.Errorf("failed to load rated population: %w", err)
	}
	return population, nil
}

// ComputeRadarAttributes derives the facets for one player without persisting.
func (s *RadarService) ComputeRadarAttributes(playerID string) (*RadarAttributes, error) {
	var player models.Player
	if err := s.DB.First(&player, "id = ?", playerID).Error; err != nil {
		return nil, err
	}

	population, err := s.ratedPopulation()
	if err != nil {
		return nil, err
	}
	return s.computeFor(&player, population)
}

// UpdateAllRadarAttributes recomputes and persists the facets for every
// player with at least one game. Also run on a schedule.
func (s *RadarService) UpdateAllRadarAttributes() error {
	var players []models.Player
	if err := s.DB.Where("games_played > 0").Find(&players).Error; err != nil {
		return fmt.Errorf("failed to load players: %w", err)
	}

	population, err := s.ratedPopulation()
	if err != nil {
		return err
	}

	for i := range players {
		attrs, err := s.computeFor(&players[i], population)
		if err != nil {
			return err
		}
		updates := map[string]interface{}{
			"skill":       attrs.Skill,
			"consistency": attrs.Consistency,
			"experience":  attrs.Experience,
			"clutch":      attrs.Clutch,
			"top_cut":     attrs.TopCut,
		}
		if err := s.DB.Model(&players[i]).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to save radar attributes for player %s: %w", players[i].ID, err)
		}
	}

	log.Printf("[Radar] refreshed attributes for %d players", len(players))
	return nil
}

// GetPlayerRadar returns the live facets for one player.
func (s *RadarService) GetPlayerRadar(c *fiber.Ctx) error {
	playerID := c.Params("id")

	attrs, err := s.ComputeRadarAttributes(playerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "player not found"})
		}
		log.Printf("[Radar] compute failed for player %s: %v", playerID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to compute radar attributes"})
	}

	return c.JSON(fiber.Map{"player_id": playerID, "attributes": attrs})
}

// RefreshAllRadar triggers a full recompute on demand.
func (s *RadarService) RefreshAllRadar(c *fiber.Ctx) error {
	if err := s.UpdateAllRadarAttributes(); err != nil {
		log.Printf("[Radar] refresh failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to refresh radar attributes"})
	}
	return c.JSON(fiber.Map{"message": "radar attributes refreshed"})
}
