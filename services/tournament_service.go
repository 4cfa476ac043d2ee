package services

import (
	"errors"
	"log"
	"time"

	"tcg-tournament-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Swiss match points. Draws score the tournament's configured DrawPoints
// (0 or 1); byes score like a win.
const WinPoints = 3

var (
	ErrTournamentNotLive = errors.New("tournament is not live")
	ErrRoundIncomplete   = errors.New("previous round still has pending matches")
)

// TournamentService owns the tournament lifecycle: creation, registration,
// round advancement, result entry and completion. Pairing and rating are
// delegated to their engines.
type TournamentService struct {
	DB      *gorm.DB
	Pairing *PairingService
	Elo     *ELOService
	Radar   *RadarService
}

func NewTournamentService(db *gorm.DB, pairing *PairingService, elo *ELOService, radar *RadarService) *TournamentService {
	return &TournamentService{DB: db, Pairing: pairing, Elo: elo, Radar: radar}
}

func (s *TournamentService) CreateTournament(c *fiber.Ctx) error {
	var req struct {
		Name       string `json:"name"`
		Date       string `json:"date"`
		Mode       string `json:"mode"`
		DrawPoints int    `json:"draw_points"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	if req.Name == "" || req.Date == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name and date are required"})
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid date (use RFC3339)"})
	}

	mode := req.Mode
	if mode == "" {
		mode = models.ModeNormal
	}
	if mode != models.ModeNormal && mode != models.ModeBo3 {
		return c.Status(400).JSON(fiber.Map{"error": "mode must be 'normal' or 'bo3'"})
	}
	if req.DrawPoints != 0 && req.DrawPoints != 1 {
		return c.Status(400).JSON(fiber.Map{"error": "draw_points must be 0 or 1"})
	}

	tournament := models.Tournament{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Slug:       slug.Make(req.Name),
		Date:       date,
		Mode:       mode,
		DrawPoints: req.DrawPoints,
		Status:     models.TournamentUpcoming,
	}

	if err := s.DB.Create(&tournament).Error; err != nil {
		log.Printf("DB Error creating tournament: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create tournament"})
	}

	return c.Status(201).JSON(tournament)
}

func (s *TournamentService) GetTournamentByID(c *fiber.Ctx) error {
	var tournament models.Tournament
	if err := s.DB.Preload("Participants.Player").
		Preload("Participants.Deck").
		Preload("Matches").
		First(&tournament, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(tournament)
}

func (s *TournamentService) GetAllTournaments(c *fiber.Ctx) error {
	query := s.DB.Order("date DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var tournaments []models.Tournament
	if err := query.Find(&tournaments).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(fiber.Map{"tournaments": tournaments, "count": len(tournaments)})
}

// RegisterPlayer adds a player (with an optional deck) to an upcoming
// tournament.
func (s *TournamentService) RegisterPlayer(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	var req struct {
		PlayerID string  `json:"player_id"`
		DeckID   *string `json:"deck_id,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.PlayerID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "player_id is required"})
	}

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if tournament.Status != models.TournamentUpcoming {
		return c.Status(400).JSON(fiber.Map{"error": "registration is closed"})
	}

	var player models.Player
	if err := s.DB.First(&player, "id = ?", req.PlayerID).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "player_id not found"})
	}
	if req.DeckID != nil {
		var deck models.Deck
		if err := s.DB.First(&deck, "id = ?", *req.DeckID).Error; err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "deck_id not found"})
		}
	}

	var existing int64
	s.DB.Model(&models.TournamentPlayer{}).
		Where("tournament_id = ? AND player_id = ?", tournamentID, req.PlayerID).
		Count(&existing)
	if existing > 0 {
		return c.Status(409).JSON(fiber.Map{"error": "player already registered"})
	}

	tp := models.TournamentPlayer{
		ID:           uuid.NewString(),
		TournamentID: tournamentID,
		PlayerID:     req.PlayerID,
		DeckID:       req.DeckID,
	}
	if err := s.DB.Create(&tp).Error; err != nil {
		log.Printf("DB Error registering player: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to register player"})
	}

	return c.Status(201).JSON(tp)
}

// StartTournament transitions upcoming → live. Rounds are advanced
// separately.
func (s *TournamentService) StartTournament(c *fiber.Ctx) error {
	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if tournament.Status != models.TournamentUpcoming {
		return c.Status(400).JSON(fiber.Map{"error": "tournament cannot be started in current status"})
	}

	var count int64
	s.DB.Model(&models.TournamentPlayer{}).
		Where("tournament_id = ? AND dropped = false", tournament.ID).
		Count(&count)
	if count < 2 {
		return c.Status(400).JSON(fiber.Map{"error": ErrInsufficientPlayers.Error()})
	}

	if err := s.DB.Model(&tournament).Update("status", models.TournamentLive).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to start tournament"})
	}

	return c.JSON(fiber.Map{"message": "tournament started", "tournament_id": tournament.ID})
}

// StartNextRound pairs and persists the next round. The previous round must
// be fully reported first.
func (s *TournamentService) StartNextRound(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if tournament.Status != models.TournamentLive {
		return c.Status(400).JSON(fiber.Map{"error": ErrTournamentNotLive.Error()})
	}

	if tournament.CurrentRound > 0 {
		var pending int64
		s.DB.Model(&models.Match{}).
			Where("tournament_id = ? AND round_number = ? AND result = ''", tournamentID, tournament.CurrentRound).
			Count(&pending)
		if pending > 0 {
			return c.Status(400).JSON(fiber.Map{"error": ErrRoundIncomplete.Error()})
		}
	}

	nextRound := tournament.CurrentRound + 1
	pairings, byePlayer, err := s.Pairing.PairRound(tournamentID, nextRound)
	if err != nil {
		if errors.Is(err, ErrInsufficientPlayers) {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		log.Printf("[Tournament] pairing failed for %s round %d: %v", tournamentID, nextRound, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to generate pairings"})
	}

	if err := s.Pairing.CreateRoundMatches(tournamentID, nextRound, pairings, byePlayer); err != nil {
		log.Printf("[Tournament] failed to persist round %d for %s: %v", nextRound, tournamentID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create round matches"})
	}

	if err := s.DB.Model(&tournament).Update("current_round", nextRound).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to advance round"})
	}

	return c.JSON(fiber.Map{
		"tournament_id": tournamentID,
		"round_number":  nextRound,
		"pairings":      pairings,
		"bye_player":    byePlayer,
	})
}

// ReportResult enters a terminal result for a pending match and updates both
// participants' tournament-scoped records.
func (s *TournamentService) ReportResult(c *fiber.Ctx) error {
	matchID := c.Params("match_id")

	var req struct {
		Result     string `json:"result"`
		P1GameWins int    `json:"p1_game_wins"`
		P2GameWins int    `json:"p2_game_wins"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	switch req.Result {
	case models.ResultPlayer1, models.ResultPlayer2, models.ResultDraw, models.ResultDoubleLoss:
	default:
		return c.Status(400).JSON(fiber.Map{"error": "result must be player1, player2, draw or double_loss"})
	}

	var match models.Match
	if err := s.DB.Preload("Player1").Preload("Player2").
		First(&match, "id = ?", matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "match not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if match.Completed() {
		return c.Status(409).JSON(fiber.Map{"error": "match already has a result"})
	}
	if match.Player2 == nil {
		return c.Status(400).JSON(fiber.Map{"error": "bye matches are scored automatically"})
	}

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", match.TournamentID).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if tournament.Status != models.TournamentLive {
		return c.Status(400).JSON(fiber.Map{"error": ErrTournamentNotLive.Error()})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&match).Updates(map[string]interface{}{
			"result":       req.Result,
			"p1_game_wins": req.P1GameWins,
			"p2_game_wins": req.P2GameWins,
			"completed_at": &now,
		}).Error; err != nil {
			return err
		}

		p1 := resultUpdates(req.Result == models.ResultPlayer1, req.Result, tournament.DrawPoints, req.P1GameWins, req.P2GameWins)
		p2 := resultUpdates(req.Result == models.ResultPlayer2, req.Result, tournament.DrawPoints, req.P2GameWins, req.P1GameWins)

		if err := tx.Model(&models.TournamentPlayer{}).Where("id = ?", match.Player1ID).Updates(p1).Error; err != nil {
			return err
		}
		return tx.Model(&models.TournamentPlayer{}).Where("id = ?", *match.Player2ID).Updates(p2).Error
	})
	if err != nil {
		log.Printf("DB Error reporting result for match %s: %v", matchID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to record result"})
	}

	return c.JSON(fiber.Map{"message": "result recorded", "match_id": matchID, "result": req.Result})
}

// completionFinalizeErr filters the rating finalization result for the
// completion flow: ratings finalized ahead of completion through the direct
// endpoint are not a failure there.
func completionFinalizeErr(err error) error {
	if errors.Is(err, ErrRatingsAlreadyFinalized) {
		return nil
	}
	return err
}

// resultUpdates builds the counter increments for one side of a reported
// match.
func resultUpdates(won bool, result string, drawPoints, gameWins, gameLosses int) map[string]interface{} {
	updates := map[string]interface{}{
		"game_wins":   gorm.Expr("game_wins + ?", gameWins),
		"game_losses": gorm.Expr("game_losses + ?", gameLosses),
	}
	switch {
	case won:
		updates["points"] = gorm.Expr("points + ?", WinPoints)
		updates["wins"] = gorm.Expr("wins + 1")
	case result == models.ResultDraw:
		updates["points"] = gorm.Expr("points + ?", drawPoints)
		updates["ties"] = gorm.Expr("ties + 1")
	default: // lost outright, or double loss
		updates["losses"] = gorm.Expr("losses + 1")
	}
	return updates
}

// DropPlayer removes a participant from future pairings, stamping the round.
func (s *TournamentService) DropPlayer(c *fiber.Ctx) error {
	tpID := c.Params("tp_id")

	var tp models.TournamentPlayer
	if err := s.DB.First(&tp, "id = ?", tpID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "participant not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if tp.Dropped {
		return c.Status(409).JSON(fiber.Map{"error": "participant already dropped"})
	}

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tp.TournamentID).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	round := tournament.CurrentRound
	if err := s.DB.Model(&tp).Updates(map[string]interface{}{
		"dropped":       true,
		"dropped_round": &round,
	}).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to drop participant"})
	}

	return c.JSON(fiber.Map{"message": "participant dropped", "dropped_round": round})
}

// MarkTardy flags a participant as tardy; in bo3 mode tardiness sorts behind
// at equal points.
func (s *TournamentService) MarkTardy(c *fiber.Ctx) error {
	if err := s.DB.Model(&models.TournamentPlayer{}).
		Where("id = ?", c.Params("tp_id")).
		Update("is_tardy", true).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to mark tardy"})
	}
	return c.JSON(fiber.Map{"message": "participant marked tardy"})
}

// GetStandings returns the live standings table.
func (s *TournamentService) GetStandings(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	tournament, rows, err := s.standingsFor(tournamentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		log.Printf("DB Error computing standings for %s: %v", tournamentID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to compute standings"})
	}

	return c.JSON(fiber.Map{
		"tournament_id": tournamentID,
		"mode":          tournament.Mode,
		"round":         tournament.CurrentRound,
		"standings":     rows,
	})
}

func (s *TournamentService) standingsFor(tournamentID string) (*models.Tournament, []StandingRow, error) {
	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		return nil, nil, err
	}

	var participants []models.TournamentPlayer
	if err := s.DB.Preload("Player").
		Where("tournament_id = ?", tournamentID).
		Find(&participants).Error; err != nil {
		return nil, nil, err
	}

	var matches []models.Match
	if err := s.DB.Where("tournament_id = ?", tournamentID).
		Order("round_number, created_at").
		Find(&matches).Error; err != nil {
		return nil, nil, err
	}

	return &tournament, ComputeStandings(&tournament, participants, matches), nil
}

// CompleteTournament closes out a live tournament: final placements are
// stamped from the standings, ratings are finalized and radar attributes
// refreshed. One-way transition.
func (s *TournamentService) CompleteTournament(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if tournament.Status != models.TournamentLive {
		return c.Status(400).JSON(fiber.Map{"error": "tournament cannot be completed in current status"})
	}

	var pending int64
	s.DB.Model(&models.Match{}).
		Where("tournament_id = ? AND result = ''", tournamentID).
		Count(&pending)
	if pending > 0 {
		return c.Status(400).JSON(fiber.Map{"error": ErrRoundIncomplete.Error()})
	}

	_, rows, err := s.standingsFor(tournamentID)
	if err != nil {
		log.Printf("DB Error computing final standings for %s: %v", tournamentID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to compute final standings"})
	}

	now := time.Now()
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		for place, row := range rows {
			if err := tx.Model(&models.TournamentPlayer{}).
				Where("id = ?", row.Participant.ID).
				Update("final_placement", place+1).Error; err != nil {
				return err
			}
		}
		return tx.Model(&tournament).Updates(map[string]interface{}{
			"status":       models.TournamentCompleted,
			"completed_at": &now,
		}).Error
	})
	if err != nil {
		log.Printf("DB Error completing tournament %s: %v", tournamentID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to complete tournament"})
	}

	if err := completionFinalizeErr(s.Elo.FinalizeTournamentRatings(tournamentID)); err != nil {
		log.Printf("[Tournament] rating finalization failed for %s: %v", tournamentID, err)
		return c.Status(500).JSON(fiber.Map{"error": "tournament completed but rating finalization failed"})
	}

	if err := s.Radar.UpdateAllRadarAttributes(); err != nil {
		// Ratings are committed; the scheduler will catch the radar refresh up.
		log.Printf("[Tournament] radar refresh failed after completing %s: %v", tournamentID, err)
	}

	return c.JSON(fiber.Map{
		"message":       "tournament completed",
		"tournament_id": tournamentID,
		"standings":     rows,
	})
}
