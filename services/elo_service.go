package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"tcg-tournament-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrDataIntegrity signals a match referencing a vanished player or deck
	// record. The whole replay aborts rather than skipping the match, which
	// would silently corrupt the accounting.
	ErrDataIntegrity = errors.New("rating replay hit a dangling record reference")

	// ErrRatingsAlreadyFinalized guards against double-applying deltas:
	// finalization is a single committed transaction per tournament.
	ErrRatingsAlreadyFinalized = errors.New("tournament ratings already finalized")
)

// ELOService replays a completed tournament's matches to produce final player
// and deck ratings plus an immutable change log. Every replay starts from the
// currently stored ratings; no working state survives between invocations.
type ELOService struct {
	DB *gorm.DB
}

func NewELOService(db *gorm.DB) *ELOService {
	return &ELOService{DB: db}
}

// playerWorking holds one player's in-flight values during a replay.
type playerWorking struct {
	elo     float64
	peakElo float64
	games   int
	wins    int
	losses  int
	ties    int
}

// playerReplay is the working state of one replay run, created fresh per
// invocation and discarded afterwards.
type playerReplay struct {
	players map[string]*playerWorking
	history []models.ELOHistory
}

func newPlayerReplay() *playerReplay {
	return &playerReplay{players: make(map[string]*playerWorking)}
}

func (r *playerReplay) working(p *models.Player) *playerWorking {
	w, ok := r.players[p.ID]
	if !ok {
		w = &playerWorking{
			elo:     p.Elo,
			peakElo: p.PeakElo,
			games:   p.GamesPlayed,
			wins:    p.Wins,
			losses:  p.Losses,
			ties:    p.Ties,
		}
		r.players[p.ID] = w
	}
	return w
}

// applyMatch folds one completed match into the working state and records the
// before/after values for both players. Byes have no rating effect.
func (r *playerReplay) applyMatch(m *models.Match) error {
	if m.IsBye() {
		return nil
	}

	tp1, tp2 := m.Player1, m.Player2
	if tp1 == nil || tp2 == nil {
		return fmt.Errorf("%w: match %s participant", ErrDataIntegrity, m.ID)
	}
	if tp1.Player.ID == "" || tp2.Player.ID == "" {
		return fmt.Errorf("%w: match %s player", ErrDataIntegrity, m.ID)
	}

	w1 := r.working(&tp1.Player)
	w2 := r.working(&tp2.Player)
	p1Before, p2Before := w1.elo, w2.elo

	var p1Change, p2Change float64

	if m.Result == models.ResultDoubleLoss {
		// Flat penalty for both sides, no expectation math, not zero-sum.
		p1Change, p2Change = -DoubleLossPenalty, -DoubleLossPenalty
		w1.elo -= DoubleLossPenalty
		w2.elo -= DoubleLossPenalty
		w1.losses++
		w2.losses++
	} else {
		// K-factors come from each side's own games count before this match,
		// so deltas need not be symmetric across experience tiers.
		p1K := float64(KFactor(w1.games))
		p2K := float64(KFactor(w2.games))

		p1Expected := ExpectedScore(p1Before, p2Before)
		p2Expected := 1 - p1Expected

		var p1Actual, p2Actual float64
		switch m.Result {
		case models.ResultPlayer1:
			p1Actual, p2Actual = 1.0, 0.0
			w1.wins++
			w2.losses++
		case models.ResultPlayer2:
			p1Actual, p2Actual = 0.0, 1.0
			w2.wins++
			w1.losses++
		case models.ResultDraw:
			p1Actual, p2Actual = 0.5, 0.5
			w1.ties++
			w2.ties++
		default:
			return fmt.Errorf("%w: match %s has unexpected result %q", ErrDataIntegrity, m.ID, m.Result)
		}

		p1Change = p1K * (p1Actual - p1Expected)
		p2Change = p2K * (p2Actual - p2Expected)
		w1.elo += p1Change
		w2.elo += p2Change
	}

	if w1.elo > w1.peakElo {
		w1.peakElo = w1.elo
	}
	if w2.elo > w2.peakElo {
		w2.peakElo = w2.elo
	}
	w1.games++
	w2.games++

	r.history = append(r.history,
		models.ELOHistory{
			ID:           uuid.NewString(),
			PlayerID:     tp1.PlayerID,
			MatchID:      m.ID,
			TournamentID: m.TournamentID,
			EloBefore:    p1Before,
			EloAfter:     w1.elo,
			EloChange:    p1Change,
		},
		models.ELOHistory{
			ID:           uuid.NewString(),
			PlayerID:     tp2.PlayerID,
			MatchID:      m.ID,
			TournamentID: m.TournamentID,
			EloBefore:    p2Before,
			EloAfter:     w2.elo,
			EloChange:    p2Change,
		},
	)
	return nil
}

// replayPlayerRatings runs the chronological player replay over completed
// matches. Pure with respect to storage: inputs are preloaded snapshots.
func replayPlayerRatings(matches []models.Match) (*playerReplay, error) {
	replay := newPlayerReplay()
	for i := range matches {
		if err := replay.applyMatch(&matches[i]); err != nil {
			return nil, err
		}
	}
	return replay, nil
}

// deckWorking holds one deck's in-flight values during the deck pass.
type deckWorking struct {
	elo   float64
	games int
	wins  int
}

// replayDeckRatings is the parallel deck pass: only matches where both sides
// registered a deck count, byes and double losses are excluded entirely, a
// fixed K-factor applies, and changes are exactly zero-sum.
func replayDeckRatings(matches []models.Match) (map[string]*deckWorking, error) {
	decks := make(map[string]*deckWorking)

	working := func(d *models.Deck) *deckWorking {
		w, ok := decks[d.ID]
		if !ok {
			w = &deckWorking{elo: d.Elo, games: d.GamesPlayed, wins: d.Wins}
			decks[d.ID] = w
		}
		return w
	}

	for i := range matches {
		m := &matches[i]
		if m.IsBye() || m.Result == models.ResultDoubleLoss {
			continue
		}

		tp1, tp2 := m.Player1, m.Player2
		if tp1 == nil || tp2 == nil {
			return nil, fmt.Errorf("%w: match %s participant", ErrDataIntegrity, m.ID)
		}
		if tp1.DeckID == nil || tp2.DeckID == nil {
			continue
		}
		if tp1.Deck == nil || tp2.Deck == nil {
			return nil, fmt.Errorf("%w: match %s deck", ErrDataIntegrity, m.ID)
		}

		w1 := working(tp1.Deck)
		w2 := working(tp2.Deck)

		expected := ExpectedScore(w1.elo, w2.elo)

		var actual float64
		switch m.Result {
		case models.ResultPlayer1:
			actual = 1.0
			w1.wins++
		case models.ResultPlayer2:
			actual = 0.0
			w2.wins++
		case models.ResultDraw:
			actual = 0.5
		default:
			continue
		}

		change := DeckKFactor * (actual - expected)
		w1.elo += change
		w2.elo -= change
		w1.games++
		w2.games++
	}

	return decks, nil
}

// FinalizeTournamentRatings replays a tournament's completed matches and
// commits final player ratings, deck ratings and the ELO history in a single
// transaction. Must be called exactly once per tournament; repeat calls fail
// with ErrRatingsAlreadyFinalized instead of double-applying deltas.
func (s *ELOService) FinalizeTournamentRatings(tournamentID string) error {
	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		return fmt.Errorf("failed to load tournament: %w", err)
	}
	if tournament.EloProcessedAt != nil {
		return ErrRatingsAlreadyFinalized
	}

	var matches []models.Match
	if err := s.DB.Where("tournament_id = ? AND result <> ''", tournamentID).
		Order("round_number, created_at").
		Preload("Player1.Player").
		Preload("Player1.Deck").
		Preload("Player2.Player").
		Preload("Player2.Deck").
		Find(&matches).Error; err != nil {
		return fmt.Errorf("failed to load matches: %w", err)
	}

	replay, err := replayPlayerRatings(matches)
	if err != nil {
		return err
	}
	deckState, err := replayDeckRatings(matches)
	if err != nil {
		return err
	}

	now := time.Now()
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if len(replay.history) > 0 {
			if err := tx.Create(&replay.history).Error; err != nil {
				return fmt.Errorf("failed to write elo history: %w", err)
			}
		}

		for playerID, w := range replay.players {
			updates := map[string]interface{}{
				"elo":          w.elo,
				"peak_elo":     w.peakElo,
				"games_played": w.games,
				"wins":         w.wins,
				"losses":       w.losses,
				"ties":         w.ties,
			}
			if err := tx.Model(&models.Player{}).Where("id = ?", playerID).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to commit player rating: %w", err)
			}
		}

		for deckID, w := range deckState {
			updates := map[string]interface{}{
				"elo":          w.elo,
				"games_played": w.games,
				"wins":         w.wins,
			}
			if err := tx.Model(&models.Deck{}).Where("id = ?", deckID).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to commit deck rating: %w", err)
			}
		}

		return tx.Model(&tournament).Update("elo_processed_at", &now).Error
	})
	if err != nil {
		return err
	}

	log.Printf("[ELO] finalized tournament %s: %d players, %d decks, %d history records",
		tournamentID, len(replay.players), len(deckState), len(replay.history))
	return nil
}

// FinalizeRatings lets a host trigger finalization directly for tournaments
// it completes outside the lifecycle endpoints.
func (s *ELOService) FinalizeRatings(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	if err := s.FinalizeTournamentRatings(tournamentID); err != nil {
		switch {
		case errors.Is(err, ErrRatingsAlreadyFinalized):
			return c.Status(409).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, ErrDataIntegrity):
			log.Printf("[ELO] aborted finalization for tournament %s: %v", tournamentID, err)
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		log.Printf("[ELO] finalization failed for tournament %s: %v", tournamentID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to finalize ratings"})
	}

	return c.JSON(fiber.Map{"message": "ratings finalized", "tournament_id": tournamentID})
}
