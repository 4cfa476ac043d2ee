package services

import (
	"errors"
	"log"
	"strings"

	"tcg-tournament-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

var errDeckCycle = errors.New("deck parent chain would form a cycle")

// PlayerService manages the global player and deck records the engines
// operate on.
type PlayerService struct {
	DB *gorm.DB
}

func NewPlayerService(db *gorm.DB) *PlayerService {
	return &PlayerService{DB: db}
}

var nameCaser = cases.Title(language.English)

// normalizeName trims and title-cases a display name.
func normalizeName(name string) string {
	return nameCaser.String(strings.TrimSpace(name))
}

func (s *PlayerService) CreatePlayer(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	name := normalizeName(req.Name)
	if name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}

	player := models.Player{
		ID:      uuid.NewString(),
		Name:    name,
		Elo:     StartingElo,
		PeakElo: StartingElo,
		Skill:   50,
		Clutch:  50,
	}
	if err := s.DB.Create(&player).Error; err != nil {
		log.Printf("DB Error creating player: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create player"})
	}

	return c.Status(201).JSON(player)
}

func (s *PlayerService) GetPlayerByID(c *fiber.Ctx) error {
	var player models.Player
	if err := s.DB.First(&player, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "player not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(player)
}

// GetAllPlayers lists players, by default ordered as a rating ladder.
func (s *PlayerService) GetAllPlayers(c *fiber.Ctx) error {
	var players []models.Player
	if err := s.DB.Order("elo DESC").Find(&players).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(fiber.Map{"players": players, "count": len(players)})
}

// GetPlayerEloHistory returns the append-only rating trail for trend display.
func (s *PlayerService) GetPlayerEloHistory(c *fiber.Ctx) error {
	playerID := c.Params("id")

	var history []models.ELOHistory
	if err := s.DB.Where("player_id = ?", playerID).
		Order("created_at").
		Find(&history).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	return c.JSON(fiber.Map{"player_id": playerID, "history": history, "count": len(history)})
}

func (s *PlayerService) CreateDeck(c *fiber.Ctx) error {
	var req struct {
		Name     string  `json:"name"`
		ParentID *string `json:"parent_id,omitempty"`
		Natures  string  `json:"natures,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}

	if req.ParentID != nil {
		var parent models.Deck
		if err := s.DB.First(&parent, "id = ?", *req.ParentID).Error; err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "parent_id not found"})
		}
	}

	deck := models.Deck{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(req.Name),
		ParentID: req.ParentID,
		Natures:  req.Natures,
		Elo:      StartingElo,
	}
	if err := s.DB.Create(&deck).Error; err != nil {
		log.Printf("DB Error creating deck: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create deck"})
	}

	return c.Status(201).JSON(deck)
}

// ReparentDeck moves a deck under a new parent, rejecting cycles in the
// variant chain.
func (s *PlayerService) ReparentDeck(c *fiber.Ctx) error {
	deckID := c.Params("id")

	var req struct {
		ParentID *string `json:"parent_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	var deck models.Deck
	if err := s.DB.First(&deck, "id = ?", deckID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "deck not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	if req.ParentID != nil {
		if err := s.checkDeckCycle(deckID, *req.ParentID); err != nil {
			if errors.Is(err, errDeckCycle) {
				return c.Status(400).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(400).JSON(fiber.Map{"error": "parent_id not found"})
		}
	}

	if err := s.DB.Model(&deck).Update("parent_id", req.ParentID).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update deck"})
	}

	return c.JSON(deck)
}

// checkDeckCycle walks the prospective parent chain; reaching deckID means
// the reparent would close a loop.
func (s *PlayerService) checkDeckCycle(deckID, parentID string) error {
	current := parentID
	for current != "" {
		if current == deckID {
			return errDeckCycle
		}
		var parent models.Deck
		if err := s.DB.First(&parent, "id = ?", current).Error; err != nil {
			return err
		}
		if parent.ParentID == nil {
			return nil
		}
		current = *parent.ParentID
	}
	return nil
}

func (s *PlayerService) GetAllDecks(c *fiber.Ctx) error {
	var decks []models.Deck
	if err := s.DB.Preload("Variants").Order("elo DESC").Find(&decks).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(fiber.Map{"decks": decks, "count": len(decks)})
}
