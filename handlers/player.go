package handlers

import (
	"tcg-tournament-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPlayerRoutes(app *fiber.App, playerService *services.PlayerService, radarService *services.RadarService) {
	// Players
	app.Post("/players", playerService.CreatePlayer)
	app.Get("/players", playerService.GetAllPlayers)
	app.Get("/players/:id", playerService.GetPlayerByID)
	app.Get("/players/:id/elo-history", playerService.GetPlayerEloHistory)

	// Radar attributes
	app.Get("/players/:id/radar", radarService.GetPlayerRadar)
	app.Post("/radar/refresh", radarService.RefreshAllRadar)

	// Decks
	app.Post("/decks", playerService.CreateDeck)
	app.Get("/decks", playerService.GetAllDecks)
	app.Patch("/decks/:id/parent", playerService.ReparentDeck)
}
