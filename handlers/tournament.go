package handlers

import (
	"tcg-tournament-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTournamentRoutes(app *fiber.App, tournamentService *services.TournamentService, pairingService *services.PairingService, eloService *services.ELOService) {
	// Tournament CRUD and lifecycle
	app.Post("/tournaments", tournamentService.CreateTournament)
	app.Get("/tournaments", tournamentService.GetAllTournaments)
	app.Get("/tournaments/:id", tournamentService.GetTournamentByID)
	app.Post("/tournaments/:id/start", tournamentService.StartTournament)
	app.Post("/tournaments/:id/complete", tournamentService.CompleteTournament)

	// Registration and participant management
	app.Post("/tournaments/:id/players", tournamentService.RegisterPlayer)
	app.Post("/tournaments/:id/players/:tp_id/drop", tournamentService.DropPlayer)
	app.Patch("/tournaments/:id/players/:tp_id/tardy", tournamentService.MarkTardy)

	// Rounds and results
	app.Get("/tournaments/:id/pairings/preview", pairingService.PreviewPairings)
	app.Post("/tournaments/:id/rounds/next", tournamentService.StartNextRound)
	app.Post("/matches/:match_id/result", tournamentService.ReportResult)

	// Standings and ratings
	app.Get("/tournaments/:id/standings", tournamentService.GetStandings)
	app.Post("/tournaments/:id/ratings/finalize", eloService.FinalizeRatings)
}
