package workers

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"strconv"
	"time"

	"tcg-tournament-system/models"
	"tcg-tournament-system/services"
	"tcg-tournament-system/utils"

	"gorm.io/gorm"
)

// ReportArchiver renders the final standings of completed tournaments to CSV
// and uploads them to R2, stamping ReportURL so each tournament is archived
// once.
type ReportArchiver struct {
	DB *gorm.DB
}

func NewReportArchiver(db *gorm.DB) *ReportArchiver {
	return &ReportArchiver{DB: db}
}

// PollCompletedTournaments drives the archiver on an interval until the
// context is cancelled.
func PollCompletedTournaments(ctx context.Context, archiver *ReportArchiver, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Report archiving stopped.")
			return
		case <-ticker.C:
			if err := archiver.ArchivePending(ctx); err != nil {
				log.Printf("❌ Report archiving pass failed: %v", err)
			}
		}
	}
}

// ArchivePending uploads a report for every completed, rating-finalized
// tournament that does not have one yet.
func (a *ReportArchiver) ArchivePending(ctx context.Context) error {
	var tournaments []models.Tournament
	if err := a.DB.Where("status = ? AND report_url = '' AND elo_processed_at IS NOT NULL",
		models.TournamentCompleted).
		Find(&tournaments).Error; err != nil {
		return fmt.Errorf("failed to load completed tournaments: %w", err)
	}
	if len(tournaments) == 0 {
		return nil
	}

	for i := range tournaments {
		if err := a.archiveOne(ctx, &tournaments[i]); err != nil {
			log.Printf("❌ Failed to archive report for tournament %s: %v", tournaments[i].ID, err)
			// Leave ReportURL unset — retried next tick
			continue
		}
		log.Printf("✅ Archived standings report for tournament %s", tournaments[i].ID)
	}
	return nil
}

func (a *ReportArchiver) archiveOne(ctx context.Context, tournament *models.Tournament) error {
	var participants []models.TournamentPlayer
	if err := a.DB.Preload("Player").
		Where("tournament_id = ?", tournament.ID).
		Find(&participants).Error; err != nil {
		return fmt.Errorf("failed to load participants: %w", err)
	}

	var matches []models.Match
	if err := a.DB.Where("tournament_id = ?", tournament.ID).
		Order("round_number, created_at").
		Find(&matches).Error; err != nil {
		return fmt.Errorf("failed to load matches: %w", err)
	}

	rows := services.ComputeStandings(tournament, participants, matches)

	report, err := renderStandingsCSV(tournament, rows)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("reports/%s-standings.csv", tournament.Slug)
	url, err := utils.UploadReportToR2(ctx, key, report, "text/csv")
	if err != nil {
		return err
	}

	return a.DB.Model(tournament).Update("report_url", url).Error
}

func renderStandingsCSV(tournament *models.Tournament, rows []services.StandingRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"place", "player", "points", "wins", "losses", "ties", "omw", "oowp"}
	bo3 := tournament.Mode == models.ModeBo3
	if bo3 {
		header = append(header, "gwp", "ogwp", "tardy")
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	pct := func(v float64) string { return strconv.FormatFloat(v*100, 'f', 1, 64) }

	for place, row := range rows {
		record := []string{
			strconv.Itoa(place + 1),
			row.Participant.Player.Name,
			strconv.Itoa(row.Points),
			strconv.Itoa(row.Wins),
			strconv.Itoa(row.Losses),
			strconv.Itoa(row.Ties),
			pct(row.OMW),
			pct(row.OOWP),
		}
		if bo3 {
			record = append(record, pct(row.GWP), pct(row.OGWP), strconv.FormatBool(row.Tardy))
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to render report: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}
