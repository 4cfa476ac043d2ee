package models

import "time"

// Tournament status flows one way: upcoming → live → completed.
const (
	TournamentUpcoming  = "upcoming"
	TournamentLive      = "live"
	TournamentCompleted = "completed"
)

// Match modes. In bo3 mode individual game counts feed the standings tiebreakers.
const (
	ModeNormal = "normal"
	ModeBo3    = "bo3"
)

// Tournament represents one Swiss-system event.
type Tournament struct {
	ID   string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name string    `json:"name" gorm:"not null"`
	Slug string    `json:"slug" gorm:"index"`
	Date time.Time `json:"date" gorm:"not null"`

	// Settings
	Mode       string `json:"mode" gorm:"type:varchar(16);default:'normal'"` // normal or bo3
	DrawPoints int    `json:"draw_points" gorm:"default:0"`                  // 0 or 1

	// Status
	Status       string     `json:"status" gorm:"type:varchar(16);default:'upcoming';index"`
	CurrentRound int        `json:"current_round" gorm:"default:0"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	// Set once the rating replay has been committed; guards re-finalization.
	EloProcessedAt *time.Time `json:"elo_processed_at,omitempty"`

	// Set once the report worker has archived the final standings.
	ReportURL string `json:"report_url,omitempty"`

	Participants []TournamentPlayer `json:"participants,omitempty" gorm:"foreignKey:TournamentID"`
	Matches      []Match            `json:"matches,omitempty" gorm:"foreignKey:TournamentID"`

	Timestamps
}

// TournamentPlayer is one player's participation in one tournament. The pairing
// engine and standings operate on these, not on the global Player record.
type TournamentPlayer struct {
	ID           string  `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	TournamentID string  `json:"tournament_id" gorm:"not null;index"`
	PlayerID     string  `json:"player_id" gorm:"not null;index"`
	DeckID       *string `json:"deck_id,omitempty" gorm:"type:uuid"`

	// Tournament-scoped results
	Points int `json:"points" gorm:"default:0"`
	Wins   int `json:"wins" gorm:"default:0"`
	Losses int `json:"losses" gorm:"default:0"`
	Ties   int `json:"ties" gorm:"default:0"`
	Byes   int `json:"byes" gorm:"default:0"`

	// Bo3 game counters
	GameWins   int  `json:"game_wins" gorm:"default:0"`
	GameLosses int  `json:"game_losses" gorm:"default:0"`
	IsTardy    bool `json:"is_tardy" gorm:"default:false"`

	Dropped      bool `json:"dropped" gorm:"default:false"`
	DroppedRound *int `json:"dropped_round,omitempty"`

	// Standing after completion (1-based; 0 = tournament not completed)
	FinalPlacement int `json:"final_placement" gorm:"default:0"`

	Player Player `json:"player,omitempty" gorm:"foreignKey:PlayerID"`
	Deck   *Deck  `json:"deck,omitempty" gorm:"foreignKey:DeckID"`

	Timestamps
}
