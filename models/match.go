package models

import (
	"time"

	"gorm.io/gorm"
)

// Match results. A match with no result yet is pending.
const (
	ResultPlayer1    = "player1"
	ResultPlayer2    = "player2"
	ResultDraw       = "draw"
	ResultDoubleLoss = "double_loss"
	ResultBye        = "bye"
)

// Match is one pairing in one round. Player2ID is nil for a bye. Once a result
// is set the record is immutable except for rating bookkeeping.
type Match struct {
	ID           string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	TournamentID string `json:"tournament_id" gorm:"not null;index"`
	RoundNumber  int    `json:"round_number" gorm:"not null"`

	Player1ID string  `json:"player1_id" gorm:"not null;type:uuid"`
	Player2ID *string `json:"player2_id,omitempty" gorm:"type:uuid"`

	Result string `json:"result,omitempty" gorm:"type:varchar(16);check:result IN ('player1','player2','draw','double_loss','bye','')"`

	// Bo3 game scores
	P1GameWins int `json:"p1_game_wins" gorm:"default:0"`
	P2GameWins int `json:"p2_game_wins" gorm:"default:0"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Player1 *TournamentPlayer `json:"player1,omitempty" gorm:"foreignKey:Player1ID"`
	Player2 *TournamentPlayer `json:"player2,omitempty" gorm:"foreignKey:Player2ID"`

	Timestamps
}

// IsBye reports whether the match is a bye, either by result or by a missing
// second participant.
func (m *Match) IsBye() bool {
	return m.Result == ResultBye || m.Player2ID == nil
}

func (m *Match) Completed() bool {
	return m.Result != ""
}

// ELOHistory is an append-only audit record of one rating change for one
// player, attributable to exactly one match. Never mutated after creation.
type ELOHistory struct {
	ID           string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	PlayerID     string `json:"player_id" gorm:"not null;index;type:uuid"`
	MatchID      string `json:"match_id" gorm:"index;type:uuid"`
	TournamentID string `json:"tournament_id" gorm:"index;type:uuid"`

	EloBefore float64 `json:"elo_before" gorm:"not null"`
	EloAfter  float64 `json:"elo_after" gorm:"not null"`
	EloChange float64 `json:"elo_change" gorm:"not null"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
