package models

// Player is a competitor's global record. Ratings and radar attributes here are
// updated only by the rating engine and the radar calculator; tournament-scoped
// results live on TournamentPlayer.
type Player struct {
	ID   string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name string `json:"name" gorm:"not null;index"`

	// ELO stats
	Elo         float64 `json:"elo" gorm:"default:1500"`
	PeakElo     float64 `json:"peak_elo" gorm:"default:1500"` // never drops below Elo
	GamesPlayed int     `json:"games_played" gorm:"default:0"`
	Wins        int     `json:"wins" gorm:"default:0"`
	Losses      int     `json:"losses" gorm:"default:0"`
	Ties        int     `json:"ties" gorm:"default:0"`

	// Radar attributes (0-100)
	Skill       float64 `json:"skill" gorm:"default:50"`
	Consistency float64 `json:"consistency" gorm:"default:50"`
	Experience  float64 `json:"experience" gorm:"default:0"`
	Clutch      float64 `json:"clutch" gorm:"default:50"`
	TopCut      float64 `json:"top_cut" gorm:"default:0"`

	Timestamps
}

func (p *Player) WinRate() float64 {
	if p.GamesPlayed == 0 {
		return 0.0
	}
	return float64(p.Wins) / float64(p.GamesPlayed)
}

// AdjustedWinRate is the Bayesian-smoothed win rate feeding the Consistency
// radar attribute. The +3/+6 prior keeps tiny samples away from 0% and 100%.
func (p *Player) AdjustedWinRate() float64 {
	return (float64(p.Wins) + 3) / (float64(p.GamesPlayed) + 6)
}

func (p *Player) Status() string {
	if p.GamesPlayed >= 10 {
		return "Official"
	}
	return "Provisional"
}
