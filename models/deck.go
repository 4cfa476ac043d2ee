package models

import "strings"

// Deck is an archetype in the deck database. A deck may be a variant of a
// parent deck; the parent chain must stay acyclic.
type Deck struct {
	ID       string  `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name     string  `json:"name" gorm:"not null"`
	ParentID *string `json:"parent_id,omitempty" gorm:"type:uuid;index"`

	// Nature tags, comma-separated ("Meta Deck,Box Deck")
	Natures string `json:"natures,omitempty"`

	// Stats — updated only by the deck rating pass
	Elo         float64 `json:"elo" gorm:"default:1500"`
	GamesPlayed int     `json:"games_played" gorm:"default:0"`
	Wins        int     `json:"wins" gorm:"default:0"`

	Parent   *Deck  `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Variants []Deck `json:"variants,omitempty" gorm:"foreignKey:ParentID"`

	Timestamps
}

func (d *Deck) WinRate() float64 {
	if d.GamesPlayed == 0 {
		return 0.0
	}
	return float64(d.Wins) / float64(d.GamesPlayed)
}

func (d *Deck) NatureList() []string {
	if d.Natures == "" {
		return nil
	}
	parts := strings.Split(d.Natures, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
