package roster

import (
	"time"

	"github.com/google/uuid"
)

// Gender partitions players and teams into the two draft pools.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// IsValid checks if the gender is one of the two known pools
func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale:
		return true
	default:
		return false
	}
}

// String returns the string representation of the gender
func (g Gender) String() string {
	return string(g)
}

// Position is a player's field position
type Position string

const (
	PositionGoalkeeper Position = "goalkeeper"
	PositionStriker    Position = "striker"
	PositionMidfielder Position = "midfielder"
	PositionDefender   Position = "defender"
)

// IsValid checks if the position is a known field position
func (p Position) IsValid() bool {
	switch p {
	case PositionGoalkeeper, PositionStriker, PositionMidfielder, PositionDefender:
		return true
	default:
		return false
	}
}

// TeamType distinguishes regular teams from the admin account
type TeamType string

const (
	TeamTypeTeam  TeamType = "team"
	TeamTypeAdmin TeamType = "admin"
)

// DefaultBalance is the budget every team starts the auction with.
const DefaultBalance int64 = 5000

// Team represents a drafting team and its remaining budget
type Team struct {
	ID           uuid.UUID `db:"id"`
	Name         string    `db:"name"`
	Captain      string    `db:"captain"`
	CaptainImage string    `db:"captain_image"`
	Email        string    `db:"email"`
	Gender       Gender    `db:"gender"`
	Type         TeamType  `db:"type"`
	Balance      int64     `db:"balance"`
	CreatedAt    time.Time `db:"created_at"`
}

// Player represents a draftable club member. Price and SoldTo are set only
// once the player has been sold at auction.
type Player struct {
	ID        uuid.UUID  `db:"id"`
	Name      string     `db:"name"`
	Image     string     `db:"image"`
	Number    int        `db:"number"`
	Position  Position   `db:"position"`
	Gender    Gender     `db:"gender"`
	IsStar    bool       `db:"is_star"`
	IsSold    bool       `db:"is_sold"`
	Price     *int64     `db:"price"`
	SoldTo    *uuid.UUID `db:"sold_to"`
	CreatedAt time.Time  `db:"created_at"`
}

// TeamRoster is a team hydrated with the players it has bought
type TeamRoster struct {
	Team
	Players []*Player
}
