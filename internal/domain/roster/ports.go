package roster

import (
	"context"

	"github.com/google/uuid"
)

// TeamRepository defines the interface for team persistence
type TeamRepository interface {
	// CreateTeam creates a new team
	CreateTeam(ctx context.Context, team *Team) error

	// ListTeams retrieves all teams
	ListTeams(ctx context.Context) ([]*Team, error)

	// GetTeamByID retrieves a team by its ID
	GetTeamByID(ctx context.Context, teamID uuid.UUID) (*Team, error)
}

// PlayerRepository defines the interface for player persistence
type PlayerRepository interface {
	// CreatePlayer creates a new player
	CreatePlayer(ctx context.Context, player *Player) error

	// ListPlayers retrieves all players in one gender pool
	ListPlayers(ctx context.Context, gender Gender) ([]*Player, error)

	// ListPlayersBySoldTo retrieves the players a team has bought
	ListPlayersBySoldTo(ctx context.Context, teamID uuid.UUID, gender Gender) ([]*Player, error)

	// DeletePlayer removes a player from a gender pool
	DeletePlayer(ctx context.Context, playerID uuid.UUID, gender Gender) error
}
